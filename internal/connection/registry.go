package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// HeaderSource supplies handshake headers (e.g. Authorization) per dial.
type HeaderSource interface {
	Headers() map[string]string
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock replaces the timer source used for reconnection delays.
func WithClock(clock Clock) RegistryOption {
	return func(r *Registry) {
		r.clock = clock
	}
}

// WithClientFactory replaces the transport constructor.
func WithClientFactory(f ClientFactory) RegistryOption {
	return func(r *Registry) {
		r.newClient = f
	}
}

// WithHeaderSource adds handshake headers to every dial.
func WithHeaderSource(src HeaderSource) RegistryOption {
	return func(r *Registry) {
		r.headers = src
	}
}

// entry is the registry slot for one endpoint.
type entry struct {
	endpoint string
	url      string
	handlers Handlers // fixed for the entry's lifetime, reused by retries
	logger   *slog.Logger

	// Guarded by Registry.mu
	gen      uint64 // identifies the transport currently owned by this entry
	state    ConnState
	attempts int
	client   Client
	cancel   context.CancelFunc // aborts an in-flight handshake
	timer    Timer              // pending reconnect, if any
	closed   bool               // set when the consumer disconnected or superseded the entry
}

// retire marks the entry closed and releases its timer and handshake.
// The returned client, if any, must be closed by the caller outside the lock.
func (e *entry) retire() Client {
	e.closed = true
	e.state = StateAbsent
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	c := e.client
	e.client = nil
	return c
}

// Registry multiplexes logical channels over independent WebSocket
// connections, one per endpoint.
type Registry struct {
	cfg       RegistryConfig
	logger    *slog.Logger
	clock     Clock
	newClient ClientFactory
	headers   HeaderSource

	mu       sync.Mutex
	entries  map[string]*entry
	nextGen  uint64
	shutdown bool

	wg sync.WaitGroup
}

// NewRegistry creates a new Connection Registry.
func NewRegistry(cfg RegistryConfig, logger *slog.Logger, opts ...RegistryOption) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxReconnectAttempts < 0 {
		cfg.MaxReconnectAttempts = 0
	}

	r := &Registry{
		cfg:       cfg,
		logger:    logger,
		clock:     realClock{},
		newClient: NewClient,
		entries:   make(map[string]*entry),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Connect opens a connection for endpoint with the given handler set,
// superseding any existing connection for the same endpoint.
//
// It returns true once the attempt has been started. The outcome of the
// handshake arrives later through OnConnectionChange or OnError. On a
// synchronous setup failure OnError receives a KindSetup error, nothing is
// registered, and Connect returns false.
func (r *Registry) Connect(endpoint string, h Handlers) bool {
	if endpoint == "" {
		h.error(&Error{Kind: KindSetup, Endpoint: endpoint, Err: ErrEmptyEndpoint})
		return false
	}

	url, err := SocketURL(r.cfg.BaseURL, endpoint)
	if err != nil {
		r.logger.Error("failed to connect websocket", "endpoint", endpoint, "error", err)
		h.error(&Error{Kind: KindSetup, Endpoint: endpoint, Err: err})
		return false
	}

	r.mu.Lock()
	if r.shutdown {
		r.mu.Unlock()
		h.error(&Error{Kind: KindSetup, Endpoint: endpoint, Err: ErrRegistryClosed})
		return false
	}

	e := &entry{
		endpoint: endpoint,
		url:      url,
		handlers: h,
		logger:   r.logger.With("endpoint", endpoint),
	}

	var stale Client
	if old, ok := r.entries[endpoint]; ok {
		// The counter is only reset by a successful open, so a consumer
		// reconnecting mid-retry keeps the remaining budget.
		if old.state == StateRetrying {
			e.attempts = old.attempts
		}
		stale = old.retire()
		e.logger.Debug("superseding existing connection")
	}

	r.entries[endpoint] = e
	r.startLocked(e)
	r.mu.Unlock()

	if stale != nil {
		stale.Close()
	}

	return true
}

// Disconnect closes the endpoint's connection and forgets it. Any pending
// reconnect is cancelled; late transport events for it are ignored.
func (r *Registry) Disconnect(endpoint string) {
	r.mu.Lock()
	e, ok := r.entries[endpoint]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.entries, endpoint)
	c := e.retire()
	r.mu.Unlock()

	if c != nil {
		c.Close()
	}

	e.logger.Info("websocket disconnected by consumer")
}

// DisconnectAll closes every tracked connection and cancels all pending
// reconnects.
func (r *Registry) DisconnectAll() {
	r.mu.Lock()
	clients := make([]Client, 0, len(r.entries))
	for endpoint, e := range r.entries {
		if c := e.retire(); c != nil {
			clients = append(clients, c)
		}
		delete(r.entries, endpoint)
	}
	r.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}

	r.logger.Info("all websockets disconnected", "closed", len(clients))
}

// Shutdown disconnects everything, rejects further Connect calls and waits
// for connection goroutines to exit.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.shutdown = true
	r.mu.Unlock()

	r.DisconnectAll()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		r.logger.Warn("registry shutdown timed out")
		return ctx.Err()
	}
}

// Send serializes msg and writes it to the endpoint. It returns false if the
// endpoint is not open or the write fails; nothing is queued or retried.
func (r *Registry) Send(endpoint string, msg Envelope) bool {
	r.mu.Lock()
	e, ok := r.entries[endpoint]
	var c Client
	if ok && e.state == StateOpen {
		c = e.client
	}
	r.mu.Unlock()

	if c == nil || !c.IsConnected() {
		return false
	}

	data, err := Encode(msg)
	if err != nil {
		r.logger.Warn("failed to encode message", "endpoint", endpoint, "error", err)
		return false
	}

	if err := c.Send(data); err != nil {
		r.logger.Warn("failed to send message", "endpoint", endpoint, "error", err)
		return false
	}

	return true
}

// IsConnected reports whether endpoint has an open, ready connection.
func (r *Registry) IsConnected(endpoint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[endpoint]
	return ok && e.openLocked()
}

// ConnectionStatus returns the open state of every tracked endpoint.
func (r *Registry) ConnectionStatus() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := make(map[string]bool, len(r.entries))
	for endpoint, e := range r.entries {
		status[endpoint] = e.openLocked()
	}
	return status
}

// State returns the lifecycle state of endpoint.
func (r *Registry) State(endpoint string) ConnState {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[endpoint]
	if !ok {
		return StateAbsent
	}
	return e.state
}

func (e *entry) openLocked() bool {
	return e.state == StateOpen && e.client != nil && e.client.IsConnected()
}

// startLocked creates a transport for e and starts its event goroutine.
func (r *Registry) startLocked(e *entry) {
	r.nextGen++
	e.gen = r.nextGen
	e.state = StateConnecting

	cfg := r.cfg.Client
	cfg.URL = e.url
	if r.headers != nil {
		cfg.Header = r.headers.Headers()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.client = r.newClient(cfg, e.logger)

	r.wg.Add(1)
	go r.run(ctx, e, e.gen, e.client)
}

// currentLocked reports whether the transport identified by gen still owns e.
func (r *Registry) currentLocked(e *entry, gen uint64) bool {
	return !e.closed && e.gen == gen && r.entries[e.endpoint] == e
}

func (r *Registry) current(e *entry, gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentLocked(e, gen)
}

// run drives one transport: handshake, inbound dispatch, and closure.
// All callbacks for the transport are invoked from this goroutine, in the
// order the transport produced the events.
//
// Callbacks run without the registry lock. A Disconnect from another
// goroutine therefore cannot interrupt a callback that has already started;
// that one callback may finish after Disconnect returns, and nothing for the
// endpoint follows it.
func (r *Registry) run(ctx context.Context, e *entry, gen uint64, c Client) {
	defer r.wg.Done()

	if err := c.Connect(ctx); err != nil {
		r.handleClose(e, gen, err)
		return
	}

	if !r.markOpen(e, gen) {
		c.Close()
		return
	}

	e.logger.Info("websocket connected")
	e.handlers.connectionChange(true)

	live := func() bool { return r.current(e, gen) }

	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-c.Messages():
			if !live() {
				return
			}
			dispatch(e.logger, e.handlers, msg.Data, live)

		case err := <-c.Errors():
			// Frames read before the failure are already buffered.
			if !r.drain(e, gen, c) {
				return
			}
			r.handleClose(e, gen, err)
			return
		}
	}
}

// drain dispatches buffered frames. It returns false if the entry was
// retired meanwhile.
func (r *Registry) drain(e *entry, gen uint64, c Client) bool {
	live := func() bool { return r.current(e, gen) }
	for {
		select {
		case msg := <-c.Messages():
			if !live() {
				return false
			}
			dispatch(e.logger, e.handlers, msg.Data, live)
		default:
			return true
		}
	}
}

func (r *Registry) markOpen(e *entry, gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.currentLocked(e, gen) {
		return false
	}
	e.state = StateOpen
	e.attempts = 0
	return true
}

// handleClose applies the reconnection policy after an unexpected closure.
func (r *Registry) handleClose(e *entry, gen uint64, cause error) {
	r.mu.Lock()
	if !r.currentLocked(e, gen) {
		r.mu.Unlock()
		return
	}

	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	c := e.client
	e.client = nil

	terminal := e.attempts >= r.cfg.MaxReconnectAttempts
	if terminal {
		e.closed = true
		e.state = StateAbsent
		delete(r.entries, e.endpoint)
	} else {
		e.attempts++
		e.state = StateRetrying
		delay := r.cfg.ReconnectBaseDelay * time.Duration(e.attempts)
		attempt := e.attempts
		e.timer = r.clock.AfterFunc(delay, func() {
			r.retry(e, gen, attempt)
		})
		e.logger.Info("scheduling reconnection", "attempt", attempt, "delay", delay)
	}
	attempts := e.attempts
	r.mu.Unlock()

	if c != nil {
		c.Close()
	}

	e.logger.Warn("websocket closed unexpectedly", "error", cause)

	if abnormal(cause) {
		e.handlers.error(&Error{Kind: KindTransport, Endpoint: e.endpoint, Err: cause})
	}
	e.handlers.connectionChange(false)

	if terminal {
		e.logger.Error("max reconnection attempts reached", "attempts", attempts)
		e.handlers.error(&Error{Kind: KindReconnectExhausted, Endpoint: e.endpoint, Attempts: attempts})
	}
}

// retry re-dials e once its backoff delay has elapsed.
func (r *Registry) retry(e *entry, gen uint64, attempt int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.currentLocked(e, gen) || e.state != StateRetrying {
		return
	}
	e.timer = nil

	e.logger.Info("attempting reconnection", "attempt", attempt)
	r.startLocked(e)
}

// abnormal reports whether a closure cause is worth surfacing as a transport
// error. A clean close frame from the server is just a closure.
func abnormal(err error) bool {
	if err == nil {
		return false
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code != websocket.CloseNormalClosure && ce.Code != websocket.CloseGoingAway
	}
	return true
}
