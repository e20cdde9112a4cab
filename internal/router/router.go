package router

import (
	"log/slog"
	"sync"
	"time"

	"github.com/syncmeet/realtime/internal/connection"
)

// Router turns registry callbacks into typed records for the archive
// writers. Handlers built by the router forward every event to the caller's
// own handlers after recording it.
type Router struct {
	cfg    RouterConfig
	logger *slog.Logger
	now    func() time.Time

	chatBuf   *GrowableBuffer[ChatRecord]
	partBuf   *GrowableBuffer[ParticipantRecord]
	notifyBuf *GrowableBuffer[NotificationRecord]

	mu        sync.Mutex
	stats     RouterStats
	connected map[string]bool // endpoints that have opened at least once
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = DefaultRouterConfig().BufferSize
	}

	return &Router{
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		chatBuf:   NewGrowableBuffer[ChatRecord](cfg.BufferSize),
		partBuf:   NewGrowableBuffer[ParticipantRecord](cfg.BufferSize),
		notifyBuf: NewGrowableBuffer[NotificationRecord](cfg.BufferSize),
		connected: make(map[string]bool),
	}
}

// Handlers returns a handler set for endpoint that records events and then
// calls next.
func (r *Router) Handlers(endpoint string, next connection.Handlers) connection.Handlers {
	logger := r.logger.With("endpoint", endpoint)

	return connection.Handlers{
		OnMessage: func(env connection.Envelope) {
			r.count(func(s *RouterStats) { s.MessagesReceived++ })
			if !known(env.Type) {
				r.count(func(s *RouterStats) { s.UnknownMessages++ })
				logger.Debug("skipping message type", "type", env.Type)
			}
			if next.OnMessage != nil {
				next.OnMessage(env)
			}
		},

		OnChatMessage: func(msg connection.ChatMessage) {
			r.routed(r.chatBuf.Push(ChatRecord{Endpoint: endpoint, ReceivedAt: r.now(), Message: msg}))
			if next.OnChatMessage != nil {
				next.OnChatMessage(msg)
			}
		},

		OnParticipantUpdate: func(upd connection.ParticipantUpdate) {
			r.routed(r.partBuf.Push(ParticipantRecord{Endpoint: endpoint, ReceivedAt: r.now(), Update: upd}))
			if next.OnParticipantUpdate != nil {
				next.OnParticipantUpdate(upd)
			}
		},

		OnNotification: func(n connection.Notification) {
			r.routed(r.notifyBuf.Push(NotificationRecord{Endpoint: endpoint, ReceivedAt: r.now(), Notification: n}))
			if next.OnNotification != nil {
				next.OnNotification(n)
			}
		},

		OnConnectionChange: func(connected bool) {
			if connected {
				r.mu.Lock()
				if r.connected[endpoint] {
					r.stats.Reconnects++
				}
				r.connected[endpoint] = true
				r.mu.Unlock()
			}
			if next.OnConnectionChange != nil {
				next.OnConnectionChange(connected)
			}
		},

		OnError: func(err *connection.Error) {
			switch err.Kind {
			case connection.KindTransport:
				r.count(func(s *RouterStats) { s.TransportErrors++ })
			case connection.KindReconnectExhausted:
				r.count(func(s *RouterStats) { s.TerminalFailures++ })
				r.mu.Lock()
				delete(r.connected, endpoint)
				r.mu.Unlock()
				logger.Error("realtime channel gave up", "attempts", err.Attempts)
			}
			if next.OnError != nil {
				next.OnError(err)
			}
		},
	}
}

// Forget drops reconnect bookkeeping for an endpoint that was disconnected
// on purpose, so a later connect is not counted as a reconnect.
func (r *Router) Forget(endpoint string) {
	r.mu.Lock()
	delete(r.connected, endpoint)
	r.mu.Unlock()
}

// Buffers returns output buffers for writers.
func (r *Router) Buffers() RouterBuffers {
	return RouterBuffers{
		Chat:         r.chatBuf,
		Participant:  r.partBuf,
		Notification: r.notifyBuf,
	}
}

// Close closes the output buffers. Writers drain what remains.
func (r *Router) Close() {
	r.chatBuf.Close()
	r.partBuf.Close()
	r.notifyBuf.Close()
}

// Stats returns current statistics.
func (r *Router) Stats() RouterStats {
	r.mu.Lock()
	s := r.stats
	r.mu.Unlock()

	s.ChatBuffer = r.chatBuf.Stats()
	s.ParticipantBuffer = r.partBuf.Stats()
	s.NotifyBuffer = r.notifyBuf.Stats()
	return s
}

func (r *Router) count(f func(*RouterStats)) {
	r.mu.Lock()
	f(&r.stats)
	r.mu.Unlock()
}

func (r *Router) routed(ok bool) {
	if ok {
		r.count(func(s *RouterStats) { s.MessagesRouted++ })
	}
}

func known(t string) bool {
	switch t {
	case connection.TypeChatMessage, connection.TypeParticipantUpdate, connection.TypeNotification:
		return true
	}
	return false
}
