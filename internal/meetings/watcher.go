package meetings

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/syncmeet/realtime/internal/api"
	"github.com/syncmeet/realtime/internal/connection"
)

// MeetingSource lists meetings and rosters. *api.Client satisfies it.
type MeetingSource interface {
	GetOngoingMeetings(ctx context.Context) ([]api.Meeting, error)
	GetMeetingParticipants(ctx context.Context, id string) ([]api.Participant, error)
}

// Connector is the registry surface the watcher drives.
// *connection.Registry satisfies it.
type Connector interface {
	Connect(endpoint string, h connection.Handlers) bool
	Disconnect(endpoint string)
	State(endpoint string) connection.ConnState
}

var (
	_ MeetingSource = (*api.Client)(nil)
	_ Connector     = (*connection.Registry)(nil)
)

// Hooks customize what happens to watched meetings. All fields are optional.
type Hooks struct {
	// Handlers builds the handler set for a channel endpoint.
	Handlers func(endpoint string) connection.Handlers

	// OnRoster receives the participant list of a newly observed meeting.
	OnRoster func(meeting api.Meeting, roster []api.Participant)

	// OnEnded is called after a meeting's channels are disconnected.
	OnEnded func(meetingID string)
}

// Config holds watcher configuration.
type Config struct {
	Interval    time.Duration // Poll interval (default: 30s)
	Concurrency int           // Max concurrent roster fetches (default: 4)
	Timeout     time.Duration // Per-request timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    30 * time.Second,
		Concurrency: 4,
		Timeout:     10 * time.Second,
	}
}

// Stats contains watcher counters.
type Stats struct {
	Syncs        int64
	SyncErrors   int64
	Watched      int
	Opened       int64 // channel connects issued
	Ended        int64
	RosterErrors int64
}

// Watcher keeps the registry's channels in line with the set of ongoing
// meetings.
type Watcher struct {
	cfg    Config
	source MeetingSource
	conn   Connector
	hooks  Hooks
	logger *slog.Logger

	mu      sync.Mutex
	watched map[string]api.Meeting

	syncs, syncErrors, opened, ended, rosterErrors atomic.Int64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Watcher.
func New(cfg Config, source MeetingSource, conn Connector, hooks Hooks, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Watcher{
		cfg:     cfg,
		source:  source,
		conn:    conn,
		hooks:   hooks,
		logger:  logger,
		watched: make(map[string]api.Meeting),
	}
}

// Start begins the polling loop. The first sync runs immediately.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("meeting watcher started",
		"interval", w.cfg.Interval,
		"concurrency", w.cfg.Concurrency,
	)
	return nil
}

// Stop ends the polling loop. Channels stay connected; the owner of the
// registry decides when to disconnect them.
func (w *Watcher) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("meeting watcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.syncLogged(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.syncLogged(ctx)
		}
	}
}

func (w *Watcher) syncLogged(ctx context.Context) {
	if err := w.Sync(ctx); err != nil && ctx.Err() == nil {
		w.logger.Warn("meeting sync failed", "error", err)
	}
}

// Sync reconciles channels with the current set of ongoing meetings. On a
// listing error nothing is changed.
func (w *Watcher) Sync(ctx context.Context) error {
	start := time.Now()
	w.syncs.Add(1)

	listCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	ongoing, err := w.source.GetOngoingMeetings(listCtx)
	cancel()
	if err != nil {
		w.syncErrors.Add(1)
		return err
	}

	current := make(map[string]api.Meeting, len(ongoing))
	for _, m := range ongoing {
		if m.ID != "" {
			current[m.ID] = m
		}
	}

	w.mu.Lock()
	var fresh []api.Meeting
	for id, m := range current {
		if _, ok := w.watched[id]; !ok {
			fresh = append(fresh, m)
		}
		w.watched[id] = m
	}
	var gone []string
	for id := range w.watched {
		if _, ok := current[id]; !ok {
			gone = append(gone, id)
			delete(w.watched, id)
		}
	}
	w.mu.Unlock()

	for id := range current {
		w.ensure(connection.MeetingEndpoint(id))
		w.ensure(connection.ChatEndpoint(id))
	}

	for _, id := range gone {
		w.conn.Disconnect(connection.MeetingEndpoint(id))
		w.conn.Disconnect(connection.ChatEndpoint(id))
		w.ended.Add(1)
		w.logger.Info("meeting ended, channels closed", "meeting_id", id)
		if w.hooks.OnEnded != nil {
			w.hooks.OnEnded(id)
		}
	}

	if err := w.fetchRosters(ctx, fresh); err != nil {
		return err
	}

	w.logger.Debug("meeting sync complete",
		"ongoing", len(current),
		"new", len(fresh),
		"ended", len(gone),
		"duration", time.Since(start),
	)
	return nil
}

// ensure connects endpoint unless the registry already tracks it, either
// open, connecting or waiting to retry.
func (w *Watcher) ensure(endpoint string) {
	if w.conn.State(endpoint) != connection.StateAbsent {
		return
	}

	var h connection.Handlers
	if w.hooks.Handlers != nil {
		h = w.hooks.Handlers(endpoint)
	}
	if w.conn.Connect(endpoint, h) {
		w.opened.Add(1)
	}
}

// fetchRosters loads participant lists for new meetings. Individual fetch
// failures are logged; only cancellation aborts the batch.
func (w *Watcher) fetchRosters(ctx context.Context, meetings []api.Meeting) error {
	if len(meetings) == 0 || w.hooks.OnRoster == nil {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Concurrency)

	for _, m := range meetings {
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
			defer cancel()

			roster, err := w.source.GetMeetingParticipants(reqCtx, m.ID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.rosterErrors.Add(1)
				w.logger.Warn("failed to fetch roster", "meeting_id", m.ID, "error", err)
				return nil
			}

			w.hooks.OnRoster(m, roster)
			return nil
		})
	}

	return g.Wait()
}

// Watched returns the ids of meetings currently being watched, sorted.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]string, 0, len(w.watched))
	for id := range w.watched {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stats returns watcher counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	watched := len(w.watched)
	w.mu.Unlock()

	return Stats{
		Syncs:        w.syncs.Load(),
		SyncErrors:   w.syncErrors.Load(),
		Watched:      watched,
		Opened:       w.opened.Load(),
		Ended:        w.ended.Load(),
		RosterErrors: w.rosterErrors.Load(),
	}
}
