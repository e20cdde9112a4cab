package archive

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/syncmeet/realtime/internal/router"
)

// Archive runs one writer per router buffer.
type Archive struct {
	Chat         *Writer[router.ChatRecord]
	Participant  *Writer[router.ParticipantRecord]
	Notification *Writer[router.NotificationRecord]
}

// Stats is a snapshot of all writer metrics.
type Stats struct {
	Chat         WriterMetrics
	Participant  WriterMetrics
	Notification WriterMetrics
}

// New creates writers for every buffer in bufs.
func New(cfg WriterConfig, bufs router.RouterBuffers, db DB, logger *slog.Logger) *Archive {
	return &Archive{
		Chat:         NewChatWriter(cfg, bufs.Chat, db, logger),
		Participant:  NewParticipantWriter(cfg, bufs.Participant, db, logger),
		Notification: NewNotificationWriter(cfg, bufs.Notification, db, logger),
	}
}

// Start starts all writers.
func (a *Archive) Start(ctx context.Context) error {
	for _, start := range []func(context.Context) error{a.Chat.Start, a.Participant.Start, a.Notification.Start} {
		if err := start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop flushes and stops all writers concurrently.
func (a *Archive) Stop(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return a.Chat.Stop(ctx) })
	g.Go(func() error { return a.Participant.Stop(ctx) })
	g.Go(func() error { return a.Notification.Stop(ctx) })
	return g.Wait()
}

// Stats returns metrics for all writers.
func (a *Archive) Stats() Stats {
	return Stats{
		Chat:         a.Chat.Stats(),
		Participant:  a.Participant.Stats(),
		Notification: a.Notification.Stats(),
	}
}
