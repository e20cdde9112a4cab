package archive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/syncmeet/realtime/internal/router"
)

// DB is the subset of *pgxpool.Pool used by the writers.
type DB interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// WriterConfig holds batching settings shared by all writers.
type WriterConfig struct {
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultWriterConfig returns default configuration.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     500,
		FlushInterval: time.Second,
	}
}

// WriterMetrics tracks writer outcomes.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
}

// Writer drains one router buffer and batch-inserts its records.
type Writer[M any] struct {
	name   string
	cfg    WriterConfig
	logger *slog.Logger

	// Input from the router
	input *router.GrowableBuffer[M]

	db    DB
	queue func(b *pgx.Batch, msg M)

	// Batching
	batch   []M
	batchMu sync.Mutex

	// Lifecycle
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics WriterMetrics
}

func newWriter[M any](name string, cfg WriterConfig, input *router.GrowableBuffer[M], db DB, queue func(*pgx.Batch, M), logger *slog.Logger) *Writer[M] {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultWriterConfig()
	if cfg.BatchSize < 1 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	return &Writer[M]{
		name:   name,
		cfg:    cfg,
		logger: logger.With("writer", name),
		input:  input,
		db:     db,
		queue:  queue,
		batch:  make([]M, 0, cfg.BatchSize),
	}
}

// Start begins consuming records.
func (w *Writer[M]) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("archive writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop stops consuming, then writes whatever is still buffered using ctx.
func (w *Writer[M]) Stop(ctx context.Context) error {
	w.logger.Info("stopping archive writer")

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
	case <-ctx.Done():
		w.logger.Warn("archive writer stop timed out")
		return ctx.Err()
	}

	// Final drain and flush
	for {
		w.collect()
		if w.pending() == 0 || !w.flush(ctx) {
			break
		}
	}

	w.logger.Info("archive writer stopped")
	return nil
}

// Stats returns current metrics.
func (w *Writer[M]) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *Writer[M]) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.input.Ready():
			for w.collect() {
				w.flush(ctx)
			}
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// collect moves buffered records into the batch. It returns true when the
// batch is full and should be flushed before collecting more.
func (w *Writer[M]) collect() bool {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()

	room := w.cfg.BatchSize - len(w.batch)
	if room <= 0 {
		return true
	}
	w.batch = append(w.batch, w.input.DrainTo(room)...)
	return len(w.batch) >= w.cfg.BatchSize
}

func (w *Writer[M]) pending() int {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return len(w.batch)
}

// flush writes the current batch. It returns false if the insert failed;
// failed rows are dropped and counted as errors.
func (w *Writer[M]) flush(ctx context.Context) bool {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return true
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]M, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return false
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed batch",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
	return true
}

// batchInsert sends all rows in one pgx.Batch; rows hitting ON CONFLICT DO
// NOTHING report zero affected rows.
func (w *Writer[M]) batchInsert(ctx context.Context, rows []M) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		w.queue(batch, r)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
