// Package worker mirrors persisted ledgers into an external exporter.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"planner/internal/amqp"
	"planner/internal/core"
	"planner/internal/ledger"
	"planner/internal/log"
	"planner/internal/sheets"
	"planner/internal/storage"
)

// Config holds configuration for the export worker.
type Config struct {
	// Concurrency bounds parallel exports during a backfill (default: 4).
	Concurrency int

	// ResyncInterval is how often every month is exported again, as a backstop
	// for lost messages. Zero disables the periodic resync.
	ResyncInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Concurrency:    4,
		ResyncInterval: time.Hour,
	}
}

// ExportWorker reloads changed months from storage and exports them.
type ExportWorker struct {
	store    storage.Store
	repo     *ledger.Repository
	exporter sheets.LedgerExporter
	config   Config
	logger   *slog.Logger

	// Lifecycle management
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce *sync.Once
}

func NewExportWorker(store storage.Store, exporter sheets.LedgerExporter, config Config, logger *slog.Logger) *ExportWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConfig().Concurrency
	}
	return &ExportWorker{
		store:    store,
		repo:     ledger.NewRepository(store, logger),
		exporter: exporter,
		config:   config,
		logger:   logger.With(log.FieldComponent, log.ComponentWorker),
	}
}

// HandleLedgerChanged is the AMQP handler. A returned error requeues the
// message.
func (w *ExportWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		log.FieldMonth, msg.Month, log.FieldOperation, msg.Operation)
	return w.ExportMonth(ctx, msg.Month)
}

// ExportMonth exports the stored state of one month. Categories are read
// fresh because another process owns the catalog.
func (w *ExportWorker) ExportMonth(ctx context.Context, month core.MonthKey) error {
	if !month.Valid() {
		return fmt.Errorf("export %q: %w", month, core.ErrInvalidMonthKey)
	}
	categories := ledger.OpenCatalog(ctx, w.store, w.logger).Categories()
	l := w.repo.Load(ctx, month)
	if err := w.exporter.ExportLedger(ctx, l, categories); err != nil {
		return fmt.Errorf("export %s: %w", month, err)
	}
	return nil
}

// Backfill exports every stored month with bounded parallelism. It stops at
// the first failure.
func (w *ExportWorker) Backfill(ctx context.Context) error {
	months, err := w.repo.Months(ctx)
	if err != nil {
		return fmt.Errorf("list months: %w", err)
	}
	if len(months) == 0 {
		return nil
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.Concurrency)
	for _, m := range months {
		g.Go(func() error {
			return w.ExportMonth(gctx, m)
		})
	}
	if err := g.Wait(); err != nil {
		w.logger.ErrorContext(ctx, "Backfill failed", log.FieldOperation, log.OpBackfill, log.FieldError, err)
		return err
	}

	w.logger.InfoContext(ctx, "Backfill complete",
		log.FieldOperation, log.OpBackfill,
		log.FieldCount, len(months),
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// Start runs a backfill immediately and then on every ResyncInterval.
// Returns an error if already running.
func (w *ExportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("export worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.stopOnce = new(sync.Once)
	w.mu.Unlock()

	go w.runLoop(ctx)

	w.logger.InfoContext(ctx, "Export worker started",
		"resync_interval", w.config.ResyncInterval,
		"concurrency", w.config.Concurrency)
	return nil
}

// Stop waits for the loop to finish or ctx to expire. It is safe to call
// from several goroutines; all of them wait for the same loop.
func (w *ExportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh, once := w.stopCh, w.doneCh, w.stopOnce
	w.mu.Unlock()

	once.Do(func() { close(stopCh) })

	select {
	case <-doneCh:
		w.logger.InfoContext(ctx, "Export worker stopped gracefully")
	case <-ctx.Done():
		w.logger.WarnContext(ctx, "Export worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	if w.doneCh == doneCh {
		w.running = false
	}
	w.mu.Unlock()
	return nil
}

func (w *ExportWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *ExportWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	_ = w.Backfill(ctx)
	if w.config.ResyncInterval <= 0 {
		select {
		case <-w.stopCh:
		case <-ctx.Done():
		}
		return
	}

	ticker := time.NewTicker(w.config.ResyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = w.Backfill(ctx)
		}
	}
}
