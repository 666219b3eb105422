package main

import (
	"context"
	"errors"
	"time"

	"planner/internal/amqp"
	"planner/internal/backend"
	"planner/internal/cli"
	"planner/internal/config"
	"planner/internal/log"
	"planner/internal/sheets"
	gsheet "planner/internal/sheets/google"
	mem "planner/internal/sheets/memory"
	"planner/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting planner-worker")

	if err := cfg.Validate(); err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	if err := run(cfg, logger); err != nil {
		cli.Fatal(logger, "Worker failed", err)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	// The server process writes the same store; a cache here would serve
	// stale months.
	store, err := backend.Open(bcfg.Uncached(), logger.Slog())
	if err != nil {
		return err
	}
	defer store.Close()

	exporter, err := newExporter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	w := worker.NewExportWorker(store.Store, exporter, worker.Config{
		Concurrency:    cfg.ExportConcurrency,
		ResyncInterval: cfg.ExportResyncInterval,
	}, logger.Slog())
	if err := w.Start(ctx); err != nil {
		return err
	}

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.Slog())
		if err != nil {
			logger.Error("Failed to initialize AMQP client, relying on periodic resync", log.FieldError, err)
		} else {
			go func() {
				if err := amqpClient.ConsumeWithRetry(ctx, w.HandleLedgerChanged); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Message consumption stopped", log.FieldError, err)
				}
			}()
			logger.Info("Consuming ledger changes",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, relying on periodic resync")
	}

	<-ctx.Done()

	steps := []cli.ShutdownStep{{Name: "worker", Fn: w.Stop}}
	if amqpClient != nil {
		steps = append(steps, cli.ShutdownStep{Name: "amqp", Fn: func(context.Context) error {
			return amqpClient.Close()
		}})
	}
	return cli.GracefulShutdown(logger, shutdownTimeout, steps...)
}

// newExporter returns the Google Sheets exporter when a spreadsheet is
// configured, and an in-memory one otherwise.
func newExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.LedgerExporter, error) {
	sheetsLogger := logger.WithComponent(log.ComponentSheets).Slog()
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting in memory")
		return mem.New(sheetsLogger), nil
	}

	creds, err := gsheet.Credentials(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, creds)
	if err != nil {
		return nil, err
	}
	exporter, err := gsheet.NewExporter(svc, cfg.GoogleSpreadsheetID, sheetsLogger)
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return exporter, nil
}
