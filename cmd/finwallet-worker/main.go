package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finwallet/internal/amqp"
	"finwallet/internal/backend"
	"finwallet/internal/cache"
	"finwallet/internal/cli"
	"finwallet/internal/config"
	"finwallet/internal/log"
	"finwallet/internal/remote/google"
	"finwallet/internal/worker"
)

const (
	shutdownTimeout = 30 * time.Second
	sweepInterval   = 5 * time.Minute
)

func main() {
	cli.LoadEnvFile()

	boot := cli.SetupLogger(log.ComponentWorker, "info")
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(log.ComponentWorker, cfg.LogLevel)

	logger.Info("Starting finwallet-worker",
		"backend", cfg.SyncBackend,
		"schedule", cfg.RecurringSchedule,
		"sheets", cfg.SheetsEnabled())

	if err := run(logger, cfg); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(logger *log.Logger, cfg *config.Config) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Cleanup failed", "error", err)
		}
	}()
	svc := res.Services

	// The processor is stopped after the group drains.
	ctx := cli.GracefulShutdown(logger, shutdownTimeout, nil)

	scheduler, err := worker.NewRecurringScheduler(cfg.RecurringSchedule, svc.Recurring)
	if err != nil {
		return err
	}

	janitor := cache.NewJanitor()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.SheetsEnabled() && cfg.AMQPURL != "" {
		consumer, err := newSheetsConsumer(ctx, logger, cfg, janitor)
		if err != nil {
			return err
		}
		defer consumer.client.Close()
		g.Go(func() error {
			err := consumer.client.ConsumeMutations(ctx, consumer.worker.HandleMutation)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("Google Sheets sink disabled")
	}

	if svc.Processor != nil {
		if err := svc.Processor.Start(ctx); err != nil {
			return err
		}
	} else {
		logger.Info("Local-only mode, outbox replay disabled")
	}

	g.Go(func() error { return scheduler.Run(ctx) })
	g.Go(func() error { return janitor.Run(ctx, sweepInterval) })

	err = g.Wait()
	if svc.Processor != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if stopErr := svc.Processor.Stop(stopCtx); stopErr != nil {
			logger.Warn("Sync processor did not stop cleanly", "error", stopErr)
		}
	}
	return err
}

type sheetsConsumer struct {
	client *amqp.Client
	worker *worker.SyncWorker
}

// newSheetsConsumer wires the broker queue into the spreadsheet.
func newSheetsConsumer(ctx context.Context, logger *log.Logger, cfg *config.Config, janitor *cache.Janitor) (*sheetsConsumer, error) {
	creds, err := google.Credentials(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		return nil, err
	}
	sheets, err := google.New(ctx, cfg.GoogleSpreadsheetID, creds)
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	w := worker.NewSyncWorker(sheets)
	if err := w.StartupCheck(ctx); err != nil {
		// Headers are retried lazily by the upserts.
		logger.Error("Startup sheet check failed", "error", err)
	}
	janitor.Register(sheets.Rows())
	janitor.Register(w.Applied())

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, err
	}
	return &sheetsConsumer{client: client, worker: w}, nil
}
