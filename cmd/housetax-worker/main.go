package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"housetax/internal/amqp"
	"housetax/internal/config"
	"housetax/internal/log"
	"housetax/internal/sheets"
	gsheet "housetax/internal/sheets/google"
	mem "housetax/internal/sheets/memory"
	"housetax/internal/storage"
	"housetax/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	journal, err := storage.NewJournal(cfg.JournalDBPath)
	if err != nil {
		logger.Error("Failed to open collection journal",
			log.FieldError, err, "path", cfg.JournalDBPath)
		os.Exit(1)
	}
	defer journal.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		payments   sheets.PaymentWriter
		households sheets.HouseholdWriter
	)
	switch cfg.DataBackend {
	case "sheets":
		cli, err := gsheet.New(ctx, cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		payments, households = cli, cli
		logger.Info("Google Sheets backend initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		store := mem.New()
		payments, households = store, store
		logger.Info("Memory backend initialized")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(journal, payments, households, cfg.SyncBatchSize)

	// Catch up on entries journalled while the worker was down.
	if err := syncWorker.ProcessPending(ctx); err != nil {
		logger.Error("Startup sync sweep failed", log.FieldError, err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeSync(ctx, func(msg *amqp.SyncMessage) error {
			return syncWorker.HandleSyncMessage(ctx, msg)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// Periodic sweep picks up entries whose sync message was lost.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := syncWorker.ProcessPending(ctx); err != nil {
					logger.Error("Periodic sync failed", log.FieldError, err)
				}
			}
		}
	})

	logger.Info("Sync worker started",
		log.FieldOperation, log.OpStartup,
		"queue", cfg.AMQPQueue,
		"interval", cfg.SyncInterval.String())

	if err := g.Wait(); err != nil {
		logger.Error("Sync worker stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Sync worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}
