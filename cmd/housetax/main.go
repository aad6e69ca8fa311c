package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"housetax/internal/amqp"
	"housetax/internal/config"
	apphttp "housetax/internal/http"
	"housetax/internal/loader"
	"housetax/internal/log"
	"housetax/internal/merge"
	"housetax/internal/registry"
	"housetax/internal/services"
	gsheet "housetax/internal/sheets/google"
	"housetax/internal/storage"
)

func main() {
	// .env is for local development; absence is fine in containers.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	var (
		regs *loader.Registers
		err  error
	)
	switch cfg.DataBackend {
	case "sheets":
		cli, cerr := gsheet.New(context.Background(), cfg)
		if cerr != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, cerr)
			os.Exit(1)
		}
		regs, err = cli.LoadRegisters(context.Background())
		if err != nil {
			logger.Error("Failed to load registers from spreadsheet", log.FieldError, err,
				"spreadsheet_id", cfg.GoogleSpreadsheetID)
			os.Exit(1)
		}
	default:
		regs, err = loader.LoadDir(cfg.SeedDir)
		if err != nil {
			logger.Error("Failed to load register files", log.FieldError, err, "dir", cfg.SeedDir)
			os.Exit(1)
		}
	}
	households := merge.Build(regs)
	users := merge.Users(regs.Users)
	reg := registry.New(households, users)
	logger.Info("Household ledger built",
		log.FieldOperation, log.OpLoad,
		"households", len(households),
		"users", len(users))

	// The journal is the durable half of the local-first pipeline. Without
	// it payments still commit in memory, so a failure only degrades sync.
	var journal services.Journal
	j, err := storage.NewJournal(cfg.JournalDBPath)
	if err != nil {
		logger.Error("Failed to open collection journal, running local-only",
			log.FieldError, err, "path", cfg.JournalDBPath)
	} else {
		defer j.Close()
		journal = j
	}

	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sync messages disabled", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	tax := services.NewTaxService(reg, journal, publisher, logger.WithComponent(log.ComponentTax))
	srv := apphttp.NewServer(":"+cfg.Port, reg, tax, logger.WithComponent(log.ComponentHTTP))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received",
			log.FieldOperation, log.OpShutdown, "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting housetax server",
		log.FieldOperation, log.OpStartup, "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
