package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"wealthflow/internal/cache"
	"wealthflow/internal/config"
	"wealthflow/internal/dashboard"
	"wealthflow/internal/events"
	"wealthflow/internal/export/sheets"
	apphttp "wealthflow/internal/http"
	"wealthflow/internal/log"
)

const cacheCleanupInterval = 5 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	l, release, err := newLedger(cfg, logger)
	if err != nil {
		return err
	}
	defer release()

	storeOpts := []dashboard.Option{dashboard.WithLogger(logger)}
	if cfg.EventsEnabled() {
		pub, err := events.Dial(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, logger)
		if err != nil {
			// Events are optional; the dashboard works without them.
			logger.Warn("Event publisher unavailable", log.FieldError, err)
		} else {
			defer pub.Close()
			storeOpts = append(storeOpts, dashboard.WithNotifier(pub))
			logger.Info("Publishing transaction events", "exchange", cfg.AMQPExchange)
		}
	}
	store := dashboard.NewStore(l, storeOpts...)
	defer store.Close()

	caches := cache.NewManager()
	caches.Register(store.FilteredCache())
	caches.StartCleanup(cacheCleanupInterval)
	defer caches.Stop()

	opts := apphttp.Options{
		Store:          store,
		Logger:         logger,
		ExportBaseName: cfg.ExportFilename,
		LoadTimeout:    cfg.LedgerTimeout,
	}
	if cfg.SheetsEnabled() {
		sc, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		}, logger)
		if err != nil {
			logger.Warn("Google Sheets export disabled", log.FieldError, err)
		} else {
			opts.Sheets = sc
		}
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, opts)
	if err != nil {
		return err
	}

	loadCtx, cancel := context.WithTimeout(ctx, cfg.LedgerTimeout)
	if err := store.Load(loadCtx); err != nil {
		logger.Warn("Initial load failed, serving empty dashboard", log.FieldError, err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting wealthflow server", "port", cfg.Port, "backend", cfg.LedgerBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		return err
	}

	<-done
	logger.Info("Server stopped gracefully")
	return nil
}
