package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"wealthflow/internal/config"
	"wealthflow/internal/events"
	"wealthflow/internal/export/sheets"
	"wealthflow/internal/log"
	"wealthflow/internal/worker"
)

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Keep a Google Sheets copy of the ledger in step with transaction events",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.EventsEnabled() || !cfg.SheetsEnabled() {
			return errors.New("mirror needs AMQP_URL and GOOGLE_SPREADSHEET_ID")
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		return runMirror(cmd.Context(), cfg, logger)
	},
}

func runMirror(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	l, release, err := newLedger(cfg, logger)
	if err != nil {
		return err
	}
	defer release()
	sc, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	}, logger)
	if err != nil {
		return err
	}
	m := worker.NewMirror(l, sc, cfg.MirrorInterval, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Run(ctx) })
	g.Go(func() error {
		return events.Subscribe(ctx, events.ConsumerConfig{
			URL:        cfg.AMQPURL,
			Exchange:   cfg.AMQPExchange,
			RoutingKey: cfg.AMQPRoutingKey,
			Queue:      cfg.AMQPQueue,
		}, logger, m.HandleEvent)
	})

	logger.Info("Starting sheets mirror", "queue", cfg.AMQPQueue, "interval", cfg.MirrorInterval.String())
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	s := m.Stats()
	logger.Info("Sheets mirror stopped", "syncs", s.Syncs, "failures", s.Failures)
	return nil
}
