package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"wealthflow/internal/dashboard"
	"wealthflow/internal/terminal"
)

var summaryFilter string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print totals, balance trend and history to the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		l, release, err := newLedger(cfg, logger)
		if err != nil {
			return err
		}
		defer release()

		store := dashboard.NewStore(l, dashboard.WithLogger(logger))
		defer store.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.LedgerTimeout)
		defer cancel()
		if err := store.Load(ctx); err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}

		fmt.Fprint(cmd.OutOrStdout(), terminal.Render(store.SetFilter(summaryFilter)))
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryFilter, "filter", "f", "", "only show history rows whose category contains this text")
}
