package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wealthflow/internal/dashboard"
	"wealthflow/internal/export"
	"wealthflow/internal/export/sheets"
	"wealthflow/internal/log"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full transaction log to csv, xlsx or Google Sheets",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
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
		txs := store.Transactions()
		logger = logger.WithComponent(log.ComponentExport)

		if format == export.FormatSheets {
			sc, err := sheets.New(cmd.Context(), sheets.Config{
				SpreadsheetID:   cfg.GoogleSpreadsheetID,
				SheetName:       cfg.GoogleSheetName,
				CredentialsJSON: cfg.GoogleCredentialsJSON,
				CredentialsFile: cfg.GoogleCredentialsFile,
			}, logger)
			if err != nil {
				return err
			}
			if err := sc.Export(cmd.Context(), txs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to spreadsheet %s\n", len(txs), cfg.GoogleSpreadsheetID)
			return nil
		}

		out := exportOut
		if out == "" {
			out = export.Filename(cfg.ExportFilename, format)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		if err := export.Write(f, format, txs); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Info("Export written", log.FieldFormat, string(format), log.FieldDestination, out, log.FieldCount, len(txs))
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d transactions to %s\n", len(txs), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv, xlsx or sheets")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default <EXPORT_FILENAME>.<format>)")
}
