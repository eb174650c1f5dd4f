package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"wealthflow/internal/config"
	"wealthflow/internal/ledger"
	"wealthflow/internal/ledger/memory"
	"wealthflow/internal/ledger/remote"
	"wealthflow/internal/ledger/sqlite"
	"wealthflow/internal/log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wealthflow",
	Short: "Personal finance dashboard backed by a ledger service",
	Long: `WealthFlow shows income, expenses and net balance from a ledger
service, lets you record and remove transactions, and exports the log
to CSV, XLSX or Google Sheets.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional outside local development.
		_ = godotenv.Load()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, summaryCmd, exportCmd, mirrorCmd)
}

// loadConfig reads and validates the environment.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	lc := log.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.LogFormat
	lc.Component = log.ComponentApp
	lc.Output = os.Stderr
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger, nil
}

// newLedger returns the configured backend and a func that releases it.
func newLedger(cfg *config.Config, logger *log.Logger) (ledger.Ledger, func(), error) {
	noop := func() {}
	switch cfg.LedgerBackend {
	case config.BackendMemory:
		var l *memory.Store
		if cfg.MemorySeedDir != "" {
			l = memory.NewFromFiles(cfg.MemorySeedDir)
		} else {
			l = memory.New()
		}
		logger.Info("Initialized memory ledger", "seed_dir", cfg.MemorySeedDir)
		return l, noop, nil
	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite ledger: %w", err)
		}
		logger.Info("Initialized SQLite ledger", "path", cfg.SQLitePath)
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Warn("Closing SQLite ledger failed", log.FieldError, err)
			}
		}, nil
	default:
		c, err := remote.New(cfg.LedgerBaseURL, remote.WithTimeout(cfg.LedgerTimeout))
		if err != nil {
			return nil, nil, fmt.Errorf("ledger client: %w", err)
		}
		logger.Info("Initialized remote ledger", "base_url", c.BaseURL(), "timeout", cfg.LedgerTimeout.String())
		return c, noop, nil
	}
}

const shutdownTimeout = 30 * time.Second
