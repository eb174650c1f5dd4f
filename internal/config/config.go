package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"wealthflow/internal/export"
	"wealthflow/internal/log"
)

const (
	BackendRemote = "remote"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port string

	// Ledger service
	LedgerBackend string
	LedgerBaseURL string
	LedgerTimeout time.Duration
	MemorySeedDir string
	SQLitePath    string

	// Logging
	LogLevel  string
	LogFormat string

	// Export
	ExportFilename string

	// AMQP (optional)
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
	AMQPQueue      string

	// Sheets mirror worker
	MirrorInterval time.Duration

	// Google Sheets export (optional)
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCredentialsJSON string
	GoogleCredentialsFile string
}

func Load() *Config {
	credsFile := getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	if credsFile == "" {
		credsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")
	}

	return &Config{
		Port: getEnv("PORT", "8081"),

		LedgerBackend: getEnv("LEDGER_BACKEND", BackendRemote),
		LedgerBaseURL: getEnv("LEDGER_BASE_URL", "http://localhost:8080"),
		LedgerTimeout: getEnvDuration("LEDGER_TIMEOUT", 7*time.Second),
		MemorySeedDir: getEnv("MEMORY_SEED_DIR", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/wealthflow.db"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		ExportFilename: getEnv("EXPORT_FILENAME", export.DefaultBaseName),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "wealthflow"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "transactions"),
		AMQPQueue:      getEnv("AMQP_QUEUE", "wealthflow.sheets-mirror"),

		MirrorInterval: getEnvDuration("MIRROR_INTERVAL", 15*time.Minute),

		GoogleSpreadsheetID:   strings.TrimSpace(getEnv("GOOGLE_SPREADSHEET_ID", "")),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", export.SheetName),
		GoogleCredentialsJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleCredentialsFile: credsFile,
	}
}

// EventsEnabled reports whether mutation events should be published.
func (c *Config) EventsEnabled() bool { return c.AMQPURL != "" }

// SheetsEnabled reports whether the Google Sheets export is configured.
func (c *Config) SheetsEnabled() bool { return c.GoogleSpreadsheetID != "" }

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate ledger backend
	switch c.LedgerBackend {
	case BackendRemote:
		if u, err := url.Parse(c.LedgerBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid ledger URL '%s': %v", c.LedgerBaseURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid ledger URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		} else if u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid ledger URL '%s': missing host", c.LedgerBaseURL))
		}
	case BackendMemory:
		if c.MemorySeedDir != "" {
			if info, err := os.Stat(c.MemorySeedDir); err != nil || !info.IsDir() {
				errors = append(errors, fmt.Sprintf("memory seed directory does not exist: %s", c.MemorySeedDir))
			}
		}
	case BackendSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			errors = append(errors, "SQLITE_PATH cannot be empty for the sqlite backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid ledger backend '%s': must be one of [%s %s %s]", c.LedgerBackend, BackendRemote, BackendMemory, BackendSQLite))
	}

	if c.LedgerTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid ledger timeout %v: must be at least 1 second", c.LedgerTimeout))
	} else if c.LedgerTimeout > 2*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid ledger timeout %v: must be at most 2 minutes", c.LedgerTimeout))
	}

	// Validate logging
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if strings.TrimSpace(c.ExportFilename) == "" || strings.ContainsAny(c.ExportFilename, `/\"`) {
		errors = append(errors, fmt.Sprintf("invalid export filename '%s'", c.ExportFilename))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MirrorInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at least 1 minute", c.MirrorInterval))
	}

	// Validate Google Sheets export if enabled
	if c.SheetsEnabled() {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		if c.GoogleCredentialsJSON == "" && c.GoogleCredentialsFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets export")
		}
		if c.GoogleCredentialsJSON == "" && c.GoogleCredentialsFile != "" {
			if _, err := os.Stat(c.GoogleCredentialsFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleCredentialsFile))
			}
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
