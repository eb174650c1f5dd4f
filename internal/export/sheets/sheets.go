// Package sheets pushes the transaction log into a Google spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"wealthflow/internal/core"
	"wealthflow/internal/export"
	"wealthflow/internal/log"
)

var ErrNotConfigured = errors.New("google sheets export not configured")

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Enabled reports whether a spreadsheet has been configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.SpreadsheetID) != ""
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger
}

// New builds a client from service account credentials. Extra options are
// appended after the credentials, which lets tests point it elsewhere.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentExport)

	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = export.SheetName
	}

	clientOpts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	if len(opts) == 0 {
		creds, err := loadCredentials(cfg)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "Creating Google Sheets service", "credentials_size", len(creds))
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(creds))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		sheet:         sheet,
		logger:        logger,
	}, nil
}

// loadCredentials prefers inline JSON, then the file path.
func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(strings.TrimSpace(cfg.CredentialsFile))
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Export replaces the sheet contents with a header and the given log.
func (c *Client) Export(ctx context.Context, txs []core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:D", c.sheet)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	values := make([][]any, 0, len(txs)+1)
	header := make([]any, len(export.Header))
	for i, h := range export.Header {
		header[i] = h
	}
	values = append(values, header)
	for _, t := range txs {
		values = append(values, []any{t.ID.String(), t.Amount.InexactFloat64(), t.Category, string(t.Type)})
	}

	writeRange := fmt.Sprintf("%s!A1:D%d", c.sheet, len(values))
	vr := &gsheet.ValueRange{Range: writeRange, Values: values}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", writeRange, err)
	}

	c.logger.InfoContext(ctx, "Exported transactions to Google Sheets",
		log.FieldCount, len(txs),
		log.FieldDestination, c.sheet)
	return nil
}
