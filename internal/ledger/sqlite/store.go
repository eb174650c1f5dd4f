// Package sqlite is a file-backed ledger for running the dashboard without
// the ledger service.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"wealthflow/internal/core"
	"wealthflow/internal/ledger"
)

type Store struct {
	db *sql.DB
}

// Open creates the database file if needed and migrates it.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps modernc from returning SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetSummary sums in Go; amounts are stored as decimal text.
func (s *Store) GetSummary(ctx context.Context) (core.Summary, error) {
	txs, err := s.ListTransactions(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	return core.Totals(txs), nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, amount, category FROM transactions ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			id       int64
			typ      string
			amount   string
			category string
		)
		if err := rows.Scan(&id, &typ, &amount, &category); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: bad amount %q: %w", id, amount, err)
		}
		out = append(out, core.Transaction{
			ID:       core.TransactionID(strconv.FormatInt(id, 10)),
			Type:     core.TransactionType(typ),
			Amount:   d,
			Category: category,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (s *Store) CreateTransaction(ctx context.Context, in ledger.NewTransaction) error {
	if in.Category == "" {
		return core.ErrEmptyCategory
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidType, in.Type)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (type, amount, category) VALUES (?, ?, ?)`,
		string(in.Type), in.Amount.String(), in.Category)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// DeleteTransaction ignores ids that are not stored or not numeric.
func (s *Store) DeleteTransaction(ctx context.Context, id core.TransactionID) error {
	raw := strings.TrimSpace(string(id))
	if raw == "" {
		return core.ErrEmptyID
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, n); err != nil {
		return fmt.Errorf("delete transaction %d: %w", n, err)
	}
	return nil
}
