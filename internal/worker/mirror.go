// Package worker keeps a Google Sheets copy of the ledger in step with
// transaction events.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wealthflow/internal/core"
	"wealthflow/internal/events"
	"wealthflow/internal/log"
)

// Lister reads the full transaction log.
type Lister interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
}

// Exporter replaces the spreadsheet contents with txs.
type Exporter interface {
	Export(ctx context.Context, txs []core.Transaction) error
}

type Stats struct {
	Syncs     int
	Failures  int
	LastSync  time.Time
	LastCount int
}

// Mirror rewrites the whole sheet on every sync, so replayed or
// out-of-order events converge on the same result.
type Mirror struct {
	ledger   Lister
	sheets   Exporter
	logger   *log.Logger
	interval time.Duration
	now      func() time.Time

	// syncMu serializes exports; mu guards stats.
	syncMu sync.Mutex
	mu     sync.Mutex
	stats  Stats
}

func NewMirror(l Lister, e Exporter, interval time.Duration, logger *log.Logger) *Mirror {
	if logger == nil {
		logger = log.Discard()
	}
	return &Mirror{
		ledger:   l,
		sheets:   e,
		logger:   logger.WithComponent(log.ComponentMirror),
		interval: interval,
		now:      time.Now,
	}
}

// HandleEvent is an events.Handler. A failed sync requeues the event.
func (m *Mirror) HandleEvent(ctx context.Context, e *events.TransactionEvent) error {
	m.logger.InfoContext(ctx, "Processing transaction event",
		"kind", e.Kind,
		log.FieldTxID, e.ID.String())
	return m.Sync(ctx)
}

func (m *Mirror) Sync(ctx context.Context) error {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	txs, err := m.ledger.ListTransactions(ctx)
	if err != nil {
		m.recordFailure()
		return fmt.Errorf("list transactions: %w", err)
	}
	if err := m.sheets.Export(ctx, txs); err != nil {
		m.recordFailure()
		return fmt.Errorf("export to sheets: %w", err)
	}

	m.mu.Lock()
	m.stats.Syncs++
	m.stats.LastSync = m.now()
	m.stats.LastCount = len(txs)
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "Mirrored ledger to sheets", log.FieldCount, len(txs))
	return nil
}

func (m *Mirror) recordFailure() {
	m.mu.Lock()
	m.stats.Failures++
	m.mu.Unlock()
}

func (m *Mirror) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Run syncs once at startup and then every interval until ctx ends.
// The periodic pass catches events lost while the worker was down.
func (m *Mirror) Run(ctx context.Context) error {
	if err := m.Sync(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Startup sync failed", log.FieldError, err)
	}
	if m.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.Sync(ctx); err != nil {
				m.logger.ErrorContext(ctx, "Periodic sync failed", log.FieldError, err)
			}
		}
	}
}
