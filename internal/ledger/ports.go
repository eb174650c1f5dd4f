// Package ledger defines the ports the dashboard uses to reach the
// transaction ledger service.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"wealthflow/internal/core"
)

type (
	SummaryReader interface {
		// GetSummary returns the service-computed totals.
		GetSummary(ctx context.Context) (core.Summary, error)
	}

	// TransactionLister returns the full log, newest first.
	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		CreateTransaction(ctx context.Context, in NewTransaction) error
	}

	TransactionDeleter interface {
		DeleteTransaction(ctx context.Context, id core.TransactionID) error
	}

	// Ledger is the full surface of the ledger service.
	Ledger interface {
		SummaryReader
		TransactionLister
		TransactionWriter
		TransactionDeleter
	}
)

// NewTransaction is the payload of a create request. The service assigns the id.
type NewTransaction struct {
	Amount   decimal.Decimal
	Category string
	Type     core.TransactionType
}
