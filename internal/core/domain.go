package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// TransactionID is the opaque identifier assigned by the ledger service.
	// The service currently hands out integers; strings are accepted as well.
	TransactionID string

	Transaction struct {
		ID       TransactionID   `json:"id"`
		Amount   decimal.Decimal `json:"amount"`
		Category string          `json:"category"`
		Type     TransactionType `json:"type"`
	}

	// Summary is the totals snapshot computed by the ledger service.
	Summary struct {
		TotalIncome   decimal.Decimal `json:"total_income"`
		TotalExpenses decimal.Decimal `json:"total_expenses"`
		NetBalance    decimal.Decimal `json:"net_balance"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyID       = errors.New("empty transaction id")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType accepts "income" or "expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

func (id TransactionID) String() string { return string(id) }

func (id *TransactionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = TransactionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("transaction id: %w", err)
	}
	*id = TransactionID(n.String())
	return nil
}

// MarshalJSON keeps canonical integer ids numeric so they round-trip
// unchanged. Anything else, "007" or "+5" included, is quoted.
func (id TransactionID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Signed returns the amount with the sign it contributes to a balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

// Validate checks the invariants every ingested transaction must satisfy.
// Amounts are not range checked: the service accepts whatever was submitted.
func (t Transaction) Validate() error {
	if strings.TrimSpace(string(t.ID)) == "" {
		return ErrEmptyID
	}
	if t.Category == "" {
		return ErrEmptyCategory
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	return nil
}

// ValidateLog validates every entry and reports the first offending position.
func ValidateLog(log []Transaction) error {
	for i, t := range log {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transaction %d (id=%s): %w", i, t.ID, err)
		}
	}
	return nil
}
