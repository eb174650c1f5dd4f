package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"wealthflow/internal/core"
	"wealthflow/internal/ledger"
)

type Kind string

const (
	KindCreated Kind = "created"
	KindDeleted Kind = "deleted"
)

// TransactionEvent announces a mutation the ledger accepted. Created
// events carry the submitted fields; the ledger does not return the new id.
type TransactionEvent struct {
	Kind      Kind                 `json:"kind"`
	ID        core.TransactionID   `json:"id,omitempty"`
	Category  string               `json:"category,omitempty"`
	Type      core.TransactionType `json:"type,omitempty"`
	Amount    *decimal.Decimal     `json:"amount,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

func NewCreatedEvent(in ledger.NewTransaction, at time.Time) *TransactionEvent {
	amount := in.Amount
	return &TransactionEvent{
		Kind:      KindCreated,
		Category:  in.Category,
		Type:      in.Type,
		Amount:    &amount,
		Timestamp: at,
	}
}

func NewDeletedEvent(id core.TransactionID, at time.Time) *TransactionEvent {
	return &TransactionEvent{Kind: KindDeleted, ID: id, Timestamp: at}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
