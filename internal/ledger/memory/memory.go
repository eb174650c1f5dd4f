package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"wealthflow/internal/core"
	"wealthflow/internal/ledger"
)

var _ ledger.Ledger = (*Store)(nil)

// Store keeps the log in memory, oldest first, and serves it newest first
// like the ledger service does.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Transaction
}

func New(seed ...core.Transaction) *Store {
	s := &Store{nextID: 1}
	for _, t := range seed {
		if t.ID == "" {
			t.ID = core.TransactionID(strconv.FormatInt(s.nextID, 10))
		}
		if n, err := strconv.ParseInt(string(t.ID), 10, 64); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
		s.items = append(s.items, t)
	}
	return s
}

// NewFromFiles seeds the store from base/seed_transactions.txt, one
// "type,amount,category" line per transaction, oldest first.
// Missing or unreadable files give an empty store.
func NewFromFiles(base string) *Store {
	return New(readSeed(filepath.Join(base, "seed_transactions.txt"))...)
}

func (s *Store) GetSummary(_ context.Context) (core.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Totals(s.items), nil
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.items))
	for i := len(s.items) - 1; i >= 0; i-- {
		out = append(out, s.items[i])
	}
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, in ledger.NewTransaction) error {
	t := core.Transaction{Amount: in.Amount, Category: in.Category, Type: in.Type}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = core.TransactionID(strconv.FormatInt(s.nextID, 10))
	if err := t.Validate(); err != nil {
		return err
	}
	s.nextID++
	s.items = append(s.items, t)
	return nil
}

// DeleteTransaction removes the transaction with the given id. Unknown ids
// are ignored, matching the service which answers 204 either way.
func (s *Store) DeleteTransaction(_ context.Context, id core.TransactionID) error {
	if strings.TrimSpace(string(id)) == "" {
		return core.ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.items {
		if t.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return nil
}

func readSeed(path string) []core.Transaction {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Transaction
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		t, err := parseSeedLine(line)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

func parseSeedLine(line string) (core.Transaction, error) {
	parts := strings.SplitN(line, ",", 3)
	if len(parts) != 3 {
		return core.Transaction{}, fmt.Errorf("seed line %q: want type,amount,category", line)
	}
	typ, err := core.ParseTransactionType(parts[0])
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(parts[1])
	if err != nil {
		return core.Transaction{}, err
	}
	category := strings.TrimSpace(parts[2])
	if category == "" {
		return core.Transaction{}, core.ErrEmptyCategory
	}
	return core.Transaction{Amount: amount, Category: category, Type: typ}, nil
}
