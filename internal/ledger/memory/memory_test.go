package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"wealthflow/internal/core"
	"wealthflow/internal/ledger"
)

func TestStoreCreateListDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, in := range []ledger.NewTransaction{
		{Amount: decimal.NewFromInt(100), Category: "Salary", Type: core.Income},
		{Amount: decimal.NewFromInt(30), Category: "Food", Type: core.Expense},
	} {
		if err := s.CreateTransaction(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	log, err := s.ListTransactions(ctx)
	if err != nil || len(log) != 2 {
		t.Fatalf("unexpected list: %v err=%v", log, err)
	}
	if log[0].ID != "2" || log[0].Category != "Food" || log[1].ID != "1" {
		t.Fatalf("expected newest first, got %+v", log)
	}

	sum, _ := s.GetSummary(ctx)
	if sum.TotalIncome.String() != "100" || sum.TotalExpenses.String() != "30" || sum.NetBalance.String() != "70" {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	if err := s.DeleteTransaction(ctx, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteTransaction(ctx, "404"); err != nil {
		t.Fatalf("delete unknown id should be a no-op, got %v", err)
	}
	log, _ = s.ListTransactions(ctx)
	if len(log) != 1 || log[0].ID != "2" {
		t.Fatalf("unexpected list after delete: %+v", log)
	}

	// ids are never reused
	_ = s.CreateTransaction(ctx, ledger.NewTransaction{Amount: decimal.NewFromInt(1), Category: "X", Type: core.Expense})
	log, _ = s.ListTransactions(ctx)
	if log[0].ID != "3" {
		t.Fatalf("expected fresh id 3, got %s", log[0].ID)
	}
}

func TestStoreRejectsInvalid(t *testing.T) {
	s := New()
	err := s.CreateTransaction(context.Background(), ledger.NewTransaction{Amount: decimal.NewFromInt(1), Type: core.Expense})
	if err == nil {
		t.Fatal("expected error for empty category")
	}
	if log, _ := s.ListTransactions(context.Background()); len(log) != 0 {
		t.Fatalf("invalid transaction should not be stored: %+v", log)
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	if s := NewFromFiles(dir); s == nil {
		t.Fatal("expected empty store when seed file missing")
	}

	content := "# type,amount,category\nincome,2500,Salary\n\nexpense,12.50,Food\nbogus line\nexpense,abc,Food\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_transactions.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s := NewFromFiles(dir)
	log, _ := s.ListTransactions(context.Background())
	if len(log) != 2 {
		t.Fatalf("expected 2 seeded transactions, got %+v", log)
	}
	if log[0].Category != "Food" || log[0].ID != "2" || log[1].Category != "Salary" {
		t.Fatalf("unexpected seed order: %+v", log)
	}
}
