package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wealthflow/internal/core"
	"wealthflow/internal/ledger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewValidatesBaseURL(t *testing.T) {
	for _, bad := range []string{"ftp://x", "http://", "::not a url"} {
		if _, err := New(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
	c, err := New("")
	if err != nil || c.BaseURL() != DefaultBaseURL {
		t.Fatalf("expected default base url, got %v (err=%v)", c, err)
	}
	c, _ = New("http://ledger.local/api/")
	if c.BaseURL() != "http://ledger.local/api" {
		t.Fatalf("trailing slash should be trimmed, got %s", c.BaseURL())
	}
}

func TestGetSummary(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/summary" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"total_income":100,"total_expenses":30.5,"net_balance":69.5}`)
	})
	s, err := c.GetSummary(context.Background())
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if s.TotalIncome.String() != "100" || s.TotalExpenses.String() != "30.5" || s.NetBalance.String() != "69.5" {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestListTransactions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":2,"amount":30,"category":"Food","type":"expense"},{"id":1,"amount":100,"category":"Salary","type":"income"}]`)
	})
	log, err := c.ListTransactions(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(log) != 2 || log[0].ID != "2" || log[1].Type != core.Income {
		t.Fatalf("unexpected log: %+v", log)
	}
}

func TestListTransactionsNullBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "null")
	})
	log, err := c.ListTransactions(context.Background())
	if err != nil || log == nil || len(log) != 0 {
		t.Fatalf("expected empty log, got %v (err=%v)", log, err)
	}
}

func TestListTransactionsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":         `<html>`,
		"missing category": `[{"id":1,"amount":5,"type":"expense"}]`,
		"unknown type":     `[{"id":1,"amount":5,"category":"X","type":"transfer"}]`,
		"empty body":       ``,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})
			if _, err := c.ListTransactions(context.Background()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCreateTransaction(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transactions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})
	err := c.CreateTransaction(context.Background(), ledger.NewTransaction{
		Amount:   decimal.RequireFromString("12.50"),
		Category: "Food",
		Type:     core.Expense,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// The service decodes amount into a float, so it must be a JSON number.
	if amt, ok := got["amount"].(float64); !ok || amt != 12.5 {
		t.Fatalf("amount should be a JSON number, got %#v", got["amount"])
	}
	if got["category"] != "Food" || got["type"] != "expense" {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestDeleteTransaction(t *testing.T) {
	var query string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/transactions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		query = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	})
	if err := c.DeleteTransaction(context.Background(), "42"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if query != "id=42" {
		t.Fatalf("unexpected query %q", query)
	}
	if err := c.DeleteTransaction(context.Background(), ""); !errors.Is(err, core.ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}
}

func TestStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Delete failed", http.StatusInternalServerError)
	})
	err := c.DeleteTransaction(context.Background(), "1")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusInternalServerError || se.Op != "delete transaction" || !strings.Contains(se.Body, "Delete failed") {
		t.Fatalf("unexpected status error: %+v", se)
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, _ := New(srv.URL, WithHTTPClient(srv.Client()), WithTimeout(50*time.Millisecond))
	if _, err := c.GetSummary(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
