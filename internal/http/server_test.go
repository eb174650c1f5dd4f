package http

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"wealthflow/internal/core"
	"wealthflow/internal/dashboard"
	"wealthflow/internal/ledger"
	"wealthflow/internal/ledger/memory"
	"wealthflow/internal/middleware/trace"
)

type fakeSheets struct {
	got []core.Transaction
	err error
}

func (f *fakeSheets) Export(_ context.Context, txs []core.Transaction) error {
	f.got = txs
	return f.err
}

type downLedger struct{ ledger.Ledger }

func (downLedger) GetSummary(context.Context) (core.Summary, error) {
	return core.Summary{}, errors.New("connection refused")
}

func (downLedger) ListTransactions(context.Context) ([]core.Transaction, error) {
	return nil, errors.New("connection refused")
}

func seededLedger() *memory.Store {
	return memory.New(
		core.Transaction{ID: "1", Type: core.Income, Amount: decimal.NewFromInt(100), Category: "Salary"},
		core.Transaction{ID: "2", Type: core.Expense, Amount: decimal.NewFromInt(30), Category: "Food"},
	)
}

func newTestServer(t *testing.T, l ledger.Ledger, sheets SheetsExporter) *Server {
	t.Helper()
	opts := Options{Store: dashboard.NewStore(l)}
	if sheets != nil {
		opts.Sheets = sheets
	}
	srv, err := NewServer(":0", opts)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexRendersDashboard(t *testing.T) {
	srv := newTestServer(t, seededLedger(), nil)

	rr := do(t, srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Net Worth Trend", "$100.00", "$30.00", "$70.00", "15.5%", "8.2%", "+$100.00", "-$30.00"} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if strings.Contains(body, "Export to Sheets") {
		t.Error("sheets button should be hidden when not configured")
	}
	if rr.Header().Get("Content-Security-Policy") == "" || rr.Header().Get(trace.HeaderRequestID) == "" {
		t.Errorf("expected security and request id headers, got %v", rr.Header())
	}

	if rr := do(t, srv, http.MethodGet, "/nope", nil); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status=%d", rr.Code)
	}
}

func TestIndexServesRetainedStateWhenLedgerDown(t *testing.T) {
	srv := newTestServer(t, downLedger{}, nil)
	rr := do(t, srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Waiting for the ledger service") {
		t.Error("expected placeholder while nothing has loaded")
	}
}

func TestHistoryPartialFilters(t *testing.T) {
	srv := newTestServer(t, seededLedger(), nil)
	do(t, srv, http.MethodGet, "/", nil)

	rr := do(t, srv, http.MethodGet, "/ui/history?q=SAL", nil)
	body := rr.Body.String()
	if !strings.Contains(body, "Salary") || strings.Contains(body, "Food") {
		t.Fatalf("unexpected filtered history: %s", body)
	}

	rr = do(t, srv, http.MethodGet, "/ui/history?q=rent", nil)
	if !strings.Contains(rr.Body.String(), `No transactions match`) {
		t.Fatalf("expected empty-match message: %s", rr.Body.String())
	}
}

func TestViewJSON(t *testing.T) {
	srv := newTestServer(t, seededLedger(), nil)

	rr := do(t, srv, http.MethodGet, "/api/view?q=food&refresh=1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var v struct {
		Filtered []core.Transaction   `json:"filtered"`
		Series   []core.BalancePoint  `json:"series"`
		Category []core.CategoryTotal `json:"categories"`
		Growth   core.Growth          `json:"growth"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(v.Filtered) != 1 || v.Filtered[0].Category != "Food" {
		t.Errorf("unexpected filtered %+v", v.Filtered)
	}
	if len(v.Series) != 2 || v.Series[0].Category != "Salary" || !v.Series[1].Balance.Equal(decimal.NewFromInt(70)) {
		t.Errorf("unexpected series %+v", v.Series)
	}
	if len(v.Category) != 1 || v.Growth.IncomePct != 15.5 {
		t.Errorf("unexpected aggregates %+v %+v", v.Category, v.Growth)
	}
}

func TestCreateTransaction(t *testing.T) {
	l := seededLedger()
	srv := newTestServer(t, l, nil)

	rr := do(t, srv, http.MethodPost, "/transactions", url.Values{"amount": {"abc"}, "category": {"Books"}, "type": {"expense"}})
	if rr.Code != http.StatusUnprocessableEntity || !strings.Contains(rr.Body.String(), "Invalid amount") {
		t.Fatalf("expected 422 for bad amount, got %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/transactions", url.Values{"amount": {"5"}, "category": {"Books"}, "type": {"gift"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad type, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/transactions", url.Values{"amount": {"5"}, "category": {"  "}, "type": {"expense"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty category, got %d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/transactions", url.Values{"amount": {"12.5"}, "category": {"Books"}, "type": {"expense"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), EventTransactionsChanged) {
		t.Errorf("missing HX-Trigger, got %q", rr.Header().Get("HX-Trigger"))
	}

	txs, _ := l.ListTransactions(context.Background())
	if len(txs) != 3 || txs[0].Category != "Books" {
		t.Fatalf("expected new transaction first, got %+v", txs)
	}
	if v := srv.store.View(); len(v.Transactions) != 3 {
		t.Fatalf("store should have reloaded, has %d", len(v.Transactions))
	}

	long := strings.Repeat("Ü", 150)
	rr = do(t, srv, http.MethodPost, "/transactions", url.Values{"amount": {"1"}, "category": {long}, "type": {"income"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("long category status=%d", rr.Code)
	}
	txs, _ = l.ListTransactions(context.Background())
	if txs[0].Category != long {
		t.Fatalf("category should be sent as typed, got %d runes", len([]rune(txs[0].Category)))
	}

	if rr := do(t, srv, http.MethodGet, "/transactions", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /transactions status=%d", rr.Code)
	}
}

func TestDeleteFlow(t *testing.T) {
	l := seededLedger()
	srv := newTestServer(t, l, nil)
	do(t, srv, http.MethodGet, "/", nil)

	rr := do(t, srv, http.MethodGet, "/ui/confirm-delete?id=2", nil)
	if !strings.Contains(rr.Body.String(), dashboard.DeletePrompt) {
		t.Fatalf("confirm partial missing prompt: %s", rr.Body.String())
	}
	if rr := do(t, srv, http.MethodGet, "/ui/confirm-delete", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("missing id status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/transactions/delete", url.Values{"id": {"2"}, "confirm": {"no"}})
	if rr.Code != http.StatusOK || rr.Header().Get("HX-Trigger") != "" {
		t.Fatalf("declined delete should be a quiet 200, got %d %v", rr.Code, rr.Header())
	}
	if txs, _ := l.ListTransactions(context.Background()); len(txs) != 2 {
		t.Fatal("declined delete removed a transaction")
	}

	rr = do(t, srv, http.MethodPost, "/transactions/delete", url.Values{"id": {"2"}, "confirm": {"yes"}})
	if rr.Code != http.StatusOK || !strings.Contains(rr.Header().Get("HX-Trigger"), EventTransactionsChanged) {
		t.Fatalf("confirmed delete failed: %d %v", rr.Code, rr.Header())
	}
	txs, _ := l.ListTransactions(context.Background())
	if len(txs) != 1 || txs[0].ID != "1" {
		t.Fatalf("unexpected log after delete %+v", txs)
	}
}

func TestDashboardPartialIncludesHistory(t *testing.T) {
	srv := newTestServer(t, seededLedger(), nil)
	rr := do(t, srv, http.MethodGet, "/ui/dashboard?q=food", nil)
	body := rr.Body.String()
	if !strings.Contains(body, `id="dashboard"`) || !strings.Contains(body, `hx-swap-oob="true"`) {
		t.Fatalf("expected dashboard with out-of-band history: %s", body)
	}
}

func TestExportCSVIgnoresFilter(t *testing.T) {
	srv := newTestServer(t, seededLedger(), nil)
	do(t, srv, http.MethodGet, "/?q=food", nil)

	rr := do(t, srv, http.MethodGet, "/export.csv?q=food", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "WealthFlow_Export.csv") {
		t.Errorf("unexpected disposition %q", cd)
	}
	records, err := csv.NewReader(rr.Body).ReadAll()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if len(records) != 3 || strings.Join(records[0], ",") != "id,amount,category,type" {
		t.Fatalf("unexpected csv %v", records)
	}

	rr = do(t, srv, http.MethodGet, "/export.xlsx", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Header().Get("Content-Type"), "spreadsheetml") {
		t.Fatalf("xlsx export failed: %d %v", rr.Code, rr.Header())
	}
}

func TestExportSheets(t *testing.T) {
	srv := newTestServer(t, seededLedger(), nil)
	if rr := do(t, srv, http.MethodPost, "/export/sheets", url.Values{}); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without sheets, got %d", rr.Code)
	}

	fs := &fakeSheets{}
	srv = newTestServer(t, seededLedger(), fs)
	do(t, srv, http.MethodGet, "/", nil)
	rr := do(t, srv, http.MethodPost, "/export/sheets", url.Values{})
	if rr.Code != http.StatusOK || len(fs.got) != 2 {
		t.Fatalf("sheets export failed: %d, exported %d", rr.Code, len(fs.got))
	}

	fs.err = errors.New("quota")
	if rr := do(t, srv, http.MethodPost, "/export/sheets", url.Values{}); rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 on export failure, got %d", rr.Code)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, downLedger{}, nil)
	if rr := do(t, srv, http.MethodGet, "/healthz", nil); rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}
	rr := do(t, srv, http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusServiceUnavailable || !strings.Contains(rr.Body.String(), "connection refused") {
		t.Fatalf("expected not ready, got %d %s", rr.Code, rr.Body.String())
	}

	srv = newTestServer(t, seededLedger(), nil)
	if rr := do(t, srv, http.MethodGet, "/readyz", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected ready after the readiness load, got %d", rr.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(t, seededLedger(), nil)
	rr := do(t, srv, http.MethodGet, "/static/app.css", nil)
	if rr.Code != http.StatusOK || rr.Header().Get("Cache-Control") == "" {
		t.Fatalf("static asset failed: %d %v", rr.Code, rr.Header())
	}
}
