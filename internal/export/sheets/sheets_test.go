package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"wealthflow/internal/core"
)

type recordedCall struct {
	method string
	path   string
	body   map[string]any
}

func newFakeSheetsServer(t *testing.T) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recordedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		calls = append(calls, recordedCall{method: r.Method, path: r.URL.Path, body: body})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestExportClearsThenWrites(t *testing.T) {
	srv, calls := newFakeSheetsServer(t)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-123"}, nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	txs := []core.Transaction{
		{ID: "2", Amount: decimal.NewFromInt(30), Category: "Food", Type: core.Expense},
		{ID: "1", Amount: decimal.NewFromInt(100), Category: "Salary", Type: core.Income},
	}
	require.NoError(t, c.Export(context.Background(), txs))

	require.Len(t, *calls, 2)
	clearCall, update := (*calls)[0], (*calls)[1]

	assert.Equal(t, http.MethodPost, clearCall.method)
	assert.True(t, strings.HasSuffix(clearCall.path, ":clear"), clearCall.path)
	assert.Contains(t, clearCall.path, "sheet-123")

	assert.Equal(t, http.MethodPut, update.method)
	values, ok := update.body["values"].([]any)
	require.True(t, ok, "expected values in update body: %v", update.body)
	require.Len(t, values, 3)
	assert.Equal(t, []any{"id", "amount", "category", "type"}, values[0])
	assert.Equal(t, []any{"2", float64(30), "Food", "expense"}, values[1])
}

func TestNewRequiresConfiguration(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(context.Background(), Config{SpreadsheetID: "x"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestLoadCredentials(t *testing.T) {
	got, err := loadCredentials(Config{CredentialsJSON: `{"type":"service_account"}`, CredentialsFile: "/nope"})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, string(got))

	path := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"k":1}`), 0o600))
	got, err = loadCredentials(Config{CredentialsFile: path})
	require.NoError(t, err)
	assert.Equal(t, `{"k":1}`, string(got))

	_, err = loadCredentials(Config{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}
