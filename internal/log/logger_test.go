package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %v, got %v (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Output: &buf}).WithComponent(ComponentDashboard)
	l.Info("loaded", FieldCount, 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected json output: %v (%s)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentDashboard || rec[FieldCount] != float64(3) {
		t.Fatalf("unexpected record: %v", rec)
	}

	buf.Reset()
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info level: %s", buf.String())
	}
}

func TestMiddlewareAndFromContext(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}

	var buf bytes.Buffer
	base := New(Config{Output: &buf})
	var seen *Logger
	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = FromContext(r.Context())
			seen.Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == nil || !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("expected request id in log output, got %q", buf.String())
	}
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().WithComponent(ComponentExport).WithOperation(OpExport).WithError(nil).
		WithTransaction("", "expense", "Food", "30")
	if _, ok := f[FieldError]; ok {
		t.Fatal("nil error should not add a field")
	}
	if _, ok := f[FieldTxID]; ok {
		t.Fatal("empty id should be omitted")
	}
	if len(f.ToSlice()) != len(f)*2 {
		t.Fatal("slice should hold key/value pairs")
	}
}
