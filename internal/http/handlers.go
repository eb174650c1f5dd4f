package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wealthflow/internal/core"
	"wealthflow/internal/dashboard"
	"wealthflow/internal/export"
	"wealthflow/internal/log"
	"wealthflow/internal/middleware/security"
)

type pageData struct {
	Filter        string
	Summary       core.Summary
	Growth        core.Growth
	Area          areaChart
	Donut         donutChart
	Rows          []historyRow
	Loaded        bool
	LoadedAt      time.Time
	SheetsEnabled bool
}

type confirmData struct {
	ID     string
	Prompt string
	Filter string
}

func (s *Server) newPageData(v dashboard.View) pageData {
	return pageData{
		Filter:        v.Filter,
		Summary:       v.Summary,
		Growth:        v.Growth,
		Area:          buildAreaChart(v.Series),
		Donut:         buildDonutChart(v.Categories),
		Rows:          historyRows(v.Filtered),
		Loaded:        v.Loaded(),
		LoadedAt:      v.LoadedAt,
		SheetsEnabled: s.sheets != nil,
	}
}

// refresh reloads the store. A failure is logged by the store and the
// previous state keeps being served.
func (s *Server) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()
	_ = s.store.Load(ctx)
}

func filterTerm(r *http.Request) string {
	return r.URL.Query().Get("q")
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			"template", name, log.FieldError, err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.refresh(r.Context())
	s.render(w, r, "index.html", s.newPageData(s.store.ViewFor(filterTerm(r))))
}

// handleDashboardPartial re-renders cards, charts and history after a mutation.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	s.refresh(r.Context())
	s.render(w, r, "dashboard-refresh", s.newPageData(s.store.ViewFor(filterTerm(r))))
}

// handleHistoryPartial filters the already loaded log; it does not refetch.
func (s *Server) handleHistoryPartial(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "history", s.newPageData(s.store.ViewFor(filterTerm(r))))
}

func (s *Server) handleViewJSON(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("refresh") == "1" {
		s.refresh(r.Context())
	}
	w.Header().Set("Content-Type", "application/json")
	security.NoStore(w)
	if err := json.NewEncoder(w).Encode(s.store.ViewFor(filterTerm(r))); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Encode view failed", log.FieldError, err)
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		logger.WarnContext(ctx, "Parse form error", log.FieldError, err)
		BadRequestError("Invalid request").Write(w)
		return
	}

	amount := strings.TrimSpace(r.PostForm.Get("amount"))
	category := sanitizeInput(r.PostForm.Get("category"))
	typ, err := core.ParseTransactionType(r.PostForm.Get("type"))
	if err != nil {
		UnprocessableEntityError("Invalid transaction type").Write(w)
		return
	}
	if category == "" {
		UnprocessableEntityError("Category is required").Write(w)
		return
	}

	err = s.store.Submit(ctx, amount, category, typ)
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	case err != nil:
		// Already logged by the store; the form stays as it was.
		NewHTMXResponse().Status(http.StatusNoContent).Write(w)
		return
	}

	logger.InfoContext(ctx, "Transaction submitted", log.NewFields().
		WithOperation(log.OpCreate).
		WithTransaction("", string(typ), category, amount).
		ToSlice()...)

	SuccessResponse("Saved").
		TriggerTransactionsChanged("created").
		TriggerFormReset().
		Write(w)
}

func (s *Server) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		BadRequestError("Missing transaction id").Write(w)
		return
	}
	s.render(w, r, "confirm", confirmData{ID: id, Prompt: dashboard.DeletePrompt, Filter: filterTerm(r)})
}

// handleDeleteTransaction deletes only when confirm=yes was posted.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request").Write(w)
		return
	}

	id := core.TransactionID(strings.TrimSpace(r.PostForm.Get("id")))
	answer := r.PostForm.Get("confirm")
	removed, err := s.store.Remove(ctx, id, dashboard.ConfirmFunc(func(context.Context, string) bool {
		return answer == "yes"
	}))
	switch {
	case errors.Is(err, core.ErrEmptyID):
		BadRequestError("Missing transaction id").Write(w)
		return
	case err != nil:
		NewHTMXResponse().Status(http.StatusNoContent).Write(w)
		return
	case !removed:
		NewHTMXResponse().BodyHTML("").Write(w)
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "Transaction removed",
		log.FieldOperation, log.OpDelete, log.FieldTxID, id.String())
	NewHTMXResponse().
		BodyHTML("").
		TriggerTransactionsChanged("deleted").
		Write(w)
}

// handleExportFile serves the full log; the filter never applies to exports.
func (s *Server) handleExportFile(format export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		txs := s.store.Transactions()

		var buf bytes.Buffer
		if err := export.Write(&buf, format, txs); err != nil {
			log.FromContext(ctx).ErrorContext(ctx, "Export failed",
				log.FieldOperation, log.OpExport, log.FieldFormat, string(format), log.FieldError, err)
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}

		filename := export.Filename(s.exportBase, format)
		w.Header().Set("Content-Type", export.ContentType(format))
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		security.NoStore(w)
		_, _ = w.Write(buf.Bytes())

		log.FromContext(ctx).InfoContext(ctx, "Export served",
			log.FieldFormat, string(format), log.FieldCount, len(txs))
	}
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.sheets == nil {
		ErrorResponse(http.StatusServiceUnavailable, "Google Sheets export is not configured").Write(w)
		return
	}

	txs := s.store.Transactions()
	if err := s.sheets.Export(ctx, txs); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Sheets export failed",
			log.FieldOperation, log.OpExport, log.FieldFormat, string(export.FormatSheets), log.FieldError, err)
		ErrorResponse(http.StatusBadGateway, "Export to Google Sheets failed").Write(w)
		return
	}

	SuccessResponse(fmt.Sprintf("Exported %d transactions", len(txs))).
		TriggerSuccessNotification("Exported to Google Sheets").
		Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady is ready once any load has succeeded. Until then each check
// retries the load.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !s.store.Ready() {
		s.refresh(r.Context())
	}
	v := s.store.View()
	resp := map[string]any{
		"revision":       v.Revision,
		"active_clients": s.rateLimiter.ActiveClients(),
		"cache_entries":  s.store.FilteredCache().Size(),
	}

	if !s.store.Ready() {
		resp["status"] = "not_ready"
		if _, err := s.store.LastFailure(); err != nil {
			resp["error"] = err.Error()
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	resp["status"] = "ready"
	resp["loaded_at"] = v.LoadedAt.Format(time.RFC3339)
	_ = json.NewEncoder(w).Encode(resp)
}
