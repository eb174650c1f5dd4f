package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"wealthflow/internal/core"
	"wealthflow/internal/dashboard"
	"wealthflow/internal/export"
	"wealthflow/internal/log"
	"wealthflow/internal/middleware/ratelimit"
	"wealthflow/internal/middleware/security"
	"wealthflow/internal/middleware/trace"
	appweb "wealthflow/web"
)

const defaultLoadTimeout = 7 * time.Second

// SheetsExporter pushes the full log to a spreadsheet.
type SheetsExporter interface {
	Export(ctx context.Context, txs []core.Transaction) error
}

type Options struct {
	Store          *dashboard.Store
	Sheets         SheetsExporter
	Logger         *log.Logger
	ExportBaseName string
	LoadTimeout    time.Duration
	RateLimit      ratelimit.Config
}

type Server struct {
	http.Server
	store       *dashboard.Store
	sheets      SheetsExporter
	templates   *template.Template
	logger      *log.Logger
	exportBase  string
	loadTimeout time.Duration
	started     time.Time

	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

var templateFuncs = template.FuncMap{
	"money": core.FormatMoney,
	"pct":   formatPct,
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(addr string, opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("dashboard store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		store:       opts.Store,
		sheets:      opts.Sheets,
		templates:   t,
		logger:      logger,
		exportBase:  opts.ExportBaseName,
		loadTimeout: opts.LoadTimeout,
		started:     time.Now(),
		rateLimiter: ratelimit.NewLimiter(opts.RateLimit),
		detector:    security.NewDetector(),
	}
	if s.exportBase == "" {
		s.exportBase = export.DefaultBaseName
	}
	if s.loadTimeout <= 0 {
		s.loadTimeout = defaultLoadTimeout
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		return nil, err
	}

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited, http.MethodPost)(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.detector.Middleware(logger)(handler)
	handler = log.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = s.tracer.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.CacheFor(3600)(static))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /ui/dashboard", s.handleDashboardPartial)
	mux.HandleFunc("GET /ui/history", s.handleHistoryPartial)
	mux.HandleFunc("GET /ui/confirm-delete", s.handleConfirmDelete)
	mux.HandleFunc("GET /api/view", s.handleViewJSON)

	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("POST /transactions/delete", s.handleDeleteTransaction)

	mux.HandleFunc("GET /export.csv", s.handleExportFile(export.FormatCSV))
	mux.HandleFunc("GET /export.xlsx", s.handleExportFile(export.FormatXLSX))
	mux.HandleFunc("POST /export/sheets", s.handleExportSheets)
	return nil
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests, try again shortly").Write(w)
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
