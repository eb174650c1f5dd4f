// Package remote talks to the ledger HTTP service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"wealthflow/internal/core"
	"wealthflow/internal/ledger"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultTimeout = 7 * time.Second

	maxErrorBody = 512
)

var _ ledger.Ledger = (*Client)(nil)

// StatusError reports a non-2xx answer from the service.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	timeout time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the pooled, instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request. Zero disables the per-request bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse ledger base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("ledger base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("ledger base url %q: missing host", baseURL)
	}
	c := &Client{baseURL: u, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = newHTTPClientWithPooling()
	}
	return c, nil
}

// newHTTPClientWithPooling keeps a few idle connections to the single
// ledger host and traces every request through otelhttp.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
		Timeout:   60 * time.Second,
	}
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL.String() }

func (c *Client) GetSummary(ctx context.Context) (core.Summary, error) {
	var s core.Summary
	if err := c.do(ctx, "get summary", http.MethodGet, "/summary", nil, nil, &s); err != nil {
		return core.Summary{}, err
	}
	return s, nil
}

// ListTransactions returns the log as served, newest first. A JSON null body
// is treated as an empty log. Entries that break the ingestion invariants
// fail the whole call.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var log []core.Transaction
	if err := c.do(ctx, "list transactions", http.MethodGet, "/transactions", nil, nil, &log); err != nil {
		return nil, err
	}
	if log == nil {
		log = []core.Transaction{}
	}
	if err := core.ValidateLog(log); err != nil {
		return nil, fmt.Errorf("list transactions: malformed response: %w", err)
	}
	return log, nil
}

type createRequest struct {
	Amount   json.Number          `json:"amount"`
	Category string               `json:"category"`
	Type     core.TransactionType `json:"type"`
}

// CreateTransaction posts a new record. The created record in the answer is
// not used; callers reload instead.
func (c *Client) CreateTransaction(ctx context.Context, in ledger.NewTransaction) error {
	body, err := json.Marshal(createRequest{
		Amount:   json.Number(in.Amount.String()),
		Category: in.Category,
		Type:     in.Type,
	})
	if err != nil {
		return fmt.Errorf("create transaction: encode body: %w", err)
	}
	return c.do(ctx, "create transaction", http.MethodPost, "/transactions", nil, body, nil)
}

func (c *Client) DeleteTransaction(ctx context.Context, id core.TransactionID) error {
	if strings.TrimSpace(string(id)) == "" {
		return core.ErrEmptyID
	}
	q := url.Values{"id": {string(id)}}
	return c.do(ctx, "delete transaction", http.MethodDelete, "/transactions", q, nil, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body []byte, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "Ledger request completed",
		"operation", op,
		"method", method,
		"url", u.String(),
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty response body", op)
		}
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
