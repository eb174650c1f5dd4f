// Package dashboard holds the view-model store behind the WealthFlow
// dashboard: the last loaded log and summary, the filter term and the
// derived chart data, plus the mutations that change the remote ledger.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"wealthflow/internal/cache"
	"wealthflow/internal/core"
	"wealthflow/internal/ledger"
	"wealthflow/internal/log"
)

// DeletePrompt is the question put to the Confirmer before a delete.
const DeletePrompt = "Remove this record?"

const (
	filteredCacheSize = 64
	filteredCacheTTL  = 10 * time.Minute
)

// Confirmer decides whether a destructive action goes ahead.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a plain function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Notifier is told about mutations the ledger accepted.
type Notifier interface {
	TransactionCreated(ctx context.Context, in ledger.NewTransaction) error
	TransactionDeleted(ctx context.Context, id core.TransactionID) error
}

// View is everything a renderer needs, derived from one state snapshot.
// Its slices are shared with the store and must be treated as read-only.
type View struct {
	Summary      core.Summary         `json:"summary"`
	Growth       core.Growth          `json:"growth"`
	Filter       string               `json:"filter"`
	Transactions []core.Transaction   `json:"transactions"`
	Filtered     []core.Transaction   `json:"filtered"`
	Series       []core.BalancePoint  `json:"series"`
	Categories   []core.CategoryTotal `json:"categories"`
	LoadedAt     time.Time            `json:"loaded_at"`
	Revision     uint64               `json:"revision"`
}

// Loaded reports whether the view comes from at least one successful load.
func (v View) Loaded() bool { return v.Revision > 0 }

type state struct {
	log        []core.Transaction
	summary    core.Summary
	loadedAt   time.Time
	revision   uint64
	series     []core.BalancePoint
	categories []core.CategoryTotal
}

type subscriber struct {
	id int
	fn func(View)
}

// Store owns the dashboard state. Reads are served from the last
// successful load; a failed load leaves that state untouched.
type Store struct {
	ledger   ledger.Ledger
	notifier Notifier
	logger   *log.Logger
	filtered *cache.LRUCache[[]core.Transaction]
	now      func() time.Time

	mu        sync.Mutex
	cur       state
	filter    string
	token     uint64
	closed    bool
	lastErr   error
	lastErrAt time.Time
	subs      []subscriber
	nextSub   int
}

type Option func(*Store)

// WithNotifier publishes mutation events after create and delete.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentDashboard) }
}

// WithFilteredCache replaces the memo used for filtered lists.
func WithFilteredCache(c *cache.LRUCache[[]core.Transaction]) Option {
	return func(s *Store) { s.filtered = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(l ledger.Ledger, opts ...Option) *Store {
	s := &Store{
		ledger:   l,
		logger:   log.Discard().WithComponent(log.ComponentDashboard),
		filtered: cache.NewLRUCache[[]core.Transaction](filteredCacheSize, filteredCacheTTL),
		now:      time.Now,
		cur:      emptyState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func emptyState() state {
	return state{
		log:        []core.Transaction{},
		summary:    core.Summary{TotalIncome: decimal.Zero, TotalExpenses: decimal.Zero, NetBalance: decimal.Zero},
		series:     []core.BalancePoint{},
		categories: []core.CategoryTotal{},
	}
}

// FilteredCache exposes the memo so it can be registered for cleanup.
func (s *Store) FilteredCache() *cache.LRUCache[[]core.Transaction] {
	return s.filtered
}

// Load fetches summary and log concurrently and applies them together.
// Only the most recently started load may apply its result; an older one
// finishing late is dropped and returns nil. On failure the previous
// state stays in place and the error is kept for LastFailure.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.token++
	token := s.token
	s.mu.Unlock()

	var (
		summary core.Summary
		txs     []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := s.ledger.GetSummary(gctx)
		if err != nil {
			return fmt.Errorf("get summary: %w", err)
		}
		summary = sum
		return nil
	})
	g.Go(func() error {
		list, err := s.ledger.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		txs = list
		return nil
	})
	err := g.Wait()

	s.mu.Lock()
	if s.closed || token != s.token {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "Discarding superseded load",
			log.FieldToken, token, log.FieldOperation, log.OpLoad)
		return nil
	}
	if err != nil {
		s.lastErr = err
		s.lastErrAt = s.now()
		s.mu.Unlock()
		s.logger.ErrorContext(ctx, "Dashboard failed to sync",
			log.FieldOperation, log.OpLoad, log.FieldError, err)
		return err
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	s.cur = state{
		log:        txs,
		summary:    summary,
		loadedAt:   s.now(),
		revision:   s.cur.revision + 1,
		series:     core.BuildBalanceSeries(txs),
		categories: core.BuildCategoryAggregate(txs),
	}
	s.lastErr = nil
	s.filtered.Purge()
	view := s.viewLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Dashboard loaded",
		log.FieldRevision, view.Revision, log.FieldCount, len(view.Transactions))
	notify(subs, view)
	return nil
}

// SetFilter stores the free-text term and pushes a new view to subscribers.
func (s *Store) SetFilter(term string) View {
	s.mu.Lock()
	s.filter = term
	view := s.viewLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, view)
	return view
}

// View derives the current view with the stored filter.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// ViewFor derives a view for term without touching the stored filter.
// HTTP handlers use it since every request carries its own term.
func (s *Store) ViewFor(term string) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deriveLocked(term)
}

// Transactions returns the full unfiltered log.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.cur.log...)
}

func (s *Store) viewLocked() View {
	return s.deriveLocked(s.filter)
}

func (s *Store) deriveLocked(term string) View {
	return View{
		Summary:      s.cur.summary,
		Growth:       core.GrowthMetrics(s.cur.summary),
		Filter:       term,
		Transactions: s.cur.log,
		Filtered:     s.filteredLocked(term),
		Series:       s.cur.series,
		Categories:   s.cur.categories,
		LoadedAt:     s.cur.loadedAt,
		Revision:     s.cur.revision,
	}
}

func (s *Store) filteredLocked(term string) []core.Transaction {
	if term == "" {
		return s.cur.log
	}
	key := fmt.Sprintf("%d|%s", s.cur.revision, term)
	if list, ok := s.filtered.Get(key); ok {
		return list
	}
	list := core.Filter(s.cur.log, term)
	s.filtered.Set(key, list)
	return list
}

// Subscribe registers fn for every new view. The returned func removes it.
func (s *Store) Subscribe(fn func(View)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) subscribersLocked() []subscriber {
	out := append([]subscriber(nil), s.subs...)
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func notify(subs []subscriber, v View) {
	for _, sub := range subs {
		sub.fn(v)
	}
}

// Submit parses the amount, asks the ledger to create the transaction
// and reloads on success. Nothing changes locally until the reload lands.
func (s *Store) Submit(ctx context.Context, amountText, category string, typ core.TransactionType) error {
	amount, err := core.ParseAmount(amountText)
	if err != nil {
		return err
	}
	if category == "" {
		return core.ErrEmptyCategory
	}
	if !typ.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidType, typ)
	}

	in := ledger.NewTransaction{Amount: amount, Category: category, Type: typ}
	if err := s.ledger.CreateTransaction(ctx, in); err != nil {
		s.logger.ErrorContext(ctx, "Save failed", log.NewFields().
			WithOperation(log.OpCreate).
			WithError(err).
			WithTransaction("", string(typ), category, amount.String()).
			ToSlice()...)
		return fmt.Errorf("create transaction: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.TransactionCreated(ctx, in); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish create event", log.FieldError, err)
		}
	}

	_ = s.Load(ctx)
	return nil
}

// Remove deletes id once the confirmer agrees. It reports whether a delete
// was issued; a declined prompt sends no request and changes nothing.
func (s *Store) Remove(ctx context.Context, id core.TransactionID, confirm Confirmer) (bool, error) {
	if id == "" {
		return false, core.ErrEmptyID
	}
	if confirm == nil || !confirm.Confirm(ctx, DeletePrompt) {
		return false, nil
	}

	if err := s.ledger.DeleteTransaction(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Delete failed",
			log.FieldOperation, log.OpDelete, log.FieldTxID, id.String(), log.FieldError, err)
		return false, fmt.Errorf("delete transaction: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.TransactionDeleted(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish delete event", log.FieldError, err)
		}
	}

	_ = s.Load(ctx)
	return true, nil
}

// LastFailure returns the most recent load failure, cleared by a later success.
func (s *Store) LastFailure() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErrAt, s.lastErr
}

// Ready reports whether any load has succeeded.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.revision > 0
}

// Close drops the results of loads still in flight.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
