// Package table is the in-memory transaction table: a shadow copy of the
// record store's transactions with search, column filters, sorting,
// pagination, selection and optimistic edits reconciled against the store.
package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/nett/internal/domain"
	"github.com/dvloznov/nett/internal/logger"
	"github.com/dvloznov/nett/internal/notify"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when a transaction, category or subcategory lookup fails.
	ErrNotFound = errors.New("not found")
	// ErrClosed is returned by operations on a closed engine, including calls
	// whose response arrived after Close.
	ErrClosed = errors.New("table engine closed")
	// ErrNoSelection is returned by RequestBulkDelete when nothing is selected.
	ErrNoSelection = errors.New("no transactions selected")
	// ErrNoPendingDelete is returned by ConfirmDelete outside a confirmation.
	ErrNoPendingDelete = errors.New("no delete awaiting confirmation")
)

// RecordStore is the remote store that owns durable transaction state.
type RecordStore interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	UpdateTransaction(ctx context.Context, id string, update domain.TransactionUpdate) error
	DeleteTransaction(ctx context.Context, id string) error
}

// CommitPolicy decides which rows a multi-row delete removes locally.
type CommitPolicy int

const (
	// CommitAllOrNothing removes rows only when every delete call succeeded.
	CommitAllOrNothing CommitPolicy = iota
	// CommitPerItem removes exactly the rows whose delete call succeeded.
	CommitPerItem
)

const (
	DefaultSearchDebounce = 300 * time.Millisecond
	DefaultImageCacheSize = 256
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	SearchDebounce time.Duration
	PageSize       int
	CommitPolicy   CommitPolicy
	ImageCacheSize int
	AmountPolicy   *domain.AmountPolicy
}

// Engine holds the shadow transaction list and all table state.
// It is safe for concurrent use; remote calls never hold the internal lock.
type Engine struct {
	store  RecordStore
	sink   notify.Sink
	log    zerolog.Logger
	policy domain.AmountPolicy
	commit CommitPolicy

	ctx    context.Context
	cancel context.CancelFunc
	images *ImageCache

	mu      sync.Mutex
	closed  bool
	txns    []domain.Transaction
	index   map[string]int
	rows    []Row
	catalog domain.Catalog
	status  map[string]map[string]fieldState
	seq     uint64

	search  searchState
	filters Filters
	sort    Sort
	page    int
	size    int

	// version changes whenever anything feeding the filtered view changes.
	version  uint64
	filtered []Row
	cachedAt uint64
	cacheOK  bool

	selected map[string]struct{}
	pending  *Confirmation
}

// New creates an engine bound to ctx. Cancelling ctx or calling Close cancels
// every outstanding remote call.
func New(ctx context.Context, store RecordStore, sink notify.Sink, opts Options) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("New: record store is required")
	}
	if sink == nil {
		sink = notify.Discard{}
	}
	if opts.SearchDebounce < 0 {
		return nil, fmt.Errorf("New: negative search debounce %s", opts.SearchDebounce)
	}
	if opts.SearchDebounce == 0 {
		opts.SearchDebounce = DefaultSearchDebounce
	}
	if opts.PageSize == 0 {
		opts.PageSize = DefaultPageSize
	}
	if !validPageSize(opts.PageSize) {
		return nil, fmt.Errorf("New: %w: %d", ErrInvalidPageSize, opts.PageSize)
	}
	if opts.ImageCacheSize == 0 {
		opts.ImageCacheSize = DefaultImageCacheSize
	}
	images, err := NewImageCache(opts.ImageCacheSize)
	if err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}
	policy := domain.DefaultAmountPolicy()
	if opts.AmountPolicy != nil {
		policy = *opts.AmountPolicy
	}

	ctx, cancel := context.WithCancel(ctx)
	e := &Engine{
		store:    store,
		sink:     sink,
		log:      logger.FromContext(ctx).With().Str("component", "table").Logger(),
		policy:   policy,
		commit:   opts.CommitPolicy,
		ctx:      ctx,
		cancel:   cancel,
		images:   images,
		index:    make(map[string]int),
		status:   make(map[string]map[string]fieldState),
		search:   searchState{delay: opts.SearchDebounce},
		sort:     DefaultSort,
		size:     opts.PageSize,
		selected: make(map[string]struct{}),
	}
	context.AfterFunc(ctx, e.Close)
	return e, nil
}

// Close cancels outstanding calls, stops the search timer and clears the image cache.
// Responses that arrive afterwards are discarded. Close is idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.search.stop()
	e.pending = nil
	e.mu.Unlock()

	e.cancel()
	e.images.Purge()
}

// Closed reports whether Close has run.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// callContext derives a context for one remote call that ends when either ctx
// or the engine's lifetime ends.
func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// SetTransactions replaces the shadow copy wholesale. Field statuses are reset
// and selected ids that no longer exist are dropped.
func (e *Engine) SetTransactions(txns []domain.Transaction) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.txns = make([]domain.Transaction, 0, len(txns))
	for _, t := range txns {
		e.txns = append(e.txns, t.Clone())
	}
	e.status = make(map[string]map[string]fieldState)
	e.rebuildLocked()

	for id := range e.selected {
		if _, ok := e.index[id]; !ok {
			delete(e.selected, id)
		}
	}
	e.log.Debug().Int("count", len(txns)).Msg("Transactions replaced")
}

// Transactions returns a copy of the shadow list.
func (e *Engine) Transactions() []domain.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Transaction, len(e.txns))
	for i, t := range e.txns {
		out[i] = t.Clone()
	}
	return out
}

// Transaction returns the shadow copy of one transaction.
func (e *Engine) Transaction(id string) (domain.Transaction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i, ok := e.index[id]
	if !ok {
		return domain.Transaction{}, false
	}
	return e.txns[i].Clone(), true
}

// rebuildLocked recomputes the index and derived rows from the shadow list.
func (e *Engine) rebuildLocked() {
	e.index = make(map[string]int, len(e.txns))
	for i, t := range e.txns {
		if _, dup := e.index[t.ID]; !dup {
			e.index[t.ID] = i
		}
	}
	e.rows = buildRows(e.txns, e.policy)
	e.invalidateLocked()
}

func (e *Engine) invalidateLocked() {
	e.version++
}

// notify sends a message to the sink unless the engine is closed.
func (e *Engine) notify(message string, severity notify.Severity) {
	if e.Closed() {
		return
	}
	e.sink.Trigger(message, severity)
}
