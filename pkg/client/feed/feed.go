// Package feed pages through the book listing and keeps a deduplicated,
// newest-first view of it.
package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/paghive/paghive/pkg/client"
)

const (
	DefaultPageSize     = 2
	DefaultRefreshDelay = 800 * time.Millisecond
)

// ErrBusy is returned by LoadPage while another load is in flight.
var ErrBusy = errors.New("feed: load already in flight")

// Fetcher returns one page of the listing. *client.Client satisfies it.
type Fetcher interface {
	ListBooks(ctx context.Context, page, limit int) (*client.BookPage, error)
}

type Reconciler struct {
	fetch        Fetcher
	pageSize     int
	refreshDelay time.Duration
	log          zerolog.Logger

	inFlight atomic.Bool

	mu      sync.RWMutex
	items   []client.Book
	page    int
	hasMore bool
}

type Option func(*Reconciler)

func WithPageSize(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithRefreshDelay sets how long Refresh holds completion. Zero disables it.
func WithRefreshDelay(d time.Duration) Option {
	return func(r *Reconciler) { r.refreshDelay = d }
}

func WithLogger(log zerolog.Logger) Option {
	return func(r *Reconciler) { r.log = log }
}

func New(fetch Fetcher, opts ...Option) *Reconciler {
	r := &Reconciler{
		fetch:        fetch,
		pageSize:     DefaultPageSize,
		refreshDelay: DefaultRefreshDelay,
		log:          zerolog.Nop(),
		hasMore:      true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadPage fetches page n. Page 1 and refreshes replace the held items;
// later pages are merged in. Only one load runs at a time.
func (r *Reconciler) LoadPage(ctx context.Context, n int, refresh bool) error {
	if n < 1 {
		n = 1
	}
	if !r.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer r.inFlight.Store(false)
	return r.run(ctx, n, refresh)
}

// run performs one load. The caller holds the in-flight flag.
func (r *Reconciler) run(ctx context.Context, n int, refresh bool) error {
	err := r.load(ctx, n, refresh)
	if refresh {
		// Completion is held even on failure so the indicator stays visible.
		if werr := wait(ctx, r.refreshDelay); err == nil {
			err = werr
		}
	}
	return err
}

func (r *Reconciler) load(ctx context.Context, n int, refresh bool) error {
	page, err := r.fetch.ListBooks(ctx, n, r.pageSize)
	if err != nil {
		r.log.Warn().Err(err).Int("page", n).Msg("failed to fetch books")
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if refresh || n == 1 {
		r.items = merge(nil, page.Books)
	} else {
		r.items = merge(r.items, page.Books)
	}
	r.page = n
	r.hasMore = n < page.TotalPages
	return nil
}

// Refresh reloads page 1 and replaces the held items.
func (r *Reconciler) Refresh(ctx context.Context) error {
	return r.LoadPage(ctx, 1, true)
}

// LoadMore fetches the next page. It reports false without error when a load
// is already running or the listing is exhausted.
func (r *Reconciler) LoadMore(ctx context.Context) (bool, error) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return false, nil
	}
	defer r.inFlight.Store(false)

	r.mu.RLock()
	next, more := r.page+1, r.hasMore
	r.mu.RUnlock()
	if !more {
		return false, nil
	}
	err := r.run(ctx, next, false)
	return err == nil, err
}

// Items returns a copy of the held books in display order.
func (r *Reconciler) Items() []client.Book {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]client.Book, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Reconciler) HasMore() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hasMore
}

// CurrentPage is the last page loaded, 0 before the first load.
func (r *Reconciler) CurrentPage() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.page
}

// merge appends fresh to held, deduplicating by ID. Order is by first
// appearance; when an ID repeats, the fresher copy replaces the held one in
// place.
func merge(held, fresh []client.Book) []client.Book {
	out := make([]client.Book, 0, len(held)+len(fresh))
	index := make(map[string]int, len(held)+len(fresh))

	for _, batch := range [][]client.Book{held, fresh} {
		for _, b := range batch {
			if i, ok := index[b.ID]; ok {
				out[i] = b
				continue
			}
			index[b.ID] = len(out)
			out = append(out, b)
		}
	}
	return out
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
