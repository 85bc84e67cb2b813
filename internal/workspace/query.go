// Package workspace holds the state of the transaction list screen: the
// query and filter, the projected rows, and the create/edit/delete dialog.
// Controllers are safe for concurrent use and never hold their lock across
// a network call.
package workspace

import (
	"context"
	"errors"
	"sync"

	apperrors "pfa/internal/errors"
	"pfa/internal/logger"
	"pfa/internal/models"
	"pfa/internal/pagination"
)

// Lister fetches transaction pages.
type Lister interface {
	ListTransactions(ctx context.Context, filter models.Filter, page, limit int) (models.TransactionPage, error)
}

// Options configures a List.
type Options struct {
	PageSize         int
	ResetPageOnLimit bool
}

// Query is the list query. A nil field means "no constraint".
type Query struct {
	From       *models.Date    `json:"from"`
	To         *models.Date    `json:"to"`
	Type       *models.TxnType `json:"type"`
	CategoryID *int64          `json:"category_id"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	Refresh    uint64          `json:"refresh"`
}

// Filter returns the filter part of q.
func (q Query) Filter() models.Filter {
	return models.Filter{From: q.From, To: q.To, Type: q.Type, CategoryID: q.CategoryID}
}

// queryKey is the comparable identity of a Query. Two queries with equal
// keys need only one fetch.
type queryKey struct {
	from, to, typ string
	category      int64
	hasCategory   bool
	page, limit   int
	refresh       uint64
}

func (q Query) key() queryKey {
	k := queryKey{page: q.Page, limit: q.Limit, refresh: q.Refresh}
	if q.From != nil {
		k.from = q.From.String()
	}
	if q.To != nil {
		k.to = q.To.String()
	}
	if q.Type != nil {
		k.typ = string(*q.Type)
	}
	if q.CategoryID != nil {
		k.category, k.hasCategory = *q.CategoryID, true
	}
	return k
}

// Change is a set of query edits applied together. Only the parts whose
// Set* flag (or pointer) is set are applied.
type Change struct {
	SetRange    bool
	From, To    *models.Date
	SetType     bool
	Type        *models.TxnType
	SetCategory bool
	CategoryID  *int64
	Page        *int
	Limit       *int
}

// List is the query/filter state of the transaction list together with the
// last page received for it.
type List struct {
	mu   sync.Mutex
	api  Lister
	opts Options

	query      Query
	requested  queryKey
	fetched    bool
	generation uint64

	result     models.TransactionPage
	totalKnown bool
	loading    bool
	err        error
}

// NewList returns a List on page 1 with the configured page size.
func NewList(api Lister, opts Options) *List {
	if !pagination.IsAllowedLimit(opts.PageSize) {
		opts.PageSize = pagination.DefaultLimit
	}
	return &List{
		api:   api,
		opts:  opts,
		query: Query{Page: 1, Limit: opts.PageSize},
	}
}

// Query returns a copy of the current query.
func (l *List) Query() Query {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query
}

// SetRange sets the date range. A new from later than to moves to up to
// from; a new to earlier than from moves from down to to. When both change
// and cross, to is applied last and wins.
func (l *List) SetRange(ctx context.Context, from, to *models.Date) error {
	return l.Apply(ctx, Change{SetRange: true, From: from, To: to})
}

// SetType filters by transaction type; nil shows both.
func (l *List) SetType(ctx context.Context, t *models.TxnType) error {
	return l.Apply(ctx, Change{SetType: true, Type: t})
}

// SetCategory filters by category; nil shows all.
func (l *List) SetCategory(ctx context.Context, id *int64) error {
	return l.Apply(ctx, Change{SetCategory: true, CategoryID: id})
}

// SetPage moves to page n. Pages outside [1, total pages] are rejected and
// the page stays where it was.
func (l *List) SetPage(ctx context.Context, n int) error {
	return l.Apply(ctx, Change{Page: &n})
}

// SetLimit changes the page size to one of the allowed sizes.
func (l *List) SetLimit(ctx context.Context, n int) error {
	return l.Apply(ctx, Change{Limit: &n})
}

// Refresh refetches the current query even though it has not changed.
func (l *List) Refresh(ctx context.Context) error {
	l.mu.Lock()
	l.query.Refresh++
	l.mu.Unlock()
	return l.Load(ctx)
}

// Apply validates and applies c, then fetches if the query changed. An
// invalid change leaves the query untouched.
//
// An explicit page is always checked against the total of the query it
// lands on: the rest of c is applied and fetched first (on a fresh list
// this is the first page), then the page is validated. A page past the end
// is rejected and never requested.
func (l *List) Apply(ctx context.Context, c Change) error {
	if c.Page == nil {
		return l.apply(ctx, c)
	}
	page := *c.Page
	if page < 1 {
		return apperrors.ErrPageOutOfRange
	}
	rest := c
	rest.Page = nil
	if err := l.apply(ctx, rest); err != nil {
		return err
	}
	return l.apply(ctx, Change{Page: &page})
}

func (l *List) apply(ctx context.Context, c Change) error {
	l.mu.Lock()
	next, err := l.next(c)
	if err != nil {
		l.mu.Unlock()
		return err
	}
	l.query = next
	l.mu.Unlock()
	return l.Load(ctx)
}

// next computes the query resulting from c. Callers hold l.mu.
func (l *List) next(c Change) (Query, error) {
	q := l.query
	filterChanged := false

	if c.SetRange {
		from, to := copyDate(c.From), copyDate(c.To)
		if from != nil && to != nil && from.After(*to) {
			if sameDate(q.To, c.To) {
				to = copyDate(from)
			} else {
				from = copyDate(to)
			}
		}
		filterChanged = filterChanged || !sameDate(q.From, from) || !sameDate(q.To, to)
		q.From, q.To = from, to
	}
	if c.SetType {
		if c.Type != nil && !c.Type.Valid() {
			return Query{}, apperrors.Invalid(apperrors.FieldErrors{"type": "Must be expense or income"})
		}
		t := copyType(c.Type)
		filterChanged = filterChanged || !sameType(q.Type, t)
		q.Type = t
	}
	if c.SetCategory {
		id := copyID(c.CategoryID)
		filterChanged = filterChanged || !sameID(q.CategoryID, id)
		q.CategoryID = id
	}
	if filterChanged {
		q.Page = 1
	}

	limitChanged := false
	if c.Limit != nil {
		if !pagination.IsAllowedLimit(*c.Limit) {
			return Query{}, apperrors.ErrInvalidLimit
		}
		limitChanged = *c.Limit != q.Limit
		q.Limit = *c.Limit
		if limitChanged && l.opts.ResetPageOnLimit {
			q.Page = 1
		}
	}

	if c.Page != nil {
		n := *c.Page
		if n < 1 {
			return Query{}, apperrors.ErrPageOutOfRange
		}
		// Apply sends pages on their own, so the known total belongs to q.
		if l.totalKnown && n > pagination.TotalPages(l.result.Total, q.Limit) {
			return Query{}, apperrors.ErrPageOutOfRange
		}
		q.Page = n
	}
	return q, nil
}

// Load fetches the current query unless the same query was already
// requested. A response that arrives after a newer request was issued is
// dropped.
func (l *List) Load(ctx context.Context) error {
	for {
		l.mu.Lock()
		q := l.query
		key := q.key()
		if l.fetched && key == l.requested {
			l.mu.Unlock()
			return nil
		}
		l.requested, l.fetched = key, true
		l.generation++
		gen := l.generation
		l.loading = true
		l.mu.Unlock()

		page, err := l.api.ListTransactions(ctx, q.Filter(), q.Page, q.Limit)

		refetch, ferr := l.finish(gen, q, page, err)
		if errors.Is(ferr, apperrors.ErrStaleResponse) {
			// A 401 resets the list while the request is still in flight;
			// the caller still has to learn the session is gone.
			if apperrors.IsUnauthorized(err) {
				return err
			}
			logger.Get().Debugw("discarding stale transaction page", "page", q.Page, "generation", gen)
			return nil
		}
		if ferr != nil || !refetch {
			return ferr
		}
	}
}

// finish stores the outcome of fetch gen. It reports whether the page fell
// past the end and was clamped, which needs another fetch.
func (l *List) finish(gen uint64, q Query, page models.TransactionPage, err error) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation {
		return false, apperrors.ErrStaleResponse
	}
	l.loading = false
	if err != nil {
		l.err = err
		// Allow the same query to be retried.
		l.fetched = false
		return false, err
	}

	l.err = nil
	l.result = page
	l.totalKnown = true

	if last := pagination.TotalPages(page.Total, q.Limit); q.Page > last && l.query.key() == q.key() {
		l.query.Page = last
		return true, nil
	}
	return false, nil
}

// Reset drops the query and results. A fetch still in flight is discarded
// when it lands.
func (l *List) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query = Query{Page: 1, Limit: l.opts.PageSize}
	l.generation++
	l.fetched, l.totalKnown, l.loading = false, false, false
	l.result, l.err = models.TransactionPage{}, nil
}

// Snapshot is a consistent copy of the list state.
type Snapshot struct {
	Query   Query
	Page    models.TransactionPage
	Loading bool
	Err     error
}

// Snapshot returns the current state.
func (l *List) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{Query: l.query, Page: l.result, Loading: l.loading, Err: l.err}
}

func copyDate(d *models.Date) *models.Date {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func copyType(t *models.TxnType) *models.TxnType {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func sameDate(a, b *models.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameType(a, b *models.TxnType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
