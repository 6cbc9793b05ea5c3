package listview

import (
	"context"
	"strings"
	"sync"

	"github.com/cuemby/pipectl/pkg/events"
	"github.com/cuemby/pipectl/pkg/log"
	"github.com/cuemby/pipectl/pkg/metrics"
	"github.com/rs/zerolog"
)

const (
	DefaultPageSize = 10

	// DefaultBulkPageSize is how many rows client mode asks for. Rows past
	// it are never seen; Snapshot.Truncated reports when that happens.
	DefaultBulkPageSize = 1000
)

// State is the load state of a list view
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "idle"
	}
}

// FetchFunc loads the rows for one request
type FetchFunc[T any] func(ctx context.Context, req Request) (Page[T], error)

// MatchFunc reports whether a row passes the search text and filters of q
type MatchFunc[T any] func(item T, q Query) bool

// Config describes one list view
type Config[T any] struct {
	// Name labels the view in metrics and logs, for example "agents"
	Name string
	// Noun is used in empty messages, "No <noun> found"
	Noun string

	Fetch FetchFunc[T]
	Match MatchFunc[T]

	PageSize     int
	BulkPageSize int

	// ServerFilters are forwarded to the backend in client mode as well
	ServerFilters []string

	// ClientOnly views always fetch everything and page locally, for
	// endpoints without server pagination.
	ClientOnly bool

	// Resource is the event resource that triggers a reload in Watch
	Resource string
}

// Snapshot is a consistent copy of a view's state
type Snapshot[T any] struct {
	State State
	// Query is the requested state of the view
	Query Query
	// Shown is the query Items and TotalCount were rendered with. It lags
	// Query while a changed request is loading or after it failed, so the
	// previous rows stay visible under the paging they were fetched with.
	Shown Query
	// Mode is the pagination mode of Shown
	Mode       Mode
	Items      []T
	TotalCount int
	Err        error
	// Truncated is set when the backend holds more rows than the bulk page
	// returned, so client-side filtering saw only part of the data.
	Truncated bool
}

// Pagination returns the pagination window of the rows shown
func (s Snapshot[T]) Pagination() Pagination {
	return Pagination{PageNum: s.Shown.PageNum, PageSize: s.Shown.PageSize, TotalCount: s.TotalCount}
}

// Stale reports whether the rows shown belong to an earlier query
func (s Snapshot[T]) Stale() bool {
	return !s.Shown.equal(s.Query)
}

// Controller holds the state of one list view and decides when to fetch.
// A fetch happens only when the request derived from the current state
// differs from the last one fetched and is not already loading.
type Controller[T any] struct {
	cfg    Config[T]
	logger zerolog.Logger

	mu      sync.Mutex
	query   Query
	state   State
	err     error
	loading map[string]int

	// last successful fetch and the query it was made for
	fetched      bool
	fetchedSig   string
	fetchedQuery Query
	rows         []T
	serverTotal  int
}

// New creates an idle controller. Nothing is fetched until the first call
// to Refresh or a setter.
func New[T any](cfg Config[T]) *Controller[T] {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.BulkPageSize <= 0 {
		cfg.BulkPageSize = DefaultBulkPageSize
	}
	if cfg.Noun == "" {
		cfg.Noun = "items"
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Noun
	}

	return &Controller[T]{
		cfg:     cfg,
		logger:  log.WithComponent("listview").With().Str("view", cfg.Name).Logger(),
		query:   Query{PageNum: 1, PageSize: cfg.PageSize, Filters: map[string]string{}},
		loading: map[string]int{},
	}
}

func (c *Controller[T]) mode(q Query) Mode {
	if c.cfg.ClientOnly {
		return ModeClient
	}
	return q.Mode()
}

// request derives the backend request for q
func (c *Controller[T]) request(q Query) Request {
	if c.mode(q) == ModeServer {
		return Request{PageNum: q.PageNum, PageSize: q.PageSize}
	}

	req := Request{PageNum: 1, PageSize: c.cfg.BulkPageSize}
	for _, name := range c.cfg.ServerFilters {
		if v := q.Filter(name); v != FilterAll {
			if req.Filters == nil {
				req.Filters = map[string]string{}
			}
			req.Filters[name] = v
		}
	}
	return req
}

// SetPage moves to page n (1-based)
func (c *Controller[T]) SetPage(ctx context.Context, n int) Snapshot[T] {
	return c.update(ctx, func(q *Query) {
		q.PageNum = max(n, 1)
	})
}

// SetPageSize changes the page size and returns to the first page
func (c *Controller[T]) SetPageSize(ctx context.Context, size int) Snapshot[T] {
	return c.update(ctx, func(q *Query) {
		if size <= 0 {
			size = c.cfg.PageSize
		}
		q.PageSize = size
		q.PageNum = 1
	})
}

// SetSearch changes the search text and returns to the first page
func (c *Controller[T]) SetSearch(ctx context.Context, text string) Snapshot[T] {
	return c.update(ctx, func(q *Query) {
		q.SearchText = text
		q.PageNum = 1
	})
}

// SetFilter sets one filter and returns to the first page. FilterAll or ""
// removes it.
func (c *Controller[T]) SetFilter(ctx context.Context, name, value string) Snapshot[T] {
	return c.update(ctx, func(q *Query) {
		if value == "" || value == FilterAll {
			delete(q.Filters, name)
		} else {
			q.Filters[name] = value
		}
		q.PageNum = 1
	})
}

// ClearFilters removes the search text and every filter
func (c *Controller[T]) ClearFilters(ctx context.Context) Snapshot[T] {
	return c.update(ctx, func(q *Query) {
		q.SearchText = ""
		q.Filters = map[string]string{}
		q.PageNum = 1
	})
}

// Apply replaces the whole query at once, fetching at most once
func (c *Controller[T]) Apply(ctx context.Context, query Query) Snapshot[T] {
	return c.update(ctx, func(q *Query) {
		next := query.clone()
		if next.PageNum <= 0 {
			next.PageNum = 1
		}
		if next.PageSize <= 0 {
			next.PageSize = c.cfg.PageSize
		}
		*q = next
	})
}

// Refresh fetches if the current request has not been fetched yet
func (c *Controller[T]) Refresh(ctx context.Context) Snapshot[T] {
	return c.update(ctx, nil)
}

// Reload fetches the current request again even if it was fetched before
func (c *Controller[T]) Reload(ctx context.Context) Snapshot[T] {
	c.mu.Lock()
	req := c.request(c.query)
	return c.fetchLocked(ctx, req, true)
}

// Snapshot returns the current state without fetching
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller[T]) update(ctx context.Context, mutate func(*Query)) Snapshot[T] {
	c.mu.Lock()
	if mutate != nil {
		mutate(&c.query)
	}
	req := c.request(c.query)
	return c.fetchLocked(ctx, req, false)
}

// fetchLocked is entered with c.mu held and releases it. The lock is not
// held while Fetch runs.
func (c *Controller[T]) fetchLocked(ctx context.Context, req Request, force bool) Snapshot[T] {
	sig := req.Signature()
	if c.loading[sig] > 0 || (!force && c.fetched && sig == c.fetchedSig) {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}

	mode := c.mode(c.query)
	c.loading[sig]++
	c.state = StateLoading
	c.mu.Unlock()

	metrics.ListFetchesTotal.WithLabelValues(c.cfg.Name, mode.String()).Inc()
	c.logger.Debug().Str("request", sig).Str("mode", mode.String()).Msg("Fetching list")
	page, err := c.cfg.Fetch(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.loading[sig]--
	if c.loading[sig] == 0 {
		delete(c.loading, sig)
	}

	current := c.request(c.query).Signature()
	if sig != current {
		c.logger.Debug().Str("request", sig).Msg("Discarding stale list result")
		c.settleStateLocked()
		return c.snapshotLocked()
	}

	if err != nil {
		c.logger.Warn().Err(err).Str("request", sig).Msg("List fetch failed")
		c.err = err
	} else {
		c.err = nil
		c.fetched = true
		c.fetchedSig = sig
		c.fetchedQuery = c.query.clone()
		c.rows = page.Items
		c.serverTotal = page.TotalCount
		if mode == ModeClient && c.serverTotal > len(c.rows) {
			c.logger.Warn().
				Int("fetched", len(c.rows)).
				Int("total", c.serverTotal).
				Msg("Bulk page is incomplete; client-side filtering only sees the rows fetched")
		}
	}
	c.settleStateLocked()
	return c.snapshotLocked()
}

func (c *Controller[T]) settleStateLocked() {
	switch {
	case len(c.loading) > 0:
		c.state = StateLoading
	case c.fetched || c.err != nil:
		c.state = StateLoaded
	default:
		c.state = StateIdle
	}
}

func (c *Controller[T]) snapshotLocked() Snapshot[T] {
	snap := Snapshot[T]{
		State: c.state,
		Query: c.query.clone(),
		Shown: c.query.clone(),
		Mode:  c.mode(c.query),
		Err:   c.err,
	}
	if !c.fetched {
		snap.Items = []T{}
		return snap
	}

	// Rows fetched for another request are rendered the way they were
	// fetched. Search edits within one bulk page keep the signature and are
	// re-filtered locally.
	if c.request(c.query).Signature() != c.fetchedSig {
		snap.Shown = c.fetchedQuery.clone()
		snap.Mode = c.mode(snap.Shown)
	}
	shown := snap.Shown

	if snap.Mode == ModeServer {
		snap.Items = append([]T(nil), c.rows...)
		snap.TotalCount = c.serverTotal
		return snap
	}

	matched := make([]T, 0, len(c.rows))
	for _, item := range c.rows {
		if c.cfg.Match == nil || c.cfg.Match(item, shown) {
			matched = append(matched, item)
		}
	}
	snap.TotalCount = len(matched)
	snap.Truncated = c.serverTotal > len(c.rows)

	start := (shown.PageNum - 1) * shown.PageSize
	end := min(start+shown.PageSize, len(matched))
	if start >= len(matched) {
		snap.Items = []T{}
	} else {
		snap.Items = matched[start:end]
	}
	return snap
}

// Noun is the plural name of the rows, "agents" for the agents view
func (c *Controller[T]) Noun() string {
	return c.cfg.Noun
}

// EmptyMessage returns the message to show when the view has no rows
func (c *Controller[T]) EmptyMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return EmptyMessage(c.cfg.Noun, c.query)
}

// Watch reloads the view whenever broker publishes an event for the view's
// resource. The subscription is in place when Watch returns; reloads run in
// a goroutine until ctx is done. Each reloaded snapshot is sent on the
// returned channel, which is closed when watching stops.
func (c *Controller[T]) Watch(ctx context.Context, broker *events.Broker) <-chan Snapshot[T] {
	var resources []string
	if c.cfg.Resource != "" {
		resources = append(resources, c.cfg.Resource)
	}
	sub := broker.Subscribe(resources...)
	reloaded := make(chan Snapshot[T], 16)

	go func() {
		defer close(reloaded)
		defer broker.Unsubscribe(sub)

		for {
			select {
			case evt, ok := <-sub:
				if !ok {
					return
				}
				c.logger.Debug().Str("event", string(evt.Type)).Msg("Reloading after change")
				snap := c.Reload(ctx)
				select {
				case reloaded <- snap:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return reloaded
}

// containsFold reports whether s contains substr, ignoring case
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
