package grid

// engine.go is the orchestrator that composes the query key codec, cache,
// request manager, debouncers, URL synchronizer and selection tracker.
//
// Every state mutation happens under e.mu. Network calls run on their own
// goroutines and re-acquire the lock to apply results, which keeps the
// "single active lineage" rule of the request manager authoritative:
//
//	intent -> (debounce) -> commit ViewState -> QueryKey
//	       -> cache hit:  apply immediately
//	       -> cache miss: RequestManager.Begin -> DataSource.FetchPage
//	                      -> apply only if still latest
//	commit -> Location.Replace (URL mirrors committed state)

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// Options configures an Engine.
type Options struct {
	// Endpoint is passed to the DataSource and prefixes every QueryKey.
	Endpoint string

	Defaults Defaults

	// Cache may be shared between engines. When nil a private cache is built
	// from CacheSize and CacheTTL.
	Cache     *Cache
	CacheSize int
	CacheTTL  time.Duration

	// DebounceWait is the quiet period for free-text filters and search.
	DebounceWait time.Duration

	// SuppressCancellation keeps request contexts alive when superseded.
	// Stale results are still discarded.
	SuppressCancellation bool

	// Saver receives CSV exports.
	Saver FileSaver

	Logger *slog.Logger

	// Development makes data-source contract violations log their full detail.
	Development bool

	// Now is used for export file names. Defaults to time.Now.
	Now func() time.Time
}

// State is a read-only snapshot for the rendering layer.
type State struct {
	Data         []Row
	Loading      bool
	Error        string
	Total        int
	Page         int
	PageSize     int
	TotalPages   int
	SortBy       string
	SortDir      SortDirection
	Filters      Filters
	LocalFilters Filters
	SelectedRows []string
	GlobalSearch string
	Search       string
	FromCache    bool

	// Version increases with every published snapshot.
	Version uint64
}

// Engine is the table state engine for one table instance.
type Engine struct {
	source   DataSource
	loc      Location
	opts     Options
	logger   *slog.Logger
	cache    *Cache
	requests *RequestManager

	selection      *Selection
	filterDebounce *Debouncer
	searchDebounce *Debouncer

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	mounted bool
	closed  bool

	view         ViewState
	localFilters Filters
	searchInput  string

	rows       []Row
	total      int
	totalPages int
	loading    bool
	errMsg     string
	fromCache  bool

	version      uint64
	listeners    map[int]func(State)
	nextListener int
}

// New creates an engine. The initial view is read from loc; nothing is
// fetched until Mount.
func New(source DataSource, loc Location, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Defaults.PageSize < 1 {
		opts.Defaults.PageSize = DefaultPageSize
	}
	cache := opts.Cache
	if cache == nil {
		cache = NewCache(opts.CacheSize, opts.CacheTTL)
	}

	e := &Engine{
		source:         source,
		loc:            loc,
		opts:           opts,
		logger:         opts.Logger.With("endpoint", opts.Endpoint),
		cache:          cache,
		requests:       NewRequestManager(opts.SuppressCancellation),
		selection:      NewSelection(),
		filterDebounce: NewDebouncer(opts.DebounceWait),
		searchDebounce: NewDebouncer(opts.DebounceWait),
		listeners:      make(map[int]func(State)),
	}

	e.view = ToViewState(loc.Query(), opts.Defaults)
	e.resetInputsLocked()
	return e
}

// Cache returns the engine's result cache.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// Selection returns the engine's selection tracker.
func (e *Engine) Selection() *Selection {
	return e.selection
}

// ViewState returns the committed view.
func (e *Engine) ViewState() ViewState {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.view
	v.Filters = cloneFilters(e.view.Filters)
	return v
}

// Key returns the QueryKey of the committed view.
func (e *Engine) Key() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EncodeKey(e.opts.Endpoint, e.view)
}

// Mount starts the engine: the URL is mirrored and the current view loaded.
// Requests run under ctx; cancelling it has the same effect as Close.
func (e *Engine) Mount(ctx context.Context) {
	e.mu.Lock()
	if e.mounted || e.closed {
		e.mu.Unlock()
		return
	}
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.mounted = true
	e.syncURLLocked()
	e.loadLocked(false)
	st := e.publishLocked()
	e.mu.Unlock()

	e.logger.Debug("table mounted", "key", EncodeKey(e.opts.Endpoint, st.view()))
	e.notify(st)
}

// Close cancels the in-flight request and any pending debounced commit.
// Results that arrive afterwards are ignored.
func (e *Engine) Close() {
	e.filterDebounce.Cancel()
	e.searchDebounce.Cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.requests.CancelAll()
	if e.cancel != nil {
		e.cancel()
	}
	e.listeners = make(map[int]func(State))
}

// State returns the current snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe registers fn to receive every published snapshot. fn is called
// without engine locks held and may call back into the engine. Snapshots can
// arrive out of order across goroutines; compare Version to discard old ones.
func (e *Engine) Subscribe(fn func(State)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

// commitLocked makes next the committed view, mirrors it into the URL and
// runs the cache/fetch pipeline.
func (e *Engine) commitLocked(next ViewState) {
	e.view = next.Normalize(e.opts.Defaults)
	if !e.mounted || e.closed {
		return
	}
	e.syncURLLocked()
	e.loadLocked(false)
}

// syncURLLocked replaces the URL when the committed view encodes differently.
func (e *Engine) syncURLLocked() {
	current := e.loc.Query()
	next := ToURLParams(e.view, current, e.opts.Defaults)
	if SameParams(current, next) {
		return
	}
	e.loc.Replace(next)
}

// loadLocked serves the committed view from cache or issues a request for it.
// force bypasses the cache and any identical in-flight request.
func (e *Engine) loadLocked(force bool) {
	key := EncodeKey(e.opts.Endpoint, e.view)

	if !force {
		if entry, ok := e.cache.Get(key); ok {
			e.requests.Supersede()
			e.applyRowsLocked(entry.Rows, entry.Total, 0)
			e.fromCache = true
			e.logger.Debug("cache hit", "key", key, "access_count", entry.AccessCount)
			return
		}
	}

	ctx, req, ok := e.requests.Begin(e.ctx, key, force)
	if !ok {
		e.logger.Debug("duplicate request suppressed", "key", key)
		return
	}

	e.loading = true
	e.fromCache = false
	params := FetchParams(e.view)

	e.logger.Debug("fetch started", "key", key, "request_id", req.ID, "forced", force)
	go e.fetch(ctx, req, params)
}

func (e *Engine) fetch(ctx context.Context, req *InFlightRequest, params url.Values) {
	page, err := e.source.FetchPage(ctx, e.opts.Endpoint, params)
	if err == nil && page == nil {
		err = fmt.Errorf("%w: empty page", ErrMalformedResponse)
	}

	e.mu.Lock()
	outcome := e.requests.Classify(req, err)
	if e.closed {
		outcome = OutcomeCancelled
	}
	logger := e.logger.With(
		"key", req.Key,
		"request_id", req.ID,
		"outcome", outcome.String(),
		"duration_ms", time.Since(req.StartedAt).Milliseconds(),
	)

	switch outcome {
	case OutcomeSucceeded:
		e.cache.Set(req.Key, page.Rows, page.Total)
		if page.Page > 0 && page.Page != e.view.Page {
			// The source clamped an out-of-range page; adopt the page it served.
			logger.Debug("page clamped by source", "requested", e.view.Page, "served", page.Page)
			e.view.Page = page.Page
			e.cache.Set(EncodeKey(e.opts.Endpoint, e.view), page.Rows, page.Total)
			e.syncURLLocked()
		}
		e.applyRowsLocked(page.Rows, page.Total, page.TotalPages)
		e.fromCache = false
		logger.Debug("fetch succeeded", "rows", len(page.Rows), "total", page.Total)

	case OutcomeFailed:
		e.rows = []Row{}
		e.total = 0
		e.totalPages = 0
		e.loading = false
		e.errMsg = UserMessage(err)
		e.fromCache = false
		e.logFailure(logger, err)

	case OutcomeCancelled:
		if e.requests.IsLatest(req) {
			e.loading = false
		}
		logger.Debug("fetch cancelled")

	case OutcomeStale:
		logger.Debug("stale response discarded")
	}

	e.requests.Finish(req)

	if outcome == OutcomeStale || e.closed {
		e.mu.Unlock()
		return
	}
	st := e.publishLocked()
	e.mu.Unlock()
	e.notify(st)
}

func (e *Engine) logFailure(logger *slog.Logger, err error) {
	if !IsContractViolation(err) {
		logger.Warn("fetch failed", "error", err)
		return
	}
	if e.opts.Development {
		logger.Error("data source contract violation", "error", err, "detail", fmt.Sprintf("%#v", err))
		return
	}
	logger.Error("data source contract violation", "error", err)
}

// applyRowsLocked commits a successful result. totalPages of 0 is derived
// from total and the committed page size.
func (e *Engine) applyRowsLocked(rows []Row, total, totalPages int) {
	if rows == nil {
		rows = []Row{}
	}
	if totalPages <= 0 {
		totalPages = pageCount(total, e.view.PageSize)
	}
	e.rows = rows
	e.total = total
	e.totalPages = totalPages
	e.loading = false
	e.errMsg = ""
}

func pageCount(total, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// resetInputsLocked makes the visible inputs match the committed view.
func (e *Engine) resetInputsLocked() {
	e.localFilters = cloneFilters(e.view.Filters)
	e.searchInput = e.view.Search
}

func (e *Engine) snapshotLocked() State {
	rows := make([]Row, len(e.rows))
	copy(rows, e.rows)

	return State{
		Data:         rows,
		Loading:      e.loading,
		Error:        e.errMsg,
		Total:        e.total,
		Page:         e.view.Page,
		PageSize:     e.view.PageSize,
		TotalPages:   e.totalPages,
		SortBy:       e.view.SortField,
		SortDir:      e.view.SortDir,
		Filters:      cloneFilters(e.view.Filters),
		LocalFilters: cloneFilters(e.localFilters),
		SelectedRows: e.selection.IDs(),
		GlobalSearch: e.searchInput,
		Search:       e.view.Search,
		FromCache:    e.fromCache,
		Version:      e.version,
	}
}

// publishLocked bumps the version and returns the snapshot to notify.
func (e *Engine) publishLocked() published {
	e.version++
	st := e.snapshotLocked()
	fns := make([]func(State), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	return published{state: st, listeners: fns}
}

type published struct {
	state     State
	listeners []func(State)
}

func (p published) view() ViewState {
	return ViewState{
		Page:      p.state.Page,
		PageSize:  p.state.PageSize,
		SortField: p.state.SortBy,
		SortDir:   p.state.SortDir,
		Filters:   p.state.Filters,
		Search:    p.state.Search,
	}
}

func (e *Engine) notify(p published) {
	for _, fn := range p.listeners {
		fn(p.state)
	}
}

func cloneFilters(f Filters) Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
