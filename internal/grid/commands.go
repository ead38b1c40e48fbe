package grid

// commands.go holds the intents exposed to the rendering layer.
//
// Discrete controls (select filters, sort, pagination, clear) commit
// immediately. Free-text inputs update the visible value synchronously and
// commit through a debouncer. No command returns an error: failures surface
// as State.Error.

import "net/url"

// UpdateFilters merges filters into the committed filters and commits
// immediately. Empty values remove a filter. Any pending free-text edit is
// folded into the same commit. The page resets to 1.
func (e *Engine) UpdateFilters(filters Filters) {
	e.filterDebounce.Cancel()

	e.mu.Lock()
	merged := cloneFilters(e.localFilters)
	for field, value := range filters {
		if value == "" {
			delete(merged, field)
			continue
		}
		merged[field] = value
	}
	e.localFilters = merged

	next := e.view
	next.Filters = merged.Clean()
	next.Page = 1
	e.commitLocked(next)
	st := e.publishLocked()
	e.mu.Unlock()

	e.notify(st)
}

// TypeFilter records free-text input for field. The visible value updates
// immediately; the committed filter follows after the debounce quiet period.
func (e *Engine) TypeFilter(field, text string) {
	if field == "" {
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.localFilters[field] = text
	st := e.publishLocked()
	e.mu.Unlock()
	e.notify(st)

	e.filterDebounce.Call(e.commitLocalFilters)
}

func (e *Engine) commitLocalFilters() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	next := e.view
	next.Filters = e.localFilters.Clean()
	if next.Filters.Equal(e.view.Filters) {
		e.mu.Unlock()
		return
	}
	next.Page = 1
	e.commitLocked(next)
	st := e.publishLocked()
	e.mu.Unlock()

	e.notify(st)
}

// UpdateGlobalSearch records search input. The visible value updates
// immediately; the committed search follows after the debounce quiet period.
func (e *Engine) UpdateGlobalSearch(term string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.searchInput = term
	st := e.publishLocked()
	e.mu.Unlock()
	e.notify(st)

	e.searchDebounce.Call(e.commitSearch)
}

func (e *Engine) commitSearch() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	next := e.view
	next.Search = e.searchInput
	if next.Normalize(e.opts.Defaults).Search == e.view.Search {
		e.mu.Unlock()
		return
	}
	next.Page = 1
	e.commitLocked(next)
	st := e.publishLocked()
	e.mu.Unlock()

	e.notify(st)
}

// FlushInputs commits pending free-text edits without waiting.
func (e *Engine) FlushInputs() {
	e.filterDebounce.Flush()
	e.searchDebounce.Flush()
}

// ClearFilters drops every filter and the global search, discarding pending
// debounced edits, and commits immediately.
func (e *Engine) ClearFilters() {
	e.filterDebounce.Cancel()
	e.searchDebounce.Cancel()

	e.mu.Lock()
	next := e.view
	next.Filters = Filters{}
	next.Search = ""
	next.Page = 1
	e.localFilters = Filters{}
	e.searchInput = ""
	e.commitLocked(next)
	st := e.publishLocked()
	e.mu.Unlock()

	e.notify(st)
}

// UpdateSort sets the sort column and direction. An empty field clears the
// sort. A field with no valid direction sorts ascending.
func (e *Engine) UpdateSort(field string, dir SortDirection) {
	e.mu.Lock()
	next := e.view
	next.SortField = field
	next.SortDir = dir
	e.commitLocked(next)
	st := e.publishLocked()
	e.mu.Unlock()

	e.notify(st)
}

// ToggleSort cycles field through ascending, descending and unsorted.
// A different field starts at ascending.
func (e *Engine) ToggleSort(field string) {
	e.mu.Lock()
	next := e.view
	switch {
	case next.SortField != field:
		next.SortField, next.SortDir = field, SortAsc
	case next.SortDir == SortAsc:
		next.SortDir = SortDesc
	default:
		next.SortField, next.SortDir = "", SortNone
	}
	e.commitLocked(next)
	st := e.publishLocked()
	e.mu.Unlock()

	e.notify(st)
}

// UpdatePagination moves to page and optionally changes the page size.
// A pageSize of 0 keeps the current size; a different size resets to page 1.
func (e *Engine) UpdatePagination(page, pageSize int) {
	e.mu.Lock()
	next := e.view
	next.Page = page
	if pageSize > 0 && pageSize != e.view.PageSize {
		next.PageSize = pageSize
		next.Page = 1
	}
	e.commitLocked(next)
	st := e.publishLocked()
	e.mu.Unlock()

	e.notify(st)
}

// Navigate applies a URL produced by browser navigation (back/forward).
// The view is re-derived from params and loaded exactly like a user change;
// pending free-text edits belong to the old view and are discarded.
func (e *Engine) Navigate(params url.Values) {
	e.filterDebounce.Cancel()
	e.searchDebounce.Cancel()

	e.mu.Lock()
	e.view = ToViewState(params, e.opts.Defaults)
	e.resetInputsLocked()
	if e.mounted && !e.closed {
		e.syncURLLocked()
		e.loadLocked(false)
	}
	st := e.publishLocked()
	e.mu.Unlock()

	e.notify(st)
}

// Refetch reloads the committed view from the data source, bypassing the
// cache and any identical in-flight request.
func (e *Engine) Refetch() {
	e.mu.Lock()
	if !e.mounted || e.closed {
		e.mu.Unlock()
		return
	}
	e.loadLocked(true)
	st := e.publishLocked()
	e.mu.Unlock()

	e.notify(st)
}

// SelectRow toggles selection of the row with id.
func (e *Engine) SelectRow(id string) {
	e.selection.Toggle(id)
	e.publish()
}

// SelectAllRows selects every row on the current page, or deselects them all
// when they are already selected. Other pages' selections are kept.
func (e *Engine) SelectAllRows() {
	e.mu.Lock()
	rows := e.rows
	e.mu.Unlock()

	e.selection.SelectAllOnPage(rows)
	e.publish()
}

// ClearSelection deselects every row.
func (e *Engine) ClearSelection() {
	e.selection.Clear()
	e.publish()
}

func (e *Engine) publish() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	st := e.publishLocked()
	e.mu.Unlock()
	e.notify(st)
}
