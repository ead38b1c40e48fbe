package grid

import (
	"net/url"
	"sync"
)

// MemoryHistory is an in-memory model of browser history for one page.
// It implements Location; Back and Forward return the query the host should
// pass to Engine.Navigate.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []url.Values
	index   int
}

// NewMemoryHistory creates a history with a single entry.
func NewMemoryHistory(initial url.Values) *MemoryHistory {
	return &MemoryHistory{entries: []url.Values{cloneValues(initial)}}
}

// Query returns the current entry.
func (h *MemoryHistory) Query() url.Values {
	h.mu.Lock()
	defer h.mu.Unlock()
	return cloneValues(h.entries[h.index])
}

// Replace overwrites the current entry.
func (h *MemoryHistory) Replace(params url.Values) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = cloneValues(params)
}

// Push adds a new entry after the current one, dropping any forward entries.
func (h *MemoryHistory) Push(params url.Values) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], cloneValues(params))
	h.index++
}

// Back moves to the previous entry. Returns false at the start of history.
func (h *MemoryHistory) Back() (url.Values, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index == 0 {
		return nil, false
	}
	h.index--
	return cloneValues(h.entries[h.index]), true
}

// Forward moves to the next entry. Returns false at the end of history.
func (h *MemoryHistory) Forward() (url.Values, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index >= len(h.entries)-1 {
		return nil, false
	}
	h.index++
	return cloneValues(h.entries[h.index]), true
}

// Len returns the number of entries.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
