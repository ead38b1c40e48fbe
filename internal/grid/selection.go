package grid

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Identity fields checked in order by RowID.
const (
	IDField    = "id"
	AltIDField = "_id"
)

// RowID returns the stable identifier of row: "id", falling back to "_id".
// Returns false when the row has neither, or only empty ones.
func RowID(row Row) (string, bool) {
	for _, field := range []string{IDField, AltIDField} {
		if id, ok := formatID(row[field]); ok {
			return id, true
		}
	}
	return "", false
}

func formatID(v any) (string, bool) {
	switch id := v.(type) {
	case nil:
		return "", false
	case string:
		return id, id != ""
	case json.Number:
		return id.String(), id != ""
	case int:
		return strconv.Itoa(id), true
	case int32:
		return strconv.FormatInt(int64(id), 10), true
	case int64:
		return strconv.FormatInt(id, 10), true
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case fmt.Stringer:
		s := id.String()
		return s, s != ""
	default:
		s := fmt.Sprint(id)
		return s, s != ""
	}
}

// Selection is the set of selected row ids. It outlives page, sort and
// filter changes; only the host decides when to clear it.
type Selection struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle flips membership of id. Empty ids are ignored.
// Returns whether id is selected afterwards.
func (s *Selection) Toggle(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAllOnPage selects every identifiable row in rows unless all of them
// are already selected, in which case it deselects them. Selections outside
// rows are untouched. Returns true if the page ended up selected.
func (s *Selection) SelectAllOnPage(rows []Row) bool {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if id, ok := RowID(row); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := true
	for _, id := range ids {
		if _, ok := s.ids[id]; !ok {
			all = false
			break
		}
	}

	for _, id := range ids {
		if all {
			delete(s.ids, id)
		} else {
			s.ids[id] = struct{}{}
		}
	}
	return !all
}

// Clear removes every selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]struct{})
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// IDs returns the selected ids in sorted order.
func (s *Selection) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
