package grid

import (
	"context"
	"net/url"
	"strings"
)

// SortDirection is the direction of the single active sort column.
type SortDirection string

const (
	SortNone SortDirection = ""
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection converts a URL value to a SortDirection.
// Returns false for anything other than "asc" or "desc" (case-insensitive).
func ParseSortDirection(s string) (SortDirection, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return SortAsc, true
	case "desc":
		return SortDesc, true
	default:
		return SortNone, false
	}
}

// Filters maps a column name to its filter value.
// Empty values mean "no filter" and are never serialized.
type Filters map[string]string

// Clean returns a copy without empty values or empty field names.
// Always returns a non-nil map.
func (f Filters) Clean() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Equal reports whether two filter sets are semantically identical.
func (f Filters) Equal(other Filters) bool {
	a, b := f.Clean(), other.Clean()
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// Row is a single table row as returned by the data source.
// The engine only looks at its identity fields.
type Row map[string]any

// ViewState is the complete description of what a table is displaying.
type ViewState struct {
	Page      int
	PageSize  int
	SortField string
	SortDir   SortDirection
	Filters   Filters
	Search    string
}

// Normalize returns a copy that satisfies the ViewState invariants:
// page and page size are at least 1, sort field and direction are set
// together, filters contain no empty values and search is trimmed.
func (v ViewState) Normalize(d Defaults) ViewState {
	out := v
	if out.Page < 1 {
		out.Page = 1
	}
	if out.PageSize < 1 {
		out.PageSize = d.pageSize()
	}
	if limit := d.MaxPageSize; limit > 0 && out.PageSize > limit {
		out.PageSize = limit
	}
	if out.SortField == "" {
		out.SortDir = SortNone
	} else if out.SortDir != SortAsc && out.SortDir != SortDesc {
		out.SortDir = SortAsc
	}
	out.Filters = out.Filters.Clean()
	out.Search = strings.TrimSpace(out.Search)
	return out
}

// Equal reports whether two view states select the same data.
func (v ViewState) Equal(other ViewState) bool {
	return v.Page == other.Page &&
		v.PageSize == other.PageSize &&
		v.SortField == other.SortField &&
		v.SortDir == other.SortDir &&
		v.Search == other.Search &&
		v.Filters.Equal(other.Filters)
}

// Defaults holds the view settings that are omitted from the URL.
type Defaults struct {
	PageSize    int
	MaxPageSize int
	SortField   string
	SortDir     SortDirection
}

// DefaultPageSize is used when Defaults.PageSize is not set.
const DefaultPageSize = 25

func (d Defaults) pageSize() int {
	if d.PageSize < 1 {
		return DefaultPageSize
	}
	return d.PageSize
}

// Initial returns the view state for a URL with no table parameters.
func (d Defaults) Initial() ViewState {
	return ViewState{
		Page:      1,
		PageSize:  d.pageSize(),
		SortField: d.SortField,
		SortDir:   d.SortDir,
		Filters:   Filters{},
	}.Normalize(d)
}

// Page is one page of results from the data source.
type Page struct {
	Rows       []Row
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// DataSource is the network collaborator that serves table pages and exports.
// Both calls must honor ctx cancellation.
type DataSource interface {
	FetchPage(ctx context.Context, endpoint string, params url.Values) (*Page, error)
	FetchExport(ctx context.Context, endpoint string, params url.Values) ([]byte, error)
}

// FileSaver persists exported bytes and returns where they ended up.
type FileSaver interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// Location is the URL collaborator. The engine reads the current query on
// mount and replaces it after every committed change.
type Location interface {
	Query() url.Values
	Replace(params url.Values)
}
