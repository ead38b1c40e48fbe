package grid

// urlsync.go maps between ViewState and URL query parameters.
//
// The URL is the persisted representation of the view; the engine's
// ViewState is the working copy. Encoding omits defaults so links stay
// short, and leaves parameters the table does not own untouched.

import (
	"net/url"
	"strconv"
	"strings"
)

// ToViewState decodes params into a ViewState, falling back to d for
// anything absent or invalid.
func ToViewState(params url.Values, d Defaults) ViewState {
	v := d.Initial()

	if n, ok := positiveInt(params.Get(ParamPage)); ok {
		v.Page = n
	}
	if n, ok := positiveInt(params.Get(ParamPageSize)); ok {
		v.PageSize = n
	}

	// An empty sortBy is an explicit "unsorted" that overrides a default sort.
	if field := strings.TrimSpace(params.Get(ParamSortBy)); field == "" && params.Has(ParamSortBy) {
		v.SortField, v.SortDir = "", SortNone
	} else if field != "" {
		v.SortField = field
		dir, ok := ParseSortDirection(params.Get(ParamSortDir))
		if !ok {
			dir = SortAsc
		}
		v.SortDir = dir
	}

	v.Search = params.Get(ParamSearch)

	filters := Filters{}
	for name, values := range params {
		field, ok := strings.CutPrefix(name, FilterPrefix)
		if !ok || field == "" || len(values) == 0 {
			continue
		}
		filters[field] = values[0]
	}
	v.Filters = filters

	return v.Normalize(d)
}

// ToURLParams encodes v on top of current, returning a new value.
// Table parameters in current are replaced; unrelated parameters are kept.
// Values equal to their default are omitted. Unsorted over a default sort is
// written as an empty sortBy.
func ToURLParams(v ViewState, current url.Values, d Defaults) url.Values {
	v = v.Normalize(d)

	out := url.Values{}
	for name, values := range current {
		if isTableParam(name) {
			continue
		}
		out[name] = append([]string(nil), values...)
	}

	if v.Page != 1 {
		out.Set(ParamPage, strconv.Itoa(v.Page))
	}
	if v.PageSize != d.pageSize() {
		out.Set(ParamPageSize, strconv.Itoa(v.PageSize))
	}

	defaultSort := d.Initial()
	if v.SortField != defaultSort.SortField || v.SortDir != defaultSort.SortDir {
		out.Set(ParamSortBy, v.SortField)
		if v.SortField != "" {
			out.Set(ParamSortDir, string(v.SortDir))
		}
	}

	if v.Search != "" {
		out.Set(ParamSearch, v.Search)
	}
	for field, value := range v.Filters {
		out.Set(FilterPrefix+field, value)
	}

	return out
}

// SameParams reports whether a and b encode to the same query string.
func SameParams(a, b url.Values) bool {
	return a.Encode() == b.Encode()
}

func isTableParam(name string) bool {
	switch name {
	case ParamPage, ParamPageSize, ParamSortBy, ParamSortDir, ParamSearch:
		return true
	}
	return strings.HasPrefix(name, FilterPrefix)
}

func positiveInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
