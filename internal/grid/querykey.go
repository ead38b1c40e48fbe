package grid

// querykey.go builds the deterministic key that identifies a query for
// caching and in-flight deduplication.
//
// The key is the endpoint followed by the canonical fetch parameters.
// url.Values.Encode sorts parameter names and escapes values, so two view
// states that only differ in filter insertion order encode identically.

import (
	"net/url"
	"strconv"
)

// URL and fetch parameter names.
const (
	ParamPage     = "page"
	ParamPageSize = "pageSize"
	ParamSortBy   = "sortBy"
	ParamSortDir  = "sortDir"
	ParamSearch   = "search"
	ParamExport   = "export"

	// FilterPrefix prefixes one parameter per active filter: filter_<field>.
	FilterPrefix = "filter_"
)

// FetchParams returns the parameters sent to the data source for v.
// Page and page size are always present; everything else only when set.
func FetchParams(v ViewState) url.Values {
	params := url.Values{}
	params.Set(ParamPage, strconv.Itoa(v.Page))
	params.Set(ParamPageSize, strconv.Itoa(v.PageSize))
	if v.SortField != "" && v.SortDir != SortNone {
		params.Set(ParamSortBy, v.SortField)
		params.Set(ParamSortDir, string(v.SortDir))
	}
	if v.Search != "" {
		params.Set(ParamSearch, v.Search)
	}
	for field, value := range v.Filters {
		if field == "" || value == "" {
			continue
		}
		params.Set(FilterPrefix+field, value)
	}
	return params
}

// ExportParams returns the fetch parameters for a CSV export of v:
// the same query without pagination, plus export=csv.
func ExportParams(v ViewState) url.Values {
	params := FetchParams(v)
	params.Del(ParamPage)
	params.Del(ParamPageSize)
	params.Set(ParamExport, "csv")
	return params
}

// EncodeKey returns the cache and dedup key for endpoint and v.
func EncodeKey(endpoint string, v ViewState) string {
	return endpoint + "?" + FetchParams(v).Encode()
}
