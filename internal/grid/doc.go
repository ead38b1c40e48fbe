// Package grid is the request and cache orchestration engine behind a
// paginated, filterable, sortable, searchable, multi-select data table.
//
// It turns user intents into a minimal, correctly ordered sequence of data
// source requests and knows nothing about how rows are rendered.
//
// # Components
//
//   - QueryKey codec ([EncodeKey], [FetchParams]): deterministic key for a
//     query shape, independent of filter insertion order.
//   - [Cache]: bounded result cache with TTL expiry and
//     (last access, access count) eviction.
//   - [RequestManager]: one active request lineage; superseded requests are
//     cancelled and their results dropped.
//   - [Debouncer]: coalesces free-text edits into one commit.
//   - URL synchronizer ([ToViewState], [ToURLParams]): the URL is the durable
//     copy of the view, so back/forward and shared links work.
//   - [Selection]: selected row ids across pages.
//   - [Engine]: composes the above and exposes [State] plus commands.
//
// # Usage
//
//	history := grid.NewMemoryHistory(initialQuery)
//	engine := grid.New(source, history, grid.Options{
//	    Endpoint: "/api/tables/users",
//	    Defaults: grid.Defaults{PageSize: 25},
//	})
//	engine.Subscribe(render)
//	engine.Mount(ctx)
//	defer engine.Close()
//
//	engine.TypeFilter("name", "John")  // debounced
//	engine.UpdateSort("email", grid.SortDesc)
//	engine.UpdatePagination(2, 0)
package grid
