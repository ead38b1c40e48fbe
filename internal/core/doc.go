// Package core provides the server-side table query logic behind the table API.
//
// This package contains the domain logic independent of any transport. It is
// used by the web handlers and can be exercised by tests without a database
// through the [DBTX] interface.
//
// # Table Registry
//
// Tables are registered at init time using [Register]. Each [TableDefinition]
// names its columns and their types; the types decide how filters parse and
// which columns take part in global search:
//
//	core.Register(core.TableDefinition{
//	    Info: core.TableInfo{Key: "users", Group: "Accounts", Label: "Users"},
//	    FieldSpecs: []core.FieldSpec{
//	        {Name: "id", Type: core.FieldInt},
//	        {Name: "name", Type: core.FieldText},
//	        {Name: "status", Type: core.FieldEnum, EnumValues: []string{"active", "invited"}},
//	    },
//	})
//
// # Queries
//
// [ParseTableQuery] turns request parameters (page, pageSize, sortBy, sortDir,
// search, filter_<column>) into a [TableQuery]. [Service.GetTableData] reads one
// page; [Service.ExportCSV] streams every matching row as CSV. SQL is built by
// [WhereBuilder] with quoted identifiers and positional arguments only.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB004-DB006: Database connection errors
//   - QRY001-QRY002: Filter errors
//   - EXP001: Export concurrency
//   - REQ001-REQ002: Request cancellation and timeouts
//   - TBL001-TBL002: Unknown tables
//
// # Concurrency
//
// [ExportLimiter] bounds the number of exports streaming at once, since each
// holds a database connection for its whole duration.
package core
