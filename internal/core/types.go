package core

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// FieldType represents the data type of a table column. It decides how
// filter values are parsed and which columns take part in global search.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldNumeric
	FieldBool
	FieldInt
)

// String returns the lowercase type name used in the table listing.
func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "text"
	case FieldEnum:
		return "enum"
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "numeric"
	case FieldBool:
		return "bool"
	case FieldInt:
		return "int"
	default:
		return "unknown"
	}
}

// FieldSpec describes a single column of a registered table.
type FieldSpec struct {
	Name       string    // Column name as exposed over the API
	DBColumn   string    // Database column name (if different from Name, otherwise derived)
	Type       FieldType // Data type
	EnumValues []string  // Valid values for FieldEnum type
}

// TableInfo contains display information about a table.
type TableInfo struct {
	Key     string   `json:"key"`     // Unique identifier and database table name: "users"
	Group   string   `json:"group"`   // Grouping for listings: "Accounts"
	Label   string   `json:"label"`   // Display name: "Users"
	Columns []string `json:"columns"` // Column names in display order
}

// TableDefinition contains everything needed to query a table.
type TableDefinition struct {
	Info       TableInfo
	FieldSpecs []FieldSpec
}

// Spec returns the FieldSpec for column (case-insensitive).
func (t TableDefinition) Spec(column string) (FieldSpec, bool) {
	for _, spec := range t.FieldSpecs {
		if strings.EqualFold(spec.Name, column) {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// FilterOperator represents a comparison operator for column filters.
type FilterOperator string

const (
	OpContains   FilterOperator = "contains"
	OpEquals     FilterOperator = "eq"
	OpStartsWith FilterOperator = "starts"
	OpGreaterEq  FilterOperator = "gte"
	OpLessEq     FilterOperator = "lte"
	OpIn         FilterOperator = "in"
)

// ColumnFilter represents a single filter condition on a column.
type ColumnFilter struct {
	Column   string         // Display column name
	DBColumn string         // Database column name
	Operator FilterOperator // Comparison operator
	Value    string         // Filter value (comma-separated for OpIn)
	Type     FieldType      // Column type for proper SQL generation
}

// FilterSet represents all active filters (combined with AND logic).
type FilterSet struct {
	Filters []ColumnFilter
}

// SortSpec represents the sort column and direction.
type SortSpec struct {
	Column string // Display column name
	Dir    string // "asc" or "desc"
}

// TableRow represents a single row of data as key-value pairs.
type TableRow map[string]interface{}

// TableDataResult contains one page of table data.
type TableDataResult struct {
	Rows       []TableRow `json:"rows"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalPages int        `json:"totalPages"`
	Sort       SortSpec   `json:"-"`
}
