package core

// where.go builds parameterized WHERE clauses for table queries.
//
// Identifiers are always quoted with quoteIdentifier and values are always
// passed as $N arguments, so user input never reaches the SQL text.

import (
	"fmt"
	"strings"
)

// WhereBuilder accumulates AND-ed conditions and their positional arguments.
type WhereBuilder struct {
	conditions []string
	args       []interface{}
	argIndex   int
}

// NewWhereBuilder creates an empty builder whose first placeholder is $1.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends "column = $N". Empty values are skipped.
func (wb *WhereBuilder) Add(column, value string) {
	if value == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", column, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// AddSearch ORs a case-insensitive contains match over every text column.
// All columns share one placeholder.
func (wb *WhereBuilder) AddSearch(query string, specs []FieldSpec) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	var parts []string
	for _, spec := range specs {
		if spec.Type != FieldText {
			continue
		}
		col := spec.DBColumn
		if col == "" {
			col = toDBColumnName(spec.Name)
		}
		parts = append(parts, fmt.Sprintf("%s ILIKE $%d", quoteIdentifier(col), wb.argIndex))
	}
	if len(parts) == 0 {
		return
	}

	wb.conditions = append(wb.conditions, "("+strings.Join(parts, " OR ")+")")
	wb.args = append(wb.args, "%"+escapeLike(query)+"%")
	wb.argIndex++
}

// AddFilters appends one condition per filter.
func (wb *WhereBuilder) AddFilters(filters FilterSet) {
	for _, f := range filters.Filters {
		cond, args, next := buildSingleFilter(f, wb.argIndex)
		if cond == "" {
			continue
		}
		wb.conditions = append(wb.conditions, cond)
		wb.args = append(wb.args, args...)
		wb.argIndex = next
	}
}

// NextArgIndex returns the placeholder number for the next argument, for
// callers that append LIMIT/OFFSET after the WHERE clause.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// Build returns " WHERE ..." and its arguments, or "" and nil when there are
// no conditions.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

// buildSingleFilter generates SQL for a single filter.
func buildSingleFilter(f ColumnFilter, argIdx int) (string, []interface{}, int) {
	col := quoteIdentifier(f.DBColumn)

	switch f.Operator {
	case OpContains:
		return fmt.Sprintf("%s ILIKE $%d", col, argIdx),
			[]interface{}{"%" + escapeLike(f.Value) + "%"}, argIdx + 1

	case OpStartsWith:
		return fmt.Sprintf("%s ILIKE $%d", col, argIdx),
			[]interface{}{escapeLike(f.Value) + "%"}, argIdx + 1

	case OpEquals:
		return fmt.Sprintf("%s = $%d", col, argIdx),
			[]interface{}{filterArg(f.Type, f.Value)}, argIdx + 1

	case OpGreaterEq:
		return fmt.Sprintf("%s >= $%d", col, argIdx),
			[]interface{}{filterArg(f.Type, f.Value)}, argIdx + 1

	case OpLessEq:
		return fmt.Sprintf("%s <= $%d", col, argIdx),
			[]interface{}{filterArg(f.Type, f.Value)}, argIdx + 1

	case OpIn:
		values := splitList(f.Value)
		if len(values) == 0 {
			return "", nil, argIdx
		}
		placeholders := make([]string, len(values))
		filterArgs := make([]interface{}, len(values))
		for i, v := range values {
			placeholders[i] = fmt.Sprintf("$%d", argIdx+i)
			filterArgs[i] = filterArg(f.Type, v)
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")),
			filterArgs, argIdx + len(values)

	default:
		return "", nil, argIdx
	}
}

// filterArg converts a validated filter value to the pgtype value for the
// column type. Text and enum values are passed through as strings.
func filterArg(t FieldType, value string) interface{} {
	switch t {
	case FieldNumeric:
		return ToPgNumeric(value)
	case FieldDate:
		return ToPgDate(value)
	case FieldBool:
		return ToPgBool(value)
	case FieldInt:
		return ToPgInt8(value)
	default:
		return value
	}
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// containsColumn checks if a column name exists in the list.
func containsColumn(columns []string, target string) bool {
	for _, col := range columns {
		if strings.EqualFold(col, target) {
			return true
		}
	}
	return false
}

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteColumns quotes each column name in the slice.
func quoteColumns(cols []string) []string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdentifier(col)
	}
	return quoted
}

// toDBColumnName converts a display column name to a database column name.
// "Created At" -> "created_at"
// "user_id" -> "user_id" (no change if already snake_case)
func toDBColumnName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// resolveDBColumn returns the database column name for a given field name.
// It checks the FieldSpecs for a DBColumn mapping, falling back to snake_case conversion.
func resolveDBColumn(col string, specs []FieldSpec) string {
	for _, spec := range specs {
		if strings.EqualFold(spec.Name, col) && spec.DBColumn != "" {
			return spec.DBColumn
		}
	}
	return toDBColumnName(col)
}

// resolveDBColumns returns database column names for multiple field names.
func resolveDBColumns(cols []string, specs []FieldSpec) []string {
	result := make([]string, len(cols))
	for i, col := range cols {
		result[i] = resolveDBColumn(col, specs)
	}
	return result
}
