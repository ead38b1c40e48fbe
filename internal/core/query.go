package core

// query.go implements the read side of the table API: request parameter
// parsing, paginated page reads and the streaming export read.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrTableNotFound is returned for table keys missing from the registry.
	ErrTableNotFound = errors.New("table not found")

	// ErrInvalidFilter is returned when a filter value does not parse as the
	// column type or is not one of its enum values.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrUnknownColumn is returned for filters on columns the table lacks.
	ErrUnknownColumn = errors.New("unknown column")
)

// Query parameter names shared with the client.
const (
	ParamPage     = "page"
	ParamPageSize = "pageSize"
	ParamSortBy   = "sortBy"
	ParamSortDir  = "sortDir"
	ParamSearch   = "search"
	FilterPrefix  = "filter_"
)

// TableQuery is a parsed request for table data.
type TableQuery struct {
	Page     int
	PageSize int
	Sort     SortSpec
	Search   string
	Filters  FilterSet
}

// QueryLimits bounds page sizes accepted from clients.
type QueryLimits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// ParseTableQuery reads page, pageSize, sortBy, sortDir, search and
// filter_<column> parameters. Malformed numbers fall back to defaults and the
// page size is capped; filters are validated against the table's columns.
// Text columns filter with a contains match, enum columns accept a
// comma-separated list, other types match exactly.
func ParseTableQuery(def TableDefinition, params url.Values, limits QueryLimits) (TableQuery, error) {
	q := TableQuery{
		Page:     positiveInt(params.Get(ParamPage), 1),
		PageSize: positiveInt(params.Get(ParamPageSize), limits.DefaultPageSize),
		Search:   strings.TrimSpace(params.Get(ParamSearch)),
	}
	if q.PageSize < 1 {
		q.PageSize = 25
	}
	if limits.MaxPageSize > 0 && q.PageSize > limits.MaxPageSize {
		q.PageSize = limits.MaxPageSize
	}

	if col := params.Get(ParamSortBy); col != "" {
		q.Sort = SortSpec{Column: col, Dir: strings.ToLower(params.Get(ParamSortDir))}
	}

	for key, values := range params {
		if !strings.HasPrefix(key, FilterPrefix) || len(values) == 0 {
			continue
		}
		column := strings.TrimPrefix(key, FilterPrefix)
		value := strings.TrimSpace(values[0])
		if column == "" || value == "" {
			continue
		}

		f, err := buildColumnFilter(def, column, value)
		if err != nil {
			return TableQuery{}, err
		}
		q.Filters.Filters = append(q.Filters.Filters, f)
	}

	// Map iteration order is random; keep placeholders deterministic.
	sortFilters(q.Filters.Filters)

	return q, nil
}

func buildColumnFilter(def TableDefinition, column, value string) (ColumnFilter, error) {
	spec, ok := def.Spec(column)
	if !ok {
		return ColumnFilter{}, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}

	f := ColumnFilter{
		Column:   spec.Name,
		DBColumn: resolveDBColumn(spec.Name, def.FieldSpecs),
		Operator: OpEquals,
		Value:    value,
		Type:     spec.Type,
	}

	switch spec.Type {
	case FieldText:
		f.Operator = OpContains
	case FieldEnum:
		values := splitList(value)
		for _, v := range values {
			if !containsColumn(spec.EnumValues, v) {
				return ColumnFilter{}, fmt.Errorf("%w for %s: %q", ErrInvalidFilter, spec.Name, v)
			}
		}
		if len(values) > 1 {
			f.Operator = OpIn
		}
	default:
		if !validFilterValue(spec.Type, value) {
			return ColumnFilter{}, fmt.Errorf("%w for %s: %q", ErrInvalidFilter, spec.Name, value)
		}
	}

	return f, nil
}

func sortFilters(filters []ColumnFilter) {
	sort.Slice(filters, func(i, j int) bool {
		return filters[i].Column < filters[j].Column
	})
}

func positiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// Service serves table reads from PostgreSQL.
type Service struct {
	db     DBTX
	logger *slog.Logger
}

// NewService creates a new Service instance.
func NewService(db DBTX, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger}
}

// ListTables returns information about all registered tables.
func (s *Service) ListTables() []TableInfo {
	defs := Tables()
	infos := make([]TableInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// ListTablesByGroup returns the registered tables grouped for display.
func (s *Service) ListTablesByGroup() []TableGroup {
	return Groups()
}

// orderBy resolves the sort to an ORDER BY expression. Unknown columns fall
// back to the first column ascending. The first column is appended as a tie
// breaker so OFFSET paging is stable.
func orderBy(def TableDefinition, spec SortSpec) (string, SortSpec) {
	columns := def.Info.Columns
	first := resolveDBColumn(columns[0], def.FieldSpecs)

	if spec.Column == "" || !containsColumn(columns, spec.Column) {
		return quoteIdentifier(first) + " asc", SortSpec{Column: columns[0], Dir: "asc"}
	}

	dir := spec.Dir
	if dir != "asc" && dir != "desc" {
		dir = "asc"
	}
	col := resolveDBColumn(spec.Column, def.FieldSpecs)
	expr := fmt.Sprintf("%s %s", quoteIdentifier(col), dir)
	if col != first {
		expr += ", " + quoteIdentifier(first) + " asc"
	}
	return expr, SortSpec{Column: spec.Column, Dir: dir}
}

// GetTableData fetches one page of sorted, filtered and searched rows.
// The page is clamped to the last page that has rows, or 1 when nothing
// matches.
func (s *Service) GetTableData(ctx context.Context, tableKey string, q TableQuery) (*TableDataResult, error) {
	def, err := Lookup(tableKey)
	if err != nil {
		return nil, err
	}

	displayColumns := def.Info.Columns
	dbColumns := resolveDBColumns(displayColumns, def.FieldSpecs)
	quotedCols := quoteColumns(dbColumns)

	wb := NewWhereBuilder()
	wb.AddSearch(q.Search, def.FieldSpecs)
	wb.AddFilters(q.Filters)
	whereClause, queryArgs := wb.Build()

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quoteIdentifier(tableKey), whereClause)
	var totalRows int64
	if err := s.db.QueryRow(ctx, countQuery, queryArgs...).Scan(&totalRows); err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}

	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = 25
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	totalPages := int((totalRows + int64(pageSize) - 1) / int64(pageSize))
	switch {
	case totalPages == 0:
		page = 1
	case page > totalPages:
		page = totalPages
	}
	offset := (page - 1) * pageSize

	order, applied := orderBy(def, q.Sort)

	argIndex := wb.NextArgIndex()
	query := fmt.Sprintf(
		"SELECT %s FROM %s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		strings.Join(quotedCols, ", "),
		quoteIdentifier(tableKey),
		whereClause,
		order,
		argIndex,
		argIndex+1,
	)
	queryArgs = append(queryArgs, pageSize, offset)

	rows := make([]TableRow, 0, pageSize)
	err = s.scanRows(ctx, def, query, queryArgs, func(row TableRow) error {
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("table page read",
		"table", tableKey,
		"page", page,
		"page_size", pageSize,
		"rows", len(rows),
		"total", totalRows,
	)

	return &TableDataResult{
		Rows:       rows,
		Total:      totalRows,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Sort:       applied,
	}, nil
}

// StreamTableData streams every matching row via callback, without
// pagination, in the same order GetTableData would page them.
// Returns after all rows are processed or on first error.
func (s *Service) StreamTableData(ctx context.Context, tableKey string, q TableQuery, callback func(row TableRow) error) error {
	def, err := Lookup(tableKey)
	if err != nil {
		return err
	}

	quotedCols := quoteColumns(resolveDBColumns(def.Info.Columns, def.FieldSpecs))

	wb := NewWhereBuilder()
	wb.AddSearch(q.Search, def.FieldSpecs)
	wb.AddFilters(q.Filters)
	whereClause, queryArgs := wb.Build()

	order, _ := orderBy(def, q.Sort)
	query := fmt.Sprintf(
		"SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(quotedCols, ", "),
		quoteIdentifier(tableKey),
		whereClause,
		order,
	)

	return s.scanRows(ctx, def, query, queryArgs, callback)
}

func (s *Service) scanRows(ctx context.Context, def TableDefinition, query string, args []interface{}, callback func(TableRow) error) error {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	types := def.ColumnTypes()

	for rows.Next() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		values, err := rows.Values()
		if err != nil {
			return fmt.Errorf("read row values: %w", err)
		}

		row := make(TableRow, len(def.Info.Columns))
		for i, col := range def.Info.Columns {
			if i < len(values) {
				row[col] = CellValue(types[i], values[i])
			}
		}

		if err := callback(row); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	return nil
}
