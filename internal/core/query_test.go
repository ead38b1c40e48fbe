package core

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// ============================================================================
// Fakes
// ============================================================================

type fakeQuery struct {
	sql  string
	args []interface{}
}

// fakeDB records statements and serves a fixed count and row set.
type fakeDB struct {
	count    int64
	rows     [][]interface{}
	queryErr error
	queries  []fakeQuery
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not implemented")
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	f.queries = append(f.queries, fakeQuery{sql: sql, args: args})
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{rows: f.rows, idx: -1}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	f.queries = append(f.queries, fakeQuery{sql: sql, args: args})
	return fakeRow{count: f.count}
}

type fakeRow struct {
	count int64
}

func (r fakeRow) Scan(dest ...interface{}) error {
	*(dest[0].(*int64)) = r.count
	return nil
}

type fakeRows struct {
	rows [][]interface{}
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Scan(dest ...interface{}) error               { return errors.New("not implemented") }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *fakeRows) Values() ([]interface{}, error) {
	return r.rows[r.idx], nil
}

var ordersTable = TableDefinition{
	Info: TableInfo{Key: "orders", Group: "Sales", Label: "Orders"},
	FieldSpecs: []FieldSpec{
		{Name: "id", Type: FieldInt},
		{Name: "customer", Type: FieldText},
		{Name: "status", Type: FieldEnum, EnumValues: []string{"pending", "paid", "refunded"}},
		{Name: "amount", Type: FieldNumeric},
		{Name: "ordered_on", Type: FieldDate},
		{Name: "Gift Wrap", DBColumn: "gift", Type: FieldBool},
	},
}

func registerOrders(t *testing.T) TableDefinition {
	t.Helper()
	unregisterAll()
	Register(ordersTable)
	t.Cleanup(unregisterAll)
	def, err := Lookup("orders")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	return def
}

func numeric(s string) pgtype.Numeric {
	return ToPgNumeric(s)
}

func orderRow(id int64, customer, status, amount string, on time.Time, gift bool) []interface{} {
	return []interface{}{id, customer, status, numeric(amount), on, gift}
}

// ============================================================================
// ParseTableQuery
// ============================================================================

var limits = QueryLimits{DefaultPageSize: 25, MaxPageSize: 100}

func TestParseTableQuery_Defaults(t *testing.T) {
	def := registerOrders(t)

	q, err := ParseTableQuery(def, url.Values{}, limits)
	if err != nil {
		t.Fatalf("ParseTableQuery: %v", err)
	}
	if q.Page != 1 || q.PageSize != 25 {
		t.Errorf("page = %d/%d, want 1/25", q.Page, q.PageSize)
	}
	if q.Sort.Column != "" || q.Search != "" || len(q.Filters.Filters) != 0 {
		t.Errorf("query = %+v, want empty sort/search/filters", q)
	}
}

func TestParseTableQuery_Lenient(t *testing.T) {
	def := registerOrders(t)

	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"garbage page", "page=abc&pageSize=10", 1, 10},
		{"negative page", "page=-3", 1, 25},
		{"zero size", "pageSize=0", 1, 25},
		{"size capped", "page=4&pageSize=5000", 4, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, _ := url.ParseQuery(tt.query)
			q, err := ParseTableQuery(def, params, limits)
			if err != nil {
				t.Fatalf("ParseTableQuery: %v", err)
			}
			if q.Page != tt.wantPage || q.PageSize != tt.wantPageSize {
				t.Errorf("page = %d/%d, want %d/%d", q.Page, q.PageSize, tt.wantPage, tt.wantPageSize)
			}
		})
	}
}

func TestParseTableQuery_Filters(t *testing.T) {
	def := registerOrders(t)

	params, _ := url.ParseQuery("filter_status=paid,refunded&filter_customer=acme&filter_amount=100&filter_gift%20wrap=yes&filter_ordered_on=&sortBy=amount&sortDir=DESC&search=%20big%20")
	q, err := ParseTableQuery(def, params, limits)
	if err != nil {
		t.Fatalf("ParseTableQuery: %v", err)
	}

	if q.Sort != (SortSpec{Column: "amount", Dir: "desc"}) {
		t.Errorf("Sort = %+v, want amount desc", q.Sort)
	}
	if q.Search != "big" {
		t.Errorf("Search = %q, want %q", q.Search, "big")
	}

	got := q.Filters.Filters
	if len(got) != 4 {
		t.Fatalf("filters = %+v, want 4 (empty value dropped)", got)
	}

	want := []struct {
		column string
		db     string
		op     FilterOperator
	}{
		{"Gift Wrap", "gift", OpEquals},
		{"amount", "amount", OpEquals},
		{"customer", "customer", OpContains},
		{"status", "status", OpIn},
	}
	for i, w := range want {
		if got[i].Column != w.column || got[i].DBColumn != w.db || got[i].Operator != w.op {
			t.Errorf("filter[%d] = %+v, want %s/%s/%s", i, got[i], w.column, w.db, w.op)
		}
	}
}

func TestParseTableQuery_FilterErrors(t *testing.T) {
	def := registerOrders(t)

	tests := []struct {
		name  string
		query string
		want  error
	}{
		{"unknown column", "filter_nickname=x", ErrUnknownColumn},
		{"bad numeric", "filter_amount=lots", ErrInvalidFilter},
		{"bad date", "filter_ordered_on=yesterday", ErrInvalidFilter},
		{"bad int", "filter_id=1.5", ErrInvalidFilter},
		{"bad enum", "filter_status=paid,lost", ErrInvalidFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, _ := url.ParseQuery(tt.query)
			_, err := ParseTableQuery(def, params, limits)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

// ============================================================================
// GetTableData
// ============================================================================

func TestGetTableData_BuildsQuery(t *testing.T) {
	def := registerOrders(t)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	db := &fakeDB{
		count: 60,
		rows: [][]interface{}{
			orderRow(26, "Acme", "paid", "1250.50", day, true),
		},
	}
	svc := NewService(db, nil)

	params, _ := url.ParseQuery("page=2&pageSize=25&sortBy=amount&sortDir=desc&search=ac&filter_status=paid")
	q, err := ParseTableQuery(def, params, limits)
	if err != nil {
		t.Fatalf("ParseTableQuery: %v", err)
	}

	result, err := svc.GetTableData(context.Background(), "orders", q)
	if err != nil {
		t.Fatalf("GetTableData: %v", err)
	}

	if len(db.queries) != 2 {
		t.Fatalf("queries = %d, want 2", len(db.queries))
	}

	wantCount := `SELECT COUNT(*) FROM "orders" WHERE ("customer" ILIKE $1) AND "status" = $2`
	if db.queries[0].sql != wantCount {
		t.Errorf("count sql = %q, want %q", db.queries[0].sql, wantCount)
	}

	wantSelect := `SELECT "id", "customer", "status", "amount", "ordered_on", "gift" FROM "orders"` +
		` WHERE ("customer" ILIKE $1) AND "status" = $2 ORDER BY "amount" desc, "id" asc LIMIT $3 OFFSET $4`
	if db.queries[1].sql != wantSelect {
		t.Errorf("select sql = %q, want %q", db.queries[1].sql, wantSelect)
	}

	args := db.queries[1].args
	if len(args) != 4 || args[0] != "%ac%" || args[1] != "paid" || args[2] != 25 || args[3] != 25 {
		t.Errorf("select args = %v, want [%%ac%% paid 25 25]", args)
	}

	if result.Total != 60 || result.Page != 2 || result.TotalPages != 3 || result.PageSize != 25 {
		t.Errorf("result = %+v, want total 60 page 2 of 3", result)
	}

	row := result.Rows[0]
	if row["id"] != int64(26) || row["amount"] != "1250.50" {
		t.Errorf("row = %v, want id 26 and amount 1250.50", row)
	}
	if row["ordered_on"] != "2024-03-01" {
		t.Errorf("ordered_on = %v, want 2024-03-01", row["ordered_on"])
	}
	if row["Gift Wrap"] != true {
		t.Errorf("Gift Wrap = %v, want true", row["Gift Wrap"])
	}
}

func TestGetTableData_ClampsPageAndSort(t *testing.T) {
	registerOrders(t)
	db := &fakeDB{count: 30}
	svc := NewService(db, nil)

	result, err := svc.GetTableData(context.Background(), "orders", TableQuery{
		Page:     9,
		PageSize: 25,
		Sort:     SortSpec{Column: "nope", Dir: "desc"},
	})
	if err != nil {
		t.Fatalf("GetTableData: %v", err)
	}

	if result.Page != 2 {
		t.Errorf("Page = %d, want 2 (clamped)", result.Page)
	}
	if result.Sort != (SortSpec{Column: "id", Dir: "asc"}) {
		t.Errorf("Sort = %+v, want id asc fallback", result.Sort)
	}
	if !strings.Contains(db.queries[1].sql, `ORDER BY "id" asc LIMIT $1 OFFSET $2`) {
		t.Errorf("select sql = %q", db.queries[1].sql)
	}
	if db.queries[1].args[1] != 25 {
		t.Errorf("offset = %v, want 25", db.queries[1].args[1])
	}
	if result.Rows == nil {
		t.Error("Rows = nil, want empty slice")
	}
}

func TestGetTableData_EmptyTable(t *testing.T) {
	registerOrders(t)
	svc := NewService(&fakeDB{count: 0}, nil)

	result, err := svc.GetTableData(context.Background(), "orders", TableQuery{Page: 3, PageSize: 25})
	if err != nil {
		t.Fatalf("GetTableData: %v", err)
	}
	if result.TotalPages != 0 || result.Page != 1 {
		t.Errorf("result = %+v, want 0 pages on page 1", result)
	}
}

func TestGetTableData_Errors(t *testing.T) {
	registerOrders(t)

	svc := NewService(&fakeDB{}, nil)
	if _, err := svc.GetTableData(context.Background(), "invoices", TableQuery{}); !errors.Is(err, ErrTableNotFound) {
		t.Errorf("unknown table error = %v, want ErrTableNotFound", err)
	}

	boom := errors.New("connection refused")
	svc = NewService(&fakeDB{count: 1, queryErr: boom}, nil)
	_, err := svc.GetTableData(context.Background(), "orders", TableQuery{Page: 1, PageSize: 10})
	if !errors.Is(err, boom) {
		t.Errorf("query error = %v, want wrapped %v", err, boom)
	}
	if MapError(err).Code != "DB004" {
		t.Errorf("MapError code = %q, want DB004", MapError(err).Code)
	}
}

// ============================================================================
// Streaming export
// ============================================================================

func TestExportCSV(t *testing.T) {
	def := registerOrders(t)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	db := &fakeDB{
		rows: [][]interface{}{
			orderRow(1, "Acme, Inc.", "paid", "10.00", day, false),
			{int64(2), "Globex", "pending", pgtype.Numeric{}, nil, nil},
		},
	}
	svc := NewService(db, nil)

	params, _ := url.ParseQuery("sortBy=customer&filter_status=paid,pending&page=3")
	q, err := ParseTableQuery(def, params, limits)
	if err != nil {
		t.Fatalf("ParseTableQuery: %v", err)
	}

	var buf bytes.Buffer
	n, err := svc.ExportCSV(context.Background(), "orders", q, &buf)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if n != 2 {
		t.Errorf("rows written = %d, want 2", n)
	}

	want := "id,customer,status,amount,ordered_on,Gift Wrap\n" +
		"1,\"Acme, Inc.\",paid,10.00,2024-03-01,false\n" +
		"2,Globex,pending,,,\n"
	if got := buf.String(); got != want {
		t.Errorf("csv = %q, want %q", got, want)
	}

	sql := db.queries[0].sql
	if strings.Contains(sql, "LIMIT") {
		t.Errorf("export sql has LIMIT: %q", sql)
	}
	if !strings.Contains(sql, `"status" IN ($1, $2) ORDER BY "customer" asc, "id" asc`) {
		t.Errorf("export sql = %q", sql)
	}
}

func TestStreamTableData_CallbackError(t *testing.T) {
	registerOrders(t)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	db := &fakeDB{rows: [][]interface{}{
		orderRow(1, "a", "paid", "1", day, false),
		orderRow(2, "b", "paid", "2", day, false),
	}}
	svc := NewService(db, nil)

	stop := errors.New("stop")
	calls := 0
	err := svc.StreamTableData(context.Background(), "orders", TableQuery{}, func(TableRow) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("err = %v after %d calls, want stop after 1", err, calls)
	}
}

func TestStreamTableData_ContextCancelled(t *testing.T) {
	registerOrders(t)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(&fakeDB{rows: [][]interface{}{orderRow(1, "a", "paid", "1", day, false)}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.StreamTableData(ctx, "orders", TableQuery{}, func(TableRow) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestListTables(t *testing.T) {
	registerOrders(t)
	svc := NewService(&fakeDB{}, nil)

	tables := svc.ListTables()
	if len(tables) != 1 || tables[0].Key != "orders" {
		t.Fatalf("ListTables = %+v, want [orders]", tables)
	}
	if len(tables[0].Columns) != 6 || tables[0].Columns[5] != "Gift Wrap" {
		t.Errorf("Columns = %v, want derived from field specs", tables[0].Columns)
	}

	byGroup := svc.ListTablesByGroup()
	if len(byGroup) != 1 || byGroup[0].Name != "Sales" || len(byGroup[0].Tables) != 1 {
		t.Errorf("ListTablesByGroup = %+v, want Sales: [orders]", byGroup)
	}
}
