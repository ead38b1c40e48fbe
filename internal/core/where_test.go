package core

import (
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

// ============================================================================
// WhereBuilder Tests
// ============================================================================

func TestNewWhereBuilder(t *testing.T) {
	wb := NewWhereBuilder()

	if wb.argIndex != 1 {
		t.Errorf("expected argIndex to be 1, got %d", wb.argIndex)
	}
	if len(wb.conditions) != 0 {
		t.Errorf("expected empty conditions, got %d", len(wb.conditions))
	}
	if len(wb.args) != 0 {
		t.Errorf("expected empty args, got %d", len(wb.args))
	}
}

func TestWhereBuilder_Build_Empty(t *testing.T) {
	whereClause, args := NewWhereBuilder().Build()

	if whereClause != "" {
		t.Errorf("expected empty string for no conditions, got %q", whereClause)
	}
	if args != nil {
		t.Errorf("expected nil args for no conditions, got %v", args)
	}
}

func TestWhereBuilder_Add(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("status", "")
	wb.Add("status", "active")
	wb.Add("type", "user")

	whereClause, args := wb.Build()

	expectedClause := " WHERE status = $1 AND type = $2"
	if whereClause != expectedClause {
		t.Errorf("expected %q, got %q", expectedClause, whereClause)
	}
	if len(args) != 2 || args[0] != "active" || args[1] != "user" {
		t.Errorf("expected args ['active', 'user'], got %v", args)
	}
	if wb.NextArgIndex() != 3 {
		t.Errorf("NextArgIndex = %d, want 3", wb.NextArgIndex())
	}
}

func TestWhereBuilder_AddSearch(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		specs      []FieldSpec
		wantClause string
		wantArg    string
	}{
		{
			name:       "empty query skipped",
			query:      "   ",
			specs:      []FieldSpec{{Name: "name", Type: FieldText}},
			wantClause: "",
		},
		{
			name:  "single text column",
			query: "search term",
			specs: []FieldSpec{
				{Name: "name", DBColumn: "name_col", Type: FieldText},
			},
			wantClause: ` WHERE ("name_col" ILIKE $1)`,
			wantArg:    "%search term%",
		},
		{
			name:  "multiple text columns share one placeholder",
			query: "test",
			specs: []FieldSpec{
				{Name: "name", Type: FieldText},
				{Name: "email", Type: FieldText},
				{Name: "age", Type: FieldNumeric},
				{Name: "status", Type: FieldEnum},
			},
			wantClause: ` WHERE ("name" ILIKE $1 OR "email" ILIKE $1)`,
			wantArg:    "%test%",
		},
		{
			name:  "no text columns",
			query: "test",
			specs: []FieldSpec{
				{Name: "age", Type: FieldNumeric},
				{Name: "date", Type: FieldDate},
			},
			wantClause: "",
		},
		{
			name:       "derives db column from name",
			query:      "test",
			specs:      []FieldSpec{{Name: "User Name", Type: FieldText}},
			wantClause: ` WHERE ("user_name" ILIKE $1)`,
			wantArg:    "%test%",
		},
		{
			name:       "wildcards are escaped",
			query:      "50%_off",
			specs:      []FieldSpec{{Name: "name", Type: FieldText}},
			wantClause: ` WHERE ("name" ILIKE $1)`,
			wantArg:    `%50\%\_off%`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			wb.AddSearch(tt.query, tt.specs)

			gotClause, gotArgs := wb.Build()
			if gotClause != tt.wantClause {
				t.Errorf("clause = %q, want %q", gotClause, tt.wantClause)
			}
			if tt.wantArg == "" {
				if len(gotArgs) != 0 {
					t.Errorf("args = %v, want none", gotArgs)
				}
				return
			}
			if len(gotArgs) != 1 || gotArgs[0] != tt.wantArg {
				t.Errorf("args = %v, want [%q]", gotArgs, tt.wantArg)
			}
		})
	}
}

func TestWhereBuilder_AddFilters(t *testing.T) {
	tests := []struct {
		name       string
		filters    []ColumnFilter
		wantClause string
		wantArgs   []interface{}
	}{
		{
			name:       "no filters",
			wantClause: "",
		},
		{
			name:       "equals",
			filters:    []ColumnFilter{{DBColumn: "status", Operator: OpEquals, Value: "active"}},
			wantClause: ` WHERE "status" = $1`,
			wantArgs:   []interface{}{"active"},
		},
		{
			name:       "contains",
			filters:    []ColumnFilter{{DBColumn: "name", Operator: OpContains, Value: "john"}},
			wantClause: ` WHERE "name" ILIKE $1`,
			wantArgs:   []interface{}{"%john%"},
		},
		{
			name:       "starts with",
			filters:    []ColumnFilter{{DBColumn: "email", Operator: OpStartsWith, Value: "admin"}},
			wantClause: ` WHERE "email" ILIKE $1`,
			wantArgs:   []interface{}{"admin%"},
		},
		{
			name:       "greater or equal",
			filters:    []ColumnFilter{{DBColumn: "amount", Operator: OpGreaterEq, Value: "100"}},
			wantClause: ` WHERE "amount" >= $1`,
			wantArgs:   []interface{}{"100"},
		},
		{
			name:       "less or equal",
			filters:    []ColumnFilter{{DBColumn: "amount", Operator: OpLessEq, Value: "500"}},
			wantClause: ` WHERE "amount" <= $1`,
			wantArgs:   []interface{}{"500"},
		},
		{
			name:       "in list",
			filters:    []ColumnFilter{{DBColumn: "status", Operator: OpIn, Value: "active, pending,,review"}},
			wantClause: ` WHERE "status" IN ($1, $2, $3)`,
			wantArgs:   []interface{}{"active", "pending", "review"},
		},
		{
			name: "multiple filters",
			filters: []ColumnFilter{
				{DBColumn: "status", Operator: OpEquals, Value: "active"},
				{DBColumn: "type", Operator: OpContains, Value: "user"},
			},
			wantClause: ` WHERE "status" = $1 AND "type" ILIKE $2`,
			wantArgs:   []interface{}{"active", "%user%"},
		},
		{
			name:       "unknown operator skipped",
			filters:    []ColumnFilter{{DBColumn: "status", Operator: "regex", Value: ".*"}},
			wantClause: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			wb.AddFilters(FilterSet{Filters: tt.filters})

			gotClause, gotArgs := wb.Build()
			if gotClause != tt.wantClause {
				t.Errorf("clause = %q, want %q", gotClause, tt.wantClause)
			}
			if len(gotArgs) != len(tt.wantArgs) {
				t.Fatalf("args count = %d, want %d", len(gotArgs), len(tt.wantArgs))
			}
			for i := range tt.wantArgs {
				if gotArgs[i] != tt.wantArgs[i] {
					t.Errorf("arg[%d] = %v, want %v", i, gotArgs[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestWhereBuilder_TypedArgs(t *testing.T) {
	wb := NewWhereBuilder()
	wb.AddFilters(FilterSet{Filters: []ColumnFilter{
		{DBColumn: "amount", Operator: OpEquals, Value: "$1,250.50", Type: FieldNumeric},
		{DBColumn: "ordered_on", Operator: OpEquals, Value: "2024-03-01", Type: FieldDate},
		{DBColumn: "active", Operator: OpEquals, Value: "yes", Type: FieldBool},
		{DBColumn: "user_id", Operator: OpEquals, Value: "42", Type: FieldInt},
	}})

	_, args := wb.Build()
	if len(args) != 4 {
		t.Fatalf("args count = %d, want 4", len(args))
	}

	if n, ok := args[0].(pgtype.Numeric); !ok || !n.Valid {
		t.Errorf("arg[0] = %#v, want valid pgtype.Numeric", args[0])
	}
	if d, ok := args[1].(pgtype.Date); !ok || d.Time.Format("2006-01-02") != "2024-03-01" {
		t.Errorf("arg[1] = %#v, want pgtype.Date 2024-03-01", args[1])
	}
	if b, ok := args[2].(pgtype.Bool); !ok || !b.Bool {
		t.Errorf("arg[2] = %#v, want pgtype.Bool true", args[2])
	}
	if i, ok := args[3].(pgtype.Int8); !ok || i.Int64 != 42 {
		t.Errorf("arg[3] = %#v, want pgtype.Int8 42", args[3])
	}
}

// ============================================================================
// Combined Query Tests
// ============================================================================

func TestWhereBuilder_ComplexQuery(t *testing.T) {
	specs := []FieldSpec{
		{Name: "Name", DBColumn: "full_name", Type: FieldText},
		{Name: "Email", DBColumn: "email_addr", Type: FieldText},
		{Name: "Age", DBColumn: "age", Type: FieldNumeric},
	}

	wb := NewWhereBuilder()
	wb.AddSearch("john", specs)
	wb.AddFilters(FilterSet{
		Filters: []ColumnFilter{
			{DBColumn: "status", Operator: OpEquals, Value: "active"},
			{DBColumn: "age", Operator: OpGreaterEq, Value: "18"},
		},
	})

	whereClause, args := wb.Build()

	want := ` WHERE ("full_name" ILIKE $1 OR "email_addr" ILIKE $1) AND "status" = $2 AND "age" >= $3`
	if whereClause != want {
		t.Errorf("clause = %q, want %q", whereClause, want)
	}
	if len(args) != 3 {
		t.Errorf("expected 3 args, got %d: %v", len(args), args)
	}
	if args[0] != "%john%" {
		t.Errorf("expected first arg to be '%%john%%', got %v", args[0])
	}
	if wb.NextArgIndex() != 4 {
		t.Errorf("NextArgIndex = %d, want 4", wb.NextArgIndex())
	}
}

// ============================================================================
// Identifier Helpers
// ============================================================================

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"name", `"name"`},
		{"user name", `"user name"`},
		{`bad"col`, `"bad""col"`},
		{`"; DROP TABLE users; --`, `"""; DROP TABLE users; --"`},
	}
	for _, tt := range tests {
		if got := quoteIdentifier(tt.in); got != tt.want {
			t.Errorf("quoteIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveDBColumns(t *testing.T) {
	specs := []FieldSpec{
		{Name: "Name", DBColumn: "full_name"},
		{Name: "Created At"},
	}

	got := resolveDBColumns([]string{"name", "Created At", "email"}, specs)
	want := []string{"full_name", "created_at", "email"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("resolveDBColumns = %v, want %v", got, want)
	}
}
