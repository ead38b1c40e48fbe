package tables

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/JonMunkholm/tableview/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestRegisteredTables(t *testing.T) {
	tests := []struct {
		key     string
		group   string
		columns []string
	}{
		{"users", "Accounts", []string{"id", "name", "email", "status", "admin", "joined"}},
		{"orders", "Sales", []string{"id", "user_id", "customer", "status", "amount", "ordered"}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			def, err := core.Lookup(tt.key)
			if err != nil {
				t.Fatalf("table %q not registered: %v", tt.key, err)
			}
			if def.Info.Group != tt.group {
				t.Errorf("Group = %q, want %q", def.Info.Group, tt.group)
			}
			if strings.Join(def.Info.Columns, ",") != strings.Join(tt.columns, ",") {
				t.Errorf("Columns = %v, want %v", def.Info.Columns, tt.columns)
			}
			// Selection needs a stable id column.
			if def.Info.Columns[0] != "id" {
				t.Errorf("first column = %q, want id", def.Info.Columns[0])
			}
		})
	}
}

func TestSchemaCoversRegisteredColumns(t *testing.T) {
	for _, key := range []string{"users", "orders"} {
		def, err := core.Lookup(key)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", key, err)
		}
		for _, spec := range def.FieldSpecs {
			col := spec.DBColumn
			if !strings.Contains(schemaSQL, col+" ") {
				t.Errorf("schema.sql missing column %s.%s", key, col)
			}
		}
	}
}

type execRecorder struct {
	sql []string
	err error
}

func (e *execRecorder) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	e.sql = append(e.sql, sql)
	return pgconn.CommandTag{}, e.err
}

func (e *execRecorder) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (e *execRecorder) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

func TestEnsureSchemaAndSeed(t *testing.T) {
	db := &execRecorder{}
	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := Seed(context.Background(), db); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(db.sql) != 2 || !strings.Contains(db.sql[0], "CREATE TABLE IF NOT EXISTS users") {
		t.Errorf("executed = %v", db.sql)
	}

	boom := errors.New("connection refused")
	if err := EnsureSchema(context.Background(), &execRecorder{err: boom}); !errors.Is(err, boom) {
		t.Errorf("EnsureSchema error = %v, want wrapped %v", err, boom)
	}
}
