package tables

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/JonMunkholm/tableview/internal/core"
)

//go:embed schema.sql
var schemaSQL string

//go:embed seed.sql
var seedSQL string

// EnsureSchema creates the tables backing the registered definitions if they
// do not exist. It is idempotent.
func EnsureSchema(ctx context.Context, db core.DBTX) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Seed fills empty tables with demo rows. Existing rows are left alone.
func Seed(ctx context.Context, db core.DBTX) error {
	if _, err := db.Exec(ctx, seedSQL); err != nil {
		return fmt.Errorf("seed tables: %w", err)
	}
	return nil
}
