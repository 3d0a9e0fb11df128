package migrate

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// ApplySQLiteSchema creates every table on a sqlite database. Statements are
// idempotent so it is safe to call on each boot.
func ApplySQLiteSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("apply sqlite schema: %w", err)
	}
	return nil
}
