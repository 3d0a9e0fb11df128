package migrate_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	_ "github.com/mattn/go-sqlite3"
)

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_items",
		"CREATE TABLE IF NOT EXISTS order_status_history",
		"REFERENCES orders(id) ON DELETE CASCADE",
		"CONSTRAINT orders_order_number_key UNIQUE (order_number)",
		"CHECK (total_amount >= 0)",
		"DROP TABLE IF EXISTS orders",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCatalogMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "*_create_catalog.sql")

	for _, sub := range []string{
		"stock integer NOT NULL DEFAULT 0 CHECK (stock >= 0)",
		"CONSTRAINT products_slug_key UNIQUE (slug)",
		"REFERENCES products(id) ON DELETE CASCADE",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCouponMigrationSeedsCodes(t *testing.T) {
	content := readMigration(t, "*_create_coupons.sql")
	for _, code := range []string{"WELCOME10", "SAVE20", "FREESHIP"} {
		if !strings.Contains(content, code) {
			t.Errorf("missing seed coupon %s", code)
		}
	}
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	embedded, err := migrate.Migrations.ReadDir(migrate.EmbeddedDir)
	if err != nil {
		t.Fatalf("read embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(embedded) != len(onDisk) {
		t.Fatalf("embedded %d files, disk %d", len(embedded), len(onDisk))
	}
}

func TestApplySQLiteSchemaIsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:schema_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := migrate.ApplySQLiteSchema(ctx, db); err != nil {
			t.Fatalf("apply #%d: %v", i+1, err)
		}
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'order_status_history'`).Scan(&count); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected order_status_history table")
	}

	if err := migrate.ApplySQLiteSchema(ctx, nil); err == nil {
		t.Fatalf("expected nil db to fail")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
