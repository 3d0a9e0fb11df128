package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

// EmbeddedDir is the directory name inside Migrations.
const EmbeddedDir = "migrations"

// Migrations carries the Postgres migrations so binaries can run them
// without the source tree.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Source locates a migration directory. A nil FS reads from disk.
type Source struct {
	FS  fs.FS
	Dir string
}

// Disk reads migrations from dir on the local filesystem.
func Disk(dir string) Source { return Source{Dir: dir} }

// Embedded reads the migrations compiled into the binary.
func Embedded() Source { return Source{FS: Migrations, Dir: EmbeddedDir} }

// goose keeps dialect and base FS in package globals.
var gooseMu sync.Mutex

func withGoose(src Source, fn func() error) error {
	if src.Dir == "" {
		return fmt.Errorf("migration dir is required")
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(src.FS)
	defer goose.SetBaseFS(nil)
	return fn()
}

// Run executes a goose command such as up, down, status or redo.
func Run(ctx context.Context, db *sql.DB, src Source, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	return withGoose(src, func() error {
		if err := goose.RunContext(ctx, command, db, src.Dir, args...); err != nil {
			return fmt.Errorf("goose %s: %w", command, err)
		}
		return nil
	})
}

// MigrateTo moves the schema up or down until it sits at version.
func MigrateTo(ctx context.Context, db *sql.DB, src Source, version string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil || len(version) != len(versionLayout) {
		return fmt.Errorf("version %q is not YYYYMMDDHHMMSS", version)
	}

	return withGoose(src, func() error {
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("read db version: %w", err)
		}
		switch {
		case current < target:
			err = goose.UpToContext(ctx, db, src.Dir, target)
		case current > target:
			err = goose.DownToContext(ctx, db, src.Dir, target)
		}
		if err != nil {
			return fmt.Errorf("migrate %d -> %d: %w", current, target, err)
		}
		return nil
	})
}
