package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

const usage = `usage: migrate [flags] <command>

commands:
  up | down | status | redo   run goose against the database
  to <version>                migrate up or down to a YYYYMMDDHHMMSS version
  new <name>                  write an empty migration into -dir
  check                       validate migration filenames and markers

flags:
`

func main() {
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory on disk")
	embedded := flag.Bool("embedded", false, "use the migrations compiled into the binary instead of -dir")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	command, args := flag.Arg(0), flag.Args()[1:]

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	if err := run(command, args, *dir, *embedded, logg); err != nil {
		logg.Error(context.Background(), "migrate "+command+" failed", err)
		os.Exit(1)
	}
}

func run(command string, args []string, dir string, embedded bool, logg *logger.Logger) (err error) {
	switch command {
	case "new":
		if len(args) != 1 {
			return errors.New("new takes exactly one name")
		}
		path, err := migrate.CreateSQLMigration(dir, args[0], time.Now())
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "check":
		if embedded {
			return migrate.ValidateFS(migrate.Migrations, migrate.EmbeddedDir)
		}
		return migrate.ValidateDir(dir)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DB.IsSQLite() {
		return errors.New("goose migrations target postgres; sqlite databases get the bundled schema on startup")
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"command":  command,
		"embedded": embedded,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	sqlDB, err := dbClient.SQL()
	if err != nil {
		return err
	}

	if err := dispatch(ctx, sqlDB, command, args, dir, embedded); err != nil {
		return err
	}
	logg.Info(ctx, "migrate finished")
	return nil
}

func dispatch(ctx context.Context, sqlDB *sql.DB, command string, args []string, dir string, embedded bool) error {
	src := migrate.Disk(dir)
	if embedded {
		src = migrate.Embedded()
	}

	switch command {
	case "up", "down", "status", "redo":
		return migrate.Run(ctx, sqlDB, src, command)
	case "to":
		if len(args) != 1 {
			return errors.New("to takes exactly one version")
		}
		return migrate.MigrateTo(ctx, sqlDB, src, args[0])
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
