package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Goose dialect names.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// goose keeps its settings in package globals.
var gooseMu sync.Mutex

// Migrate applies every pending migration found at the root of fsys.
func Migrate(ctx context.Context, db *sql.DB, dialect string, fsys fs.FS, table string, log *slog.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if table == "" {
		table = "letterpress_migrations"
	}

	goose.SetBaseFS(fsys)
	goose.SetLogger(gooseLogger{log})
	goose.SetTableName(table)

	if err := goose.SetDialect(dialect); err != nil {
		return errors.Join(ErrMigrate, err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Join(ErrMigrate, err)
	}
	return nil
}

// MigratePool applies PostgreSQL migrations through a pgx pool. The
// database/sql wrapper shares the pool's connections and is not closed.
func MigratePool(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS, table string, log *slog.Logger) error {
	return Migrate(ctx, stdlib.OpenDBFromPool(pool), DialectPostgres, fsys, table, log)
}

type gooseLogger struct {
	log *slog.Logger
}

func (g gooseLogger) Printf(format string, args ...any) {
	g.log.Info(fmt.Sprintf(format, args...))
}

// Fatalf only logs; goose returns the error to the caller.
func (g gooseLogger) Fatalf(format string, args ...any) {
	g.log.Error(fmt.Sprintf(format, args...))
}
