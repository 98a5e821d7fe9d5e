// Package sqlitestore keeps favourites and view state in a local SQLite
// database, using the pure Go modernc.org/sqlite driver.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/dmitrymomot/letterpress/pkg/db"
	"github.com/dmitrymomot/letterpress/pkg/viewstate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DefaultOwner is used when no owner is configured.
const DefaultOwner = "default"

var (
	ErrOpenFailed  = errors.New("sqlitestore: failed to open database")
	ErrQueryFailed = errors.New("sqlitestore: query failed")
)

// Open opens (creating if needed) the database file at path in WAL mode.
// SQLite allows one writer, so the pool is limited to one connection.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Join(ErrOpenFailed, err)
		}
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Join(ErrOpenFailed, err)
	}
	return conn, nil
}

// Migrations returns the schema migrations, rooted at the migration files.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrate applies the schema.
func Migrate(ctx context.Context, conn *sql.DB, table string, log *slog.Logger) error {
	return db.Migrate(ctx, conn, db.DialectSQLite, Migrations(), table, log)
}

// Store is a SQLite-backed state store.
type Store struct {
	db    *sql.DB
	owner string
}

// Option configures a Store.
type Option func(*Store)

// WithOwner scopes every row to owner.
// Default: "default"
func WithOwner(owner string) Option {
	return func(s *Store) {
		if owner != "" {
			s.owner = owner
		}
	}
}

// New creates a store on an open, migrated database.
func New(conn *sql.DB, opts ...Option) *Store {
	s := &Store{db: conn, owner: DefaultOwner}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadFavourites returns the stored JSON array, or nil when there is none.
func (s *Store) LoadFavourites(ctx context.Context) ([]byte, error) {
	var items string
	err := s.db.QueryRowContext(ctx, `SELECT items FROM favourites WHERE owner = ?`, s.owner).Scan(&items)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return []byte(items), nil
}

// SaveFavourites replaces the stored array.
func (s *Store) SaveFavourites(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO favourites (owner, items, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (owner) DO UPDATE SET items = excluded.items, updated_at = CURRENT_TIMESTAMP`,
		s.owner, string(data))
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

// LoadViewState reads every stored field of the owner.
func (s *Store) LoadViewState(ctx context.Context) (viewstate.State, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT field, value FROM view_state WHERE owner = ?`, s.owner)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	state := viewstate.State{}
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		if f := viewstate.Field(field); f.Valid() {
			state[f] = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return state, nil
}

// UpdateViewState applies patch in one transaction.
func (s *Store) UpdateViewState(ctx context.Context, patch viewstate.Patch) (err error) {
	if err := patch.Validate(); err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, f := range patch.Fields() {
		if v := patch[f]; v != nil {
			_, err = tx.ExecContext(ctx, `
INSERT INTO view_state (owner, field, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (owner, field) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
				s.owner, string(f), *v)
		} else {
			_, err = tx.ExecContext(ctx, `DELETE FROM view_state WHERE owner = ? AND field = ?`, s.owner, string(f))
		}
		if err != nil {
			return errors.Join(ErrQueryFailed, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}
