// Package pgstore keeps favourites and view state in PostgreSQL.
//
// Rows are keyed by an owner so several users can share one database. A
// view state patch is applied in one transaction: values are upserted and
// absences delete their row.
package pgstore

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/letterpress/pkg/db"
	"github.com/dmitrymomot/letterpress/pkg/viewstate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the schema migrations, rooted at the migration files.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrate applies the schema to the database behind pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool, table string, log *slog.Logger) error {
	return db.MigratePool(ctx, pool, Migrations(), table, log)
}

// DefaultOwner is used when no owner is configured.
const DefaultOwner = "default"

var ErrQueryFailed = errors.New("pgstore: query failed")

// Querier is the part of a pgx pool the store uses.
type Querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Querier = (*pgxpool.Pool)(nil)

// Store is a PostgreSQL-backed state store.
type Store struct {
	db    Querier
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

// New creates a store. The schema must be migrated first.
func New(q Querier, opts ...Option) *Store {
	s := &Store{db: q, owner: DefaultOwner}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const (
	selectFavourites = `SELECT items FROM favourites WHERE owner = $1`
	upsertFavourites = `
INSERT INTO favourites (owner, items, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (owner) DO UPDATE SET items = EXCLUDED.items, updated_at = now()`
	selectViewState = `SELECT field, value FROM view_state WHERE owner = $1`
	upsertViewState = `
INSERT INTO view_state (owner, field, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (owner, field) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	deleteViewState = `DELETE FROM view_state WHERE owner = $1 AND field = $2`
)

// LoadFavourites returns the stored JSON array, or nil when there is none.
func (s *Store) LoadFavourites(ctx context.Context) ([]byte, error) {
	var items []byte
	err := s.db.QueryRow(ctx, selectFavourites, s.owner).Scan(&items)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return items, nil
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
	if _, err := s.db.Exec(ctx, upsertFavourites, s.owner, string(data)); err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

// LoadViewState reads every stored field of the owner.
func (s *Store) LoadViewState(ctx context.Context) (viewstate.State, error) {
	rows, err := s.db.Query(ctx, selectViewState, s.owner)
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	state := viewstate.State{}
	var field, value string
	_, err = pgx.ForEachRow(rows, []any{&field, &value}, func() error {
		if f := viewstate.Field(field); f.Valid() {
			state[f] = value
		}
		return nil
	})
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	return state, nil
}

// UpdateViewState applies patch in one transaction.
func (s *Store) UpdateViewState(ctx context.Context, patch viewstate.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}

	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, f := range patch.Fields() {
			if v := patch[f]; v != nil {
				batch.Queue(upsertViewState, s.owner, string(f), *v)
			} else {
				batch.Queue(deleteViewState, s.owner, string(f))
			}
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}
