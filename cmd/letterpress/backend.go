package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/letterpress"
	"github.com/dmitrymomot/letterpress/pkg/db"
	"github.com/dmitrymomot/letterpress/pkg/filestore"
	"github.com/dmitrymomot/letterpress/pkg/health"
	"github.com/dmitrymomot/letterpress/pkg/images"
	"github.com/dmitrymomot/letterpress/pkg/library"
	"github.com/dmitrymomot/letterpress/pkg/metrics"
	"github.com/dmitrymomot/letterpress/pkg/pebblestore"
	"github.com/dmitrymomot/letterpress/pkg/pgstore"
	"github.com/dmitrymomot/letterpress/pkg/redis"
	"github.com/dmitrymomot/letterpress/pkg/redisstore"
	"github.com/dmitrymomot/letterpress/pkg/sqlitestore"
)

// stateBackend is an opened state store together with its readiness checks
// and the hooks that release it.
type stateBackend struct {
	store    letterpress.StateStore
	checks   health.Checks
	shutdown []func(context.Context) error
}

// close releases the backend outside of the server shutdown sequence.
func (b *stateBackend) close(ctx context.Context) {
	for _, fn := range b.shutdown {
		_ = fn(ctx)
	}
}

func openState(ctx context.Context, cfg Config, lib *library.Library, log *slog.Logger) (*stateBackend, error) {
	switch cfg.Backend {
	case backendRedis:
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &stateBackend{
			store:    redisstore.New(client, redisstore.WithPrefix(cfg.RedisPrefix)),
			checks:   health.Checks{"redis": redis.Healthcheck(client)},
			shutdown: []func(context.Context) error{redis.Shutdown(client)},
		}, nil

	case backendPostgres:
		pool, err := db.Connect(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := pgstore.Migrate(ctx, pool, cfg.DB.MigrationsTable, log); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &stateBackend{
			store:    pgstore.New(pool, pgstore.WithOwner(cfg.Owner)),
			checks:   health.Checks{"postgres": db.Healthcheck(pool)},
			shutdown: []func(context.Context) error{db.Shutdown(pool)},
		}, nil

	case backendSQLite:
		conn, err := sqlitestore.Open(ctx, cfg.sqlitePath())
		if err != nil {
			return nil, err
		}
		if err := sqlitestore.Migrate(ctx, conn, cfg.DB.MigrationsTable, log); err != nil {
			conn.Close()
			return nil, err
		}
		return &stateBackend{
			store:  sqlitestore.New(conn, sqlitestore.WithOwner(cfg.Owner)),
			checks: health.Checks{"sqlite": conn.PingContext},
			shutdown: []func(context.Context) error{func(context.Context) error {
				return conn.Close()
			}},
		}, nil

	case backendPebble:
		pdb, err := pebblestore.Open(cfg.pebbleDir())
		if err != nil {
			return nil, err
		}
		return &stateBackend{
			store:    pebblestore.New(pdb),
			checks:   health.Checks{"pebble": health.DirWritable(cfg.pebbleDir())},
			shutdown: []func(context.Context) error{pebblestore.Shutdown(pdb)},
		}, nil

	case backendFile:
		dir := lib.Layout().DataDir()
		return &stateBackend{
			store:  filestore.New(dir, filestore.WithLogger(log)),
			checks: health.Checks{"data_dir": health.DirWritable(dir)},
		}, nil
	}
	return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
}

// openImages builds the configured image resolver behind a cache that reports
// lookups to rec.
func openImages(cfg Config, lib *library.Library, rec *metrics.Recorder) (images.Resolver, error) {
	var next images.Resolver
	switch cfg.ImageSource {
	case imagesS3:
		r, err := images.NewS3Resolver(cfg.S3)
		if err != nil {
			return nil, err
		}
		next = r
	default:
		next = images.NewDirResolver(lib.Layout().ImagesDir())
	}

	return images.NewCached(next,
		images.WithTTL(cfg.ImageCacheTTL),
		images.WithMaxEntries(cfg.ImageCacheMax),
		images.WithCacheHook(func(_ string, outcome images.Outcome) {
			rec.ImageLookup(string(outcome))
		}),
	), nil
}
