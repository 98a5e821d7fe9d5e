package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/letterpress/pkg/db"
	"github.com/dmitrymomot/letterpress/pkg/logger"
	"github.com/dmitrymomot/letterpress/pkg/pgstore"
	"github.com/dmitrymomot/letterpress/pkg/sqlitestore"
)

func migrateCmd() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations for the postgres or sqlite backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if backend == "" {
				backend = cfg.Backend
			}

			ctx := cmd.Context()
			log := logger.New(cfg.Logger)

			switch backend {
			case backendPostgres:
				pool, err := db.Connect(ctx, cfg.DB)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := pgstore.Migrate(ctx, pool, cfg.DB.MigrationsTable, log); err != nil {
					return err
				}

			case backendSQLite:
				conn, err := sqlitestore.Open(ctx, cfg.sqlitePath())
				if err != nil {
					return err
				}
				defer conn.Close()
				if err := sqlitestore.Migrate(ctx, conn, cfg.DB.MigrationsTable, log); err != nil {
					return err
				}

			default:
				return fmt.Errorf("backend %q has no SQL migrations", backend)
			}

			log.InfoContext(ctx, "migrations applied", slog.String("backend", backend))
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "postgres or sqlite (defaults to STATE_BACKEND)")
	return cmd
}
