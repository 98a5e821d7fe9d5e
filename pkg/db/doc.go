// Package db opens PostgreSQL pools and applies goose migrations for the SQL
// state stores.
//
// Settings come from the environment:
//
//	DATABASE_URL                - PostgreSQL connection URL
//	DATABASE_MAX_CONNS          - maximum open connections (default: 4)
//	DATABASE_MIN_CONNS          - minimum idle connections (default: 1)
//	DATABASE_HEALTHCHECK_PERIOD - pool health check interval (default: 1m)
//	DATABASE_MAX_CONN_IDLE_TIME - maximum idle time (default: 10m)
//	DATABASE_MAX_CONN_LIFETIME  - maximum lifetime (default: 30m)
//	DATABASE_RETRY_ATTEMPTS     - connect attempts (default: 3)
//	DATABASE_RETRY_INTERVAL     - base retry interval, grows linearly (default: 2s)
//	DATABASE_MIGRATIONS_TABLE   - goose version table (default: letterpress_migrations)
//
// Migrate works on any *sql.DB, so the same migrator serves PostgreSQL
// (through stdlib.OpenDBFromPool) and SQLite.
package db
