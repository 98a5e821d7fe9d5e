package db

import "errors"

var (
	ErrNoURL         = errors.New("db: DATABASE_URL is empty")
	ErrInvalidConfig = errors.New("db: invalid pool configuration")
	ErrConnect       = errors.New("db: cannot connect")
	ErrUnhealthy     = errors.New("db: ping failed")
	ErrMigrate       = errors.New("db: migration failed")
)
