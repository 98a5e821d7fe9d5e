package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/letterpress/pkg/db"
	"github.com/dmitrymomot/letterpress/pkg/images"
	"github.com/dmitrymomot/letterpress/pkg/logger"
	"github.com/dmitrymomot/letterpress/pkg/mailer"
	"github.com/dmitrymomot/letterpress/pkg/mailer/resend"
	"github.com/dmitrymomot/letterpress/pkg/redis"
)

// Supported state backends.
const (
	backendFile     = "file"
	backendRedis    = "redis"
	backendPostgres = "postgres"
	backendSQLite   = "sqlite"
	backendPebble   = "pebble"
)

// Supported image sources.
const (
	imagesDir = "dir"
	imagesS3  = "s3"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Logger logger.Config
	DB     db.Config
	Redis  redis.Config
	S3     images.S3Config
	Resend resend.Config
	Mailer mailer.Config

	LibraryRoot string `env:"LIBRARY_ROOT" envDefault:"."`
	Backend     string `env:"STATE_BACKEND" envDefault:"file"`
	Owner       string `env:"STATE_OWNER" envDefault:"default"`
	RedisPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"letterpress:"`
	SQLitePath  string `env:"SQLITE_PATH"`
	PebbleDir   string `env:"PEBBLE_DIR"`
	AutoMigrate bool   `env:"DATABASE_AUTO_MIGRATE" envDefault:"true"`

	ImageSource   string        `env:"IMAGES_SOURCE" envDefault:"dir"`
	ImageCacheTTL time.Duration `env:"IMAGES_CACHE_TTL" envDefault:"10m"`
	ImageCacheMax int           `env:"IMAGES_CACHE_MAX_ENTRIES" envDefault:"128"`

	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	CORSOrigins     []string      `env:"HTTP_CORS_ORIGINS" envSeparator:","`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	SendRate        float64       `env:"SEND_RATE_PER_SECOND" envDefault:"0.5"`
	SendBurst       int           `env:"SEND_BURST" envDefault:"5"`

	QuietPeriod        time.Duration `env:"VIEWSTATE_QUIET_PERIOD" envDefault:"300ms"`
	CoalesceViewState  bool          `env:"VIEWSTATE_COALESCE" envDefault:"true"`
	NoticeLifetime     time.Duration `env:"NOTICE_LIFETIME" envDefault:"2200ms"`
	SentryFlushTimeout time.Duration `env:"SENTRY_FLUSH_TIMEOUT" envDefault:"2s"`
}

// loadConfig reads envFile when it exists, then parses the environment.
// Variables already set in the environment win over the file.
func loadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Backend {
	case backendFile, backendRedis, backendPostgres, backendSQLite, backendPebble:
	default:
		return fmt.Errorf("unknown STATE_BACKEND %q", c.Backend)
	}
	switch c.ImageSource {
	case imagesDir, imagesS3:
	default:
		return fmt.Errorf("unknown IMAGES_SOURCE %q", c.ImageSource)
	}
	return nil
}

// sqlitePath defaults to data/letterpress.db under the library root.
func (c Config) sqlitePath() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.LibraryRoot, "data", "letterpress.db")
}

func (c Config) pebbleDir() string {
	if c.PebbleDir != "" {
		return c.PebbleDir
	}
	return filepath.Join(c.LibraryRoot, "data", "pebble")
}
