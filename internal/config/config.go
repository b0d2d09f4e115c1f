package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"trash-notify/internal/cache"
	"trash-notify/internal/repo"
	"trash-notify/internal/scheduler"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	LineChannelSecret string `envconfig:"LINE_CHANNEL_SECRET"`
	LineChannelToken  string `envconfig:"LINE_CHANNEL_TOKEN"`
	LineAPIEndpoint   string `envconfig:"LINE_API_ENDPOINT"`

	StoreDriver    string `envconfig:"STORE_DRIVER" default:"sqlite"` // sqlite|postgres|redis|memory
	SQLitePath     string `envconfig:"SQLITE_PATH" default:"./data/trash-notify.db"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	DatabaseSchema string `envconfig:"DATABASE_SCHEMA"`

	RedisAddr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`
	RedisTLS       bool   `envconfig:"REDIS_TLS" default:"false"`
	RedisKeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"trash-disposal-notification:"`

	Timezone          string `envconfig:"TIMEZONE" default:"Asia/Tokyo"`
	NotifyAt          string `envconfig:"NOTIFY_AT" default:"07:00"`
	NotifySchedule    bool   `envconfig:"NOTIFY_SCHEDULE" default:"false"`
	NotifyConcurrency int    `envconfig:"NOTIFY_CONCURRENCY" default:"8"`

	HTTPListenAddr string `envconfig:"HTTP_LISTEN_ADDR" default:":8080"`
	PublicBasePath string `envconfig:"PUBLIC_BASE_PATH"`
	AdminToken     string `envconfig:"ADMIN_TOKEN"`

	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	LogFormat        string `envconfig:"LOG_FORMAT" default:"text"` // text|json
	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:"trash_notify"`

	// Location is Timezone resolved by Load.
	Location *time.Location `ignored:"true"`
}

// Load reads environment variables into Config and validates them.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case repo.DriverSQLite, repo.DriverRedis, repo.DriverMemory:
	case repo.DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s driver", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	c.Location = loc

	if _, _, err := scheduler.ParseClock(c.NotifyAt); err != nil {
		return fmt.Errorf("invalid NOTIFY_AT: %w", err)
	}
	if c.NotifyConcurrency <= 0 {
		return fmt.Errorf("NOTIFY_CONCURRENCY must be positive, got %d", c.NotifyConcurrency)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

// RequireLine reports whether the LINE channel credentials are set.
func (c Config) RequireLine() error {
	if c.LineChannelSecret == "" {
		return fmt.Errorf("LINE_CHANNEL_SECRET is required")
	}
	if c.LineChannelToken == "" {
		return fmt.Errorf("LINE_CHANNEL_TOKEN is required")
	}
	return nil
}

// StoreOptions maps the store settings onto repo.Options.
func (c Config) StoreOptions() repo.Options {
	return repo.Options{
		Driver:      c.StoreDriver,
		SQLitePath:  c.SQLitePath,
		DatabaseURL: c.DatabaseURL,
		Schema:      c.DatabaseSchema,
		Redis: cache.Config{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			UseTLS:   c.RedisTLS,
		},
		RedisPrefix: c.RedisKeyPrefix,
		Location:    c.Location,
	}
}
