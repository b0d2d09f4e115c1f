package repo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"trash-notify/internal/cache"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Options selects and configures a store backend.
type Options struct {
	Driver      string
	SQLitePath  string
	DatabaseURL string
	Schema      string
	Redis       cache.Config
	RedisPrefix string
	Location    *time.Location
}

// Open connects to the backend named by opts.Driver.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Store, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		return NewSQLite(ctx, opts.SQLitePath, opts.Location, logger)
	case DriverPostgres:
		return NewPostgres(ctx, opts.DatabaseURL, opts.Schema, opts.Location, logger)
	case DriverRedis:
		client := cache.New(opts.Redis, logger)
		store := NewRedis(client, opts.RedisPrefix, opts.Location, logger)
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
