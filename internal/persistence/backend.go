package persistence

import (
	"context"
	"errors"
	"fmt"

	"audiosurv/internal/config"
)

// Well-known keys.
const (
	KeyAlerts   = "alerts"
	KeyKeywords = "keywords"
)

// ErrNotFound reports that no value is stored under the requested key.
var ErrNotFound = errors.New("persistence: key not found")

// Backend stores opaque values by key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open constructs the backend selected by cfg.Storage.Backend.
func Open(cfg *config.Config) (Backend, error) {
	if cfg == nil {
		return nil, errors.New("persistence: config is nil")
	}
	switch cfg.Storage.Backend {
	case config.StorageSQLite:
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("ensure directories: %w", err)
		}
		return OpenSQLite(cfg.DatabasePath())
	case config.StorageFile:
		return OpenFile(cfg.StateDir())
	case config.StorageRedis:
		return OpenRedis(RedisOptions{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
			Prefix:   cfg.Storage.RedisPrefix,
		})
	case config.StorageMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("persistence: unsupported backend %q", cfg.Storage.Backend)
	}
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("persistence: empty key")
	}
	return nil
}
