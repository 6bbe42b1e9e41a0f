package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/matzehuels/riglink/pkg/errors"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// ValidBackends is the set of supported backends.
var ValidBackends = map[string]bool{
	BackendMemory: true,
	BackendFile:   true,
	BackendSQLite: true,
	BackendRedis:  true,
	BackendMongo:  true,
}

// Config selects and configures a backend. Only the section matching
// Backend is read.
type Config struct {
	Backend string      `toml:"backend"`
	Dir     string      `toml:"dir"`
	SQLite  string      `toml:"sqlite"`
	Redis   RedisConfig `toml:"redis"`
	Mongo   MongoConfig `toml:"mongo"`
}

// Open returns the configured backend. An empty backend selects file.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		path := cfg.SQLite
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			dir := filepath.Join(home, ".config", "riglink")
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "scenes.db")
		}
		return NewSQLiteStore(path)
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case BackendMongo:
		return NewMongoStore(ctx, cfg.Mongo)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", cfg.Backend)
}
