package store

import (
	"fmt"
	"strings"
)

// Options selects and configures a KV backend.
type Options struct {
	Backend       string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string
	DatabaseURL   string
}

// Open builds the backend named by opts.Backend. An empty backend means sqlite.
func Open(opts Options) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendSQLite:
		return OpenSQLite(opts.SQLitePath)
	case BackendRedis:
		if strings.TrimSpace(opts.RedisAddr) == "" {
			return nil, fmt.Errorf("redis backend requires an address")
		}
		return NewRedisStore(opts.RedisAddr, opts.RedisPassword, opts.RedisPrefix), nil
	case BackendPostgres:
		if strings.TrimSpace(opts.DatabaseURL) == "" {
			return nil, fmt.Errorf("postgres backend requires a database url")
		}
		return NewGormStore(opts.DatabaseURL)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}
