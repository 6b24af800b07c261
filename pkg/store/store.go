package store

import (
	"context"
	"errors"
)

// ErrKeyRequired is returned when a blank key is passed to a backend.
var ErrKeyRequired = errors.New("store: key is required")

// KV persists opaque values by key. All values written by this module are
// JSON documents.
type KV interface {
	// Get returns the value stored under key. A missing key reports ok=false
	// with a nil error.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)
