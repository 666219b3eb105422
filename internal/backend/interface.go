// Package backend builds the key-value store the ledger runs on from the
// application configuration.
package backend

import (
	"time"

	"planner/internal/storage"
)

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// CacheSize of zero leaves the store uncached.
	CacheSize int
	CacheTTL  time.Duration
}

// Result is an opened store. Cached is nil when caching is off; it is
// exposed so the caller can register it with a cache.Manager.
type Result struct {
	Store  storage.Store
	Cached *storage.CachedStore
}

func (r *Result) Close() error {
	return r.Store.Close()
}
