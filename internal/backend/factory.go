package backend

import (
	"fmt"
	"log/slog"

	"planner/internal/storage"
	"planner/internal/storage/memory"
)

// Open creates the store described by cfg, wrapped in a CachedStore when
// cfg.CacheSize is positive.
func Open(cfg Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base storage.Store
	switch cfg.Type {
	case SQLiteBackend:
		s, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		base = s
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case MemoryBackend:
		base = memory.New()
		logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}

	if cfg.CacheSize == 0 {
		return &Result{Store: base}, nil
	}

	cached := storage.NewCachedStore(base, cfg.CacheSize, cfg.CacheTTL)
	logger.Info("Store cache enabled",
		"max_entries", cfg.CacheSize,
		"ttl", cfg.CacheTTL)
	return &Result{Store: cached, Cached: cached}, nil
}
