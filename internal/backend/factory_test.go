package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner/internal/config"
	"planner/internal/log"
	"planner/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "x.db",
		CacheSize:    8,
		CacheTTL:     time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "x.db", cfg.SQLiteDBPath)
	assert.Equal(t, 8, cfg.CacheSize)
	assert.Equal(t, 0, cfg.Uncached().CacheSize)
	assert.Equal(t, 8, cfg.CacheSize, "Uncached returns a copy")

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "csv"}, true},
		{"negative cache", Config{Type: MemoryBackend, CacheSize: -1}, true},
		{"cache without ttl", Config{Type: MemoryBackend, CacheSize: 4}, true},
		{"cache with ttl", Config{Type: MemoryBackend, CacheSize: 4, CacheTTL: time.Second}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOpenMemory(t *testing.T) {
	res, err := Open(Config{Type: MemoryBackend}, log.Discard().Slog())
	require.NoError(t, err)
	defer res.Close()

	assert.Nil(t, res.Cached)
	ctx := context.Background()
	require.NoError(t, res.Store.Put(ctx, "planner-2024-05", []byte(`{}`)))
	v, err := res.Store.Get(ctx, "planner-2024-05")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(v))
}

func TestOpenSQLiteCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "planner.db")
	res, err := Open(Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: path,
		CacheSize:    4,
		CacheTTL:     time.Minute,
	}, log.Discard().Slog())
	require.NoError(t, err)
	defer res.Close()

	require.NotNil(t, res.Cached)
	ctx := context.Background()
	require.NoError(t, res.Store.Put(ctx, "planner-categories", []byte(`[]`)))
	_, err = res.Store.Get(ctx, "planner-categories")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cached.Stats().Size)

	_, err = res.Store.Get(ctx, "planner-2030-01")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	_, err := Open(Config{Type: "csv"}, nil)
	assert.Error(t, err)
}
