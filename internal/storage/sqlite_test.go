package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "planner.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestSQLiteStoreGetPut(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSQLite(t)

	_, err := s.Get(ctx, "planner-2024-05")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "planner-2024-05", []byte(`{"income":1}`)))
	v, err := s.Get(ctx, "planner-2024-05")
	require.NoError(t, err)
	assert.JSONEq(t, `{"income":1}`, string(v))

	require.NoError(t, s.Put(ctx, "planner-2024-05", []byte(`{"income":2}`)))
	v, err = s.Get(ctx, "planner-2024-05")
	require.NoError(t, err)
	assert.JSONEq(t, `{"income":2}`, string(v))
}

func TestSQLiteStoreKeys(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSQLite(t)

	for _, k := range []string{"planner-2024-06", "planner-categories", "planner-2024-05", "other"} {
		require.NoError(t, s.Put(ctx, k, []byte("{}")))
	}

	keys, err := s.Keys(ctx, "planner-")
	require.NoError(t, err)
	assert.Equal(t, []string{"planner-2024-05", "planner-2024-06", "planner-categories"}, keys)

	keys, err = s.Keys(ctx, "nothing-")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	s, path := newTestSQLite(t)
	require.NoError(t, s.Put(ctx, "k", []byte("v")))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))

	version, dirty, err := SchemaVersion(path)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}
