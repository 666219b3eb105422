package memory

import (
	"context"
	"testing"

	"planner/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.Store = (*Store)(nil)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	buf := []byte("one")
	require.NoError(t, s.Put(ctx, "planner-b", buf))
	buf[0] = 'X'
	require.NoError(t, s.Put(ctx, "planner-a", []byte("two")))
	require.NoError(t, s.Put(ctx, "zzz", []byte("three")))

	v, err := s.Get(ctx, "planner-b")
	require.NoError(t, err)
	assert.Equal(t, "one", string(v))

	keys, err := s.Keys(ctx, "planner-")
	require.NoError(t, err)
	assert.Equal(t, []string{"planner-a", "planner-b"}, keys)
	assert.NoError(t, s.Close())
}
