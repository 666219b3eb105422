package storage

import (
	"context"
	"time"

	"planner/internal/cache"
)

// CachedStore fronts another Store with an LRU+TTL cache. Reads fill the
// cache, successful writes refresh it, failed writes evict the key.
type CachedStore struct {
	next  Store
	cache *cache.LRUCache[[]byte]
}

func NewCachedStore(next Store, size int, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: cache.NewLRUCache[[]byte](size, ttl),
	}
}

func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := s.cache.Get(key); ok {
		return append([]byte(nil), v...), nil
	}
	v, err := s.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, append([]byte(nil), v...))
	return v, nil
}

func (s *CachedStore) Put(ctx context.Context, key string, value []byte) error {
	if err := s.next.Put(ctx, key, value); err != nil {
		s.cache.Delete(key)
		return err
	}
	s.cache.Set(key, append([]byte(nil), value...))
	return nil
}

// Keys always goes to the underlying store.
func (s *CachedStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	return s.next.Keys(ctx, prefix)
}

func (s *CachedStore) Close() error {
	return s.next.Close()
}

// CleanExpired lets a cache.Manager sweep this store's entries.
func (s *CachedStore) CleanExpired() int {
	return s.cache.CleanExpired()
}

func (s *CachedStore) Stats() cache.Stats {
	return s.cache.Stats()
}
