package http

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"planner/internal/cache"
)

const (
	defaultRateLimit = 60
	rateWindow       = time.Minute

	// maxTrackedClients bounds memory; the least recently seen client is
	// forgotten first.
	maxTrackedClients = 10000
)

// rateLimiter allows limit mutating requests per client IP in each fixed
// one-minute window. Windows live in an LRU cache whose TTL is the window
// length, so an expired entry starts a fresh window.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	windows *cache.LRUCache[*clientWindow]
	sweeper *cache.Manager
}

type clientWindow struct {
	requests int
}

func newRateLimiter(limit int, logger *slog.Logger) *rateLimiter {
	rl := &rateLimiter{
		limit:   limit,
		windows: cache.NewLRUCache[*clientWindow](maxTrackedClients, rateWindow),
		sweeper: cache.NewManager(logger),
	}
	rl.sweeper.Register(rl.windows)
	rl.sweeper.StartCleanup(5 * time.Minute)
	return rl
}

// stop halts the background sweep of expired windows.
func (rl *rateLimiter) stop() {
	rl.sweeper.Stop()
}

// allow reports whether clientIP may make another request in its current
// window.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows.Get(clientIP)
	if !ok {
		rl.windows.Set(clientIP, &clientWindow{requests: 1})
		return true
	}

	w.requests++
	if w.requests > rl.limit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}
