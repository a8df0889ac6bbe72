package middlewares

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// CounterStore counts hits for a key within a fixed window. The redis client
// provides the shared implementation; MemoryCounter is the single-process
// fallback when no redis address is configured.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

type RateLimiter struct {
	limit  int
	window time.Duration
	store  CounterStore
}

func NewRateLimiter(limit int, window time.Duration, store CounterStore) *RateLimiter {
	if store == nil {
		store = NewMemoryCounter()
	}

	return &RateLimiter{
		limit:  limit,
		window: window,
		store:  store,
	}
}

// RateLimiterMiddleware enforces the limit for a derived key.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		count, ttl, err := rl.store.Incr(c.Request.Context(), key, rl.window)

		if err != nil {
			// counter backend down: fail open rather than reject traffic
			c.Next()
			return
		}

		if count > int64(rl.limit) {
			retryAfter := int(ttl.Seconds())

			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    "rate_limited",
				"message": "Too many requests. Please try again shortly.",
			})

			return
		}

		c.Next()
	}
}

// KeyByIP rate limits unauthenticated endpoints by client address.
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}

// MemoryCounter is the in-process fixed-window CounterStore.
type MemoryCounter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	count     int64
	windowEnd time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		buckets: make(map[string]*bucket),
	}
}

func (m *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]

	if !ok || now.After(b.windowEnd) {
		b = &bucket{windowEnd: now.Add(window)}
		m.buckets[key] = b
	}

	b.count++

	return b.count, time.Until(b.windowEnd), nil
}
