// Package ratelimit limits requests per client with token buckets.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"expensetracker/internal/cache"
)

// Limiter keeps one token bucket per client key.
type Limiter struct {
	buckets *cache.LRUCache[*rate.Limiter]
	limit   rate.Limit
	burst   int

	allowed  atomic.Int64
	rejected atomic.Int64
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	// Burst defaults to RequestsPerMinute.
	Burst int
	// MaxClients bounds the number of tracked buckets.
	MaxClients int
	// IdleTTL drops a client's bucket after this long without requests.
	IdleTTL time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		MaxClients:        10000,
		IdleTTL:           10 * time.Minute,
	}
}

// NewLimiter creates a new rate limiter. A RequestsPerMinute of zero or
// less falls back to the defaults.
func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = config.RequestsPerMinute
	}
	if config.MaxClients <= 0 {
		config.MaxClients = def.MaxClients
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = def.IdleTTL
	}

	return &Limiter{
		buckets: cache.NewLRUCache[*rate.Limiter](config.MaxClients, config.IdleTTL),
		limit:   rate.Every(time.Minute / time.Duration(config.RequestsPerMinute)),
		burst:   config.Burst,
	}
}

// Cache exposes the bucket cache so it can be registered for cleanup.
func (rl *Limiter) Cache() cache.Cleaner {
	return rl.buckets
}

// Allow checks if a request from the given client should be allowed
func (rl *Limiter) Allow(clientIP string) bool {
	bucket := rl.buckets.GetOrSet(clientIP, func() *rate.Limiter {
		return rate.NewLimiter(rl.limit, rl.burst)
	})
	if bucket.Allow() {
		rl.allowed.Add(1)
		return true
	}
	rl.rejected.Add(1)
	return false
}

// retryAfter is the wait, in whole seconds, until one more token is available.
func (rl *Limiter) retryAfter() int {
	secs := int(math.Round(1 / float64(rl.limit)))
	if secs < 1 {
		return 1
	}
	return secs
}

// ActiveClients returns the number of currently tracked clients
func (rl *Limiter) ActiveClients() int {
	return rl.buckets.Size()
}

// Metrics for monitoring rate limit performance
type Metrics struct {
	Allowed     int64
	Rejected    int64
	ClientCount int64
}

// GetMetrics returns current rate limiting metrics
func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		Allowed:     rl.allowed.Load(),
		Rejected:    rl.rejected.Load(),
		ClientCount: int64(rl.buckets.Size()),
	}
}

// Middleware creates HTTP middleware for rate limiting
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(extractIP(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter()))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
