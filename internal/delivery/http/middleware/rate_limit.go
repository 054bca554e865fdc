package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"inclusive-matching-api/internal/delivery/http/response"
	"inclusive-matching-api/pkg/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitStore counts hits in fixed windows. The redis RateRepo
// implements it; MemoryRateStore is the single-process fallback.
type RateLimitStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Time window duration
	Window time.Duration
	// Custom key extractor (default: IP-based)
	KeyFunc func(*gin.Context) string
	// Key prefix for the store (default: "rl:ip:")
	KeyPrefix string
	// Reject instead of falling back to memory when the store errors
	FailClosed bool
}

// MatchRateLimitConfig limits the LLM-backed match endpoint per client IP.
func MatchRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Limit:     limit,
		Window:    window,
		KeyPrefix: "rl:match:",
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

// RateLimitMiddleware enforces cfg using store, falling back to an in-memory
// counter when store is nil or failing (unless FailClosed is set).
// A Limit of zero or less disables the middleware.
func RateLimitMiddleware(cfg RateLimitConfig, store RateLimitStore, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:ip:"
	}
	fallback := NewMemoryRateStore()

	return func(c *gin.Context) {
		key := cfg.KeyPrefix + cfg.KeyFunc(c)
		ctx := c.Request.Context()

		var (
			count int64
			ttl   time.Duration
			err   error
		)
		if store != nil {
			count, ttl, err = store.IncrementWindow(ctx, key, cfg.Window)
			if err != nil {
				log.Warn("Rate limit store unavailable", zap.String("key", key), zap.Error(err))
				if cfg.FailClosed {
					response.AppError(c, apperror.ServiceUnavailable("Service temporarily unavailable. Please try again.", err))
					c.Abort()
					return
				}
				count, ttl, _ = fallback.IncrementWindow(ctx, key, cfg.Window)
			}
		} else {
			count, ttl, _ = fallback.IncrementWindow(ctx, key, cfg.Window)
		}

		resetAt := time.Now().Add(ttl)
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Reset", resetAt.UTC().Format(time.RFC3339))

		if count > int64(cfg.Limit) {
			retryAfter := int(ttl.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			log.Info("Rate limit triggered",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.FullPath()),
				zap.String("request_id", c.GetString("RequestID")),
			)
			response.AppError(c, apperror.TooManyRequests("Rate limit exceeded. Please try again later."))
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(cfg.Limit)-count, 10))
		c.Next()
	}
}

type rateLimitEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryRateStore is a process-local RateLimitStore.
type MemoryRateStore struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	now     func() time.Time
}

func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{entries: make(map[string]*rateLimitEntry), now: time.Now}
}

func (s *MemoryRateStore) IncrementWindow(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || !now.Before(entry.resetAt) {
		entry = &rateLimitEntry{resetAt: now.Add(window)}
		s.entries[key] = entry
		s.sweep(now)
	}
	entry.count++

	return entry.count, entry.resetAt.Sub(now), nil
}

// sweep drops expired windows. Called with mu held whenever a window starts,
// so the map stays bounded by the number of active clients.
func (s *MemoryRateStore) sweep(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.resetAt) {
			delete(s.entries, k)
		}
	}
}
