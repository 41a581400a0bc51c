package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleTTL         = 10 * time.Minute
)

// limiterEntry holds a rate limiter with last used timestamp
type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// keyRateLimiter manages per-key rate limiters with automatic cleanup
type keyRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	stopOnce sync.Once
	stopCh   chan struct{}
}

func newKeyRateLimiter(limit rate.Limit, burst int) *keyRateLimiter {
	k := &keyRateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    limit,
		burst:    burst,
		stopCh:   make(chan struct{}),
	}
	go k.cleanupLoop()
	return k
}

func (k *keyRateLimiter) getLimiter(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	entry, ok := k.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.limiters[key] = entry
	}
	entry.lastUsed = time.Now()
	return entry.limiter
}

func (k *keyRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			k.cleanup(time.Now().Add(-limiterIdleTTL))
		case <-k.stopCh:
			return
		}
	}
}

// cleanup drops limiters idle since before cutoff
func (k *keyRateLimiter) cleanup(cutoff time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for key, entry := range k.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(k.limiters, key)
		}
	}
}

// Stop terminates the cleanup goroutine
func (k *keyRateLimiter) Stop() {
	k.stopOnce.Do(func() { close(k.stopCh) })
}

// RateLimitConfig defines configuration for the rate limiting middleware
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// MsgTooManyAttempts is returned when a client exceeds its limit
const MsgTooManyAttempts = "Túl sok próbálkozás. Kérjük, próbáld újra később."

// IPRateLimiter throttles requests per client IP
type IPRateLimiter struct {
	limiter *keyRateLimiter
}

// NewIPRateLimiter creates a per-IP limiter; Stop releases its cleanup goroutine
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	// Default values: 5 requests per minute for login endpoints
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}

	limit := rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	return &IPRateLimiter{limiter: newKeyRateLimiter(limit, cfg.Burst)}
}

// Handler enforces the limit. Routes sharing one IPRateLimiter share the budget.
func (l *IPRateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.limiter.getLimiter(c.ClientIP()).Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "60")
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": MsgTooManyAttempts})
			return
		}
		c.String(http.StatusTooManyRequests, MsgTooManyAttempts)
		c.Abort()
	}
}

// Stop terminates the cleanup goroutine
func (l *IPRateLimiter) Stop() {
	l.limiter.Stop()
}
