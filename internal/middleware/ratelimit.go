package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type window struct {
	count int
	reset time.Time
}

// InMemoryRateLimiter counts requests per key in fixed windows. Keys are client IPs,
// or API keys for partner systems.
type InMemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
}

func NewInMemoryRateLimiter(limit int, period time.Duration) *InMemoryRateLimiter {
	r := &InMemoryRateLimiter{windows: make(map[string]*window), limit: limit, period: period}
	go r.sweep()
	return r
}

// Allow records one request for key. When refused it also returns how long until the window resets.
func (r *InMemoryRateLimiter) Allow(key string) (bool, time.Duration) {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	w, found := r.windows[key]
	if !found || !now.Before(w.reset) {
		r.windows[key] = &window{count: 1, reset: now.Add(r.period)}
		return true, 0
	}
	if w.count >= r.limit {
		return false, w.reset.Sub(now)
	}
	w.count++
	return true, 0
}

func (r *InMemoryRateLimiter) sweep() {
	for range time.Tick(r.period) {
		now := time.Now()
		r.mu.Lock()
		for k, w := range r.windows {
			if !now.Before(w.reset) {
				delete(r.windows, k)
			}
		}
		r.mu.Unlock()
	}
}

// RateLimit limits by client IP.
func RateLimit(limiter *InMemoryRateLimiter) gin.HandlerFunc {
	return RateLimitBy(limiter, func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitBy limits by the key returned for each request.
func RateLimitBy(limiter *InMemoryRateLimiter, keyOf func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, wait := limiter.Allow(keyOf(c))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "Trop de requêtes, réessayez plus tard", "code": "RATE_LIMITED"})
			return
		}
		c.Next()
	}
}
