package mw

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// CallerRateLimiter keeps a token bucket per caller. Buckets idle for longer
// than the expiry are dropped.
type CallerRateLimiter struct {
	limiters *cache.Cache
	r        rate.Limit
	b        int
}

// NewCallerRateLimiter creates a new CallerRateLimiter.
func NewCallerRateLimiter(r rate.Limit, b int, idle time.Duration) *CallerRateLimiter {
	return &CallerRateLimiter{
		limiters: cache.New(idle, 2*idle),
		r:        r,
		b:        b,
	}
}

// GetLimiter returns the bucket for key, creating it on first use.
func (l *CallerRateLimiter) GetLimiter(key string) *rate.Limiter {
	if v, found := l.limiters.Get(key); found {
		l.limiters.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(l.r, l.b)
	if err := l.limiters.Add(key, limiter, cache.DefaultExpiration); err != nil {
		// lost the race to another request from the same caller
		if v, found := l.limiters.Get(key); found {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// RateLimiter limits requests per authenticated user, falling back to the client IP.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewCallerRateLimiter(r, b, 10*time.Minute)
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID := c.GetString(ContextUserID); userID != "" {
			key = "user:" + userID
		}
		if !limiter.GetLimiter(key).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests", "code": "rate_limited"})
			return
		}
		c.Next()
	}
}
