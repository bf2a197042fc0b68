package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tazhibayda/workspace-service/internal/log"
	"github.com/tazhibayda/workspace-service/internal/repo"
)

// Limiter decides whether one more request under key fits its window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type bucket struct {
	tokens  int
	updated time.Time
}

// RateLimiter is an in-process fixed window limiter, used when no Redis is
// configured.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
	now     func() time.Time
}

func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{buckets: make(map[string]*bucket), rate: rate, window: window, now: time.Now}
}

func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.updated) > rl.window {
		rl.buckets[key] = &bucket{tokens: 1, updated: now}
		return true, nil
	}
	if b.tokens < rl.rate {
		b.tokens++
		return true, nil
	}
	return false, nil
}

// RedisLimiter shares the window between replicas.
type RedisLimiter struct {
	R      *repo.Redis
	Rate   int
	Window time.Duration
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.R.Hit(ctx, "rl:"+key, l.Window)
	if err != nil {
		return false, err
	}
	return n <= int64(l.Rate), nil
}

func ClientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	host, _, err := net.SplitHostPort(ip)
	if err == nil && host != "" {
		return host
	}
	return ip
}

// RateLimit throttles per client IP and scope. Limiter errors let the
// request through.
func RateLimit(l Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		ok, err := l.Allow(c.Request.Context(), scope+":"+ClientIP(c))
		if err != nil {
			log.WithDD(c.Request.Context(), log.L()).Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
