package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/doitnow-api/internal/interface/middleware"
)

// Limiter builds per-route rate limiters. A disabled limiter passes every
// request through.
type Limiter struct {
	rdb   *redis.Client
	allow middleware.AllowFunc
}

func NewLimiter(rdb *redis.Client, enabled bool, env string) *Limiter {
	if !enabled {
		rdb = nil
	}
	return &Limiter{rdb: rdb, allow: middleware.AllowInDevelopment(env)}
}

// PerIP limits each client IP on each route.
func (l *Limiter) PerIP(max int, window time.Duration) gin.HandlerFunc {
	return middleware.RateLimit(l.rdb, middleware.Rule{Max: max, Window: window, Key: middleware.KeyByIPAndPath(), Allow: l.allow})
}

// PerUser limits each authenticated user on each route.
func (l *Limiter) PerUser(max int, window time.Duration) gin.HandlerFunc {
	return middleware.RateLimit(l.rdb, middleware.Rule{Max: max, Window: window, Key: middleware.KeyByUserID(), Allow: l.allow})
}
