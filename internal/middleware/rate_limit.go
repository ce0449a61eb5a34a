package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func skipRateLimit(path string) bool {
	return path == "/health" || path == "/api/v1/health" || path == "/metrics"
}

// RateLimitMiddleware applies one shared limiter to every request.
func RateLimitMiddleware(limiter *rate.Limiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipRateLimit(c.Request.URL.Path) {
			c.Next()
			return
		}

		if !limiter.Allow() {
			log.Warn("Rate limit blocked request",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate limit exceeded",
				"message": "please try again later",
			})
			return
		}

		c.Next()
	}
}

// IPRateLimiter keeps one limiter per client IP.
type IPRateLimiter struct {
	ips map[string]*rate.Limiter
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*rate.Limiter),
		r:   r,
		b:   b,
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}
	return limiter
}

func IPRateLimitMiddleware(ipLimiter *IPRateLimiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipRateLimit(c.Request.URL.Path) {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		if !ipLimiter.GetLimiter(clientIP).Allow() {
			log.Warn("Rate limit blocked IP",
				zap.String("ip", clientIP),
				zap.String("path", c.Request.URL.Path))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate limit exceeded for your IP",
				"message": "please try again in a few seconds",
			})
			return
		}

		c.Next()
	}
}
