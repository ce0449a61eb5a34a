package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"neowatch/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw)
	r.GET("/api/v1/approaches", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/api/v1/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func get(r http.Handler, path, ip string) int {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	req.RemoteAddr = ip + ":1234"
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr.Code
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newRouter(RateLimitMiddleware(rate.NewLimiter(rate.Limit(0.001), 2), zap.NewNop()))

	assert.Equal(t, http.StatusOK, get(r, "/api/v1/approaches", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/approaches", "10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/api/v1/approaches", "10.0.0.3"))
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/health", "10.0.0.3"))
}

func TestIPRateLimitMiddleware(t *testing.T) {
	r := newRouter(IPRateLimitMiddleware(NewIPRateLimiter(rate.Limit(0.001), 1), zap.NewNop()))

	assert.Equal(t, http.StatusOK, get(r, "/api/v1/approaches", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/api/v1/approaches", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/approaches", "10.0.0.2"))
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/health", "10.0.0.1"))
}

func TestIPRateLimiter_ReusesLimiter(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	assert.Same(t, l.GetLimiter("1.2.3.4"), l.GetLimiter("1.2.3.4"))
	assert.NotSame(t, l.GetLimiter("1.2.3.4"), l.GetLimiter("5.6.7.8"))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))

	var scoped *zap.Logger
	r.GET("/api/v1/approaches", func(c *gin.Context) {
		scoped = logger.FromContext(c.Request.Context())
		c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, get(r, "/api/v1/approaches", "10.0.0.1"))
	assert.Equal(t, http.StatusNotFound, get(r, "/missing", "10.0.0.1"))

	assert.NotNil(t, scoped)
	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "Request handled", entries[0].Message)
		assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
		assert.Equal(t, "Request rejected", entries[1].Message)
	}
}
