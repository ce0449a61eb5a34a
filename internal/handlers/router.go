package handlers

import (
	"time"

	"neowatch/internal/metrics"
	"neowatch/internal/middleware"
	"neowatch/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type RouterOptions struct {
	FrontendURL string
	// RequestsPerSecond <= 0 disables rate limiting.
	RequestsPerSecond int
	Burst             int
	PerIP             bool
	DBEnabled         bool
	RedisEnabled      bool
}

// NewRouter builds the gin engine with middleware and the /api/v1 routes.
func NewRouter(svc service.NEOService, log *zap.Logger, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(metrics.Middleware())

	origins := []string{"http://localhost:3000"}
	if opts.FrontendURL != "" && opts.FrontendURL != origins[0] {
		origins = append(origins, opts.FrontendURL)
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if opts.RequestsPerSecond > 0 {
		if opts.PerIP {
			ipLimiter := middleware.NewIPRateLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst)
			r.Use(middleware.IPRateLimitMiddleware(ipLimiter, log))
		} else {
			limiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst)
			r.Use(middleware.RateLimitMiddleware(limiter, log))
		}
		log.Info("Rate limiting enabled",
			zap.Int("rps", opts.RequestsPerSecond),
			zap.Int("burst", opts.Burst),
			zap.Bool("per_ip", opts.PerIP))
	}

	neoHandler := NewNEOHandler(svc, log)
	systemHandler := NewSystemHandler(svc, opts.DBEnabled, opts.RedisEnabled)

	api := r.Group("/api/v1")
	api.GET("/neos", neoHandler.FindNEO)
	api.GET("/neos/:designation", neoHandler.GetNEO)
	api.GET("/approaches", neoHandler.GetApproaches)
	api.GET("/approaches/export", neoHandler.ExportApproaches)
	api.GET("/health", systemHandler.Health)
	api.GET("/system/stats", systemHandler.Stats)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
