package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neowatch/internal/clients"
	"neowatch/internal/config"
	"neowatch/internal/extract"
	"neowatch/internal/handlers"
	"neowatch/internal/logger"
	"neowatch/internal/repository"
	"neowatch/internal/service"
	"neowatch/internal/worker"
	"neowatch/pkg/database"
	"neowatch/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()

	logr, err := logger.NewLogger(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	if envErr != nil {
		logr.Info("No .env file found, using environment variables")
	}

	if err := run(cfg, logr); err != nil {
		logr.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	logr.Info("=== NEO Watch Backend Starting ===", zap.String("env", cfg.App.Env))

	if cfg.Data.CADURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		downloaded, err := clients.NewCADClient(cfg.Data.CADURL).DownloadIfMissing(ctx, cfg.Data.CADPath)
		cancel()
		if err != nil {
			return fmt.Errorf("download close-approach data: %w", err)
		}
		if downloaded {
			logr.Info("Close-approach data downloaded", zap.String("path", cfg.Data.CADPath))
		}
	}

	start := time.Now()
	db, err := extract.LoadDatabase(cfg.Data.NEOPath, cfg.Data.CADPath)
	if err != nil {
		return err
	}
	stats := db.Stats()
	logr.Info("Data loaded",
		zap.Int("neos", stats.NEOs),
		zap.Int("approaches", stats.Approaches),
		zap.Int("unlinked_approaches", stats.UnlinkedApproaches),
		zap.Duration("took", time.Since(start)))

	opts := service.Options{
		Source:   service.SourceAPI,
		CacheTTL: cfg.Redis.CacheTTL,
		Logger:   logr,
	}

	scheduler := worker.NewScheduler(logr)

	// Query log (optional)
	if cfg.DB.Enabled {
		gormDB, err := database.Connect(database.Config{
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			DBName:   cfg.DB.DBName,
			SSLMode:  cfg.DB.SSLMode,
			Debug:    cfg.App.Debug,
		}, logr)
		if err != nil {
			return err
		}
		defer func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				sqlDB.Close()
			}
		}()

		if err := database.Migrate(gormDB, logr); err != nil {
			return err
		}

		queryLogRepo := repository.NewQueryLogRepository(gormDB)
		opts.QueryLogs = queryLogRepo

		if cfg.Workers.RetentionEnabled {
			scheduler.AddWorker(worker.NewRetentionWorker(
				queryLogRepo, cfg.Workers.RetentionInterval, cfg.Workers.RetentionMaxAge, logr))
			logr.Info("Retention worker enabled",
				zap.Duration("interval", cfg.Workers.RetentionInterval),
				zap.Duration("max_age", cfg.Workers.RetentionMaxAge))
		}
	}

	// Query cache (optional)
	if cfg.Redis.Enabled {
		redisClient, err := redis.Connect(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logr)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		opts.Cache = repository.NewCacheRepository(redisClient)
		opts.RedisInfo = func(ctx context.Context) (map[string]string, error) {
			return redis.GetStats(ctx, redisClient)
		}
	}

	svc := service.NewNEOService(db, opts)

	go scheduler.Start()
	defer scheduler.Stop()

	if cfg.App.Debug {
		gin.SetMode(gin.DebugMode)
		logr.Info("Running in DEBUG mode")
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	routerOpts := handlers.RouterOptions{
		FrontendURL:  cfg.App.FrontendURL,
		PerIP:        cfg.RateLimit.PerIP,
		DBEnabled:    cfg.DB.Enabled,
		RedisEnabled: cfg.Redis.Enabled,
	}
	// Rate limiting is production only
	if !cfg.App.Debug {
		routerOpts.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		routerOpts.Burst = cfg.RateLimit.Burst
	}
	r := handlers.NewRouter(svc, logr, routerOpts)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logr.Info("Server starting",
			zap.String("addr", "http://localhost:"+cfg.App.Port),
			zap.String("api", "/api/v1"),
			zap.String("health", "/api/v1/health"))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	}
	logr.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logr.Info("Server exited properly")
	return nil
}
