package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	App struct {
		Port        string
		Env         string
		LogLevel    string
		Debug       bool
		FrontendURL string
	}
	Data struct {
		NEOPath string
		CADPath string
		CADURL  string
	}
	DB struct {
		Enabled  bool
		Host     string
		Port     string
		User     string
		Password string
		DBName   string
		SSLMode  string
	}
	Redis struct {
		Enabled  bool
		Host     string
		Port     string
		Password string
		DB       int
		CacheTTL time.Duration
	}
	Workers struct {
		RetentionEnabled  bool
		RetentionInterval time.Duration
		RetentionMaxAge   time.Duration
	}
	RateLimit struct {
		RequestsPerSecond int
		Burst             int
		PerIP             bool
	}
}

func Load() *Config {
	cfg := &Config{}

	// App
	cfg.App.Port = getEnv("PORT", "8080")
	cfg.App.Env = getEnv("APP_ENV", "local")
	cfg.App.LogLevel = getEnv("LOG_LEVEL", "")
	cfg.App.Debug = getEnvAsBool("DEBUG", false)
	cfg.App.FrontendURL = getEnv("FRONTEND_URL", "http://localhost:3000")

	// Data
	cfg.Data.NEOPath = getEnv("NEO_FILE", "./data/neos.csv")
	cfg.Data.CADPath = getEnv("CAD_FILE", "./data/cad.json")
	cfg.Data.CADURL = getEnv("CAD_API_URL", "")

	// DB
	cfg.DB.Enabled = getEnvAsBool("DB_ENABLED", false)
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.DBName = getEnv("DB_NAME", "neowatch")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	// Redis
	cfg.Redis.Enabled = getEnvAsBool("REDIS_ENABLED", false)
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port = getEnv("REDIS_PORT", "6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)
	cfg.Redis.CacheTTL = getEnvAsDuration("REDIS_CACHE_TTL", 10*time.Minute)

	// Workers
	cfg.Workers.RetentionEnabled = getEnvAsBool("RETENTION_ENABLED", true)
	cfg.Workers.RetentionInterval = getEnvAsDuration("WORKER_RETENTION_INTERVAL", time.Hour)
	cfg.Workers.RetentionMaxAge = getEnvAsDuration("QUERY_LOG_MAX_AGE", 30*24*time.Hour)

	// Rate Limit
	cfg.RateLimit.RequestsPerSecond = getEnvAsInt("RATE_LIMIT_RPS", 10)
	cfg.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", 20)
	cfg.RateLimit.PerIP = getEnvAsBool("RATE_LIMIT_PER_IP", false)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if dur, err := time.ParseDuration(value); err == nil {
			return dur
		}
	}
	return defaultValue
}
