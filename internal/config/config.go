package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	DatabaseDSN    string
	Port           string
	JWTSecret      string
	Release        bool
	LockTimeout    time.Duration
	LogLevel       string
	LogDevelopment bool
	CORSOrigins    []string
	LowStockAlerts bool
}

// Load reads configs/.env if present, then environment variables with
// development defaults.
func Load() (Config, error) {
	_ = godotenv.Load("configs/.env")

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		Release:        os.Getenv("GIN_MODE") == "release",
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogDevelopment: getBool("LOG_DEVELOPMENT", false),
		LowStockAlerts: getBool("LOW_STOCK_ALERTS", true),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")),
	}

	cfg.DatabaseDSN = os.Getenv("DATABASE_DSN")
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "postgres"),
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_NAME", "pharmacy"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, fmt.Errorf("invalid PORT value %q", cfg.Port)
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		if cfg.Release {
			return Config{}, fmt.Errorf("JWT_SECRET environment variable is required in release mode")
		}
		cfg.JWTSecret = "default_super_secret_key" // development fallback only
	}

	lockTimeout, err := time.ParseDuration(getEnv("DB_LOCK_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_LOCK_TIMEOUT: %w", err)
	}
	cfg.LockTimeout = lockTimeout

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
