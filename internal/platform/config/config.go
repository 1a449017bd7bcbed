package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every tunable of the tracking server. Values come from the
// environment with an optional .env file for local runs.
type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string

	LogLevel  string
	LogFormat string

	// CurrentLocationTTL bounds how long a non-reporting driver stays
	// visible; staleness is detected purely by this expiry.
	CurrentLocationTTL time.Duration
	DeliveryInfoTTL    time.Duration
	DriverConnTTL      time.Duration

	// HistoryLimitMax caps the ?limit= parameter of the history endpoint.
	HistoryLimitMax int
}

// Load reads the environment (and .env when present) into a Config.
// DATABASE_URL is the only required value.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:               Get("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisAddr:          Get("REDIS_ADDR", "localhost:6379"),
		LogLevel:           Get("LOG_LEVEL", "info"),
		LogFormat:          Get("LOG_FORMAT", "json"),
		CurrentLocationTTL: getDuration("CURRENT_LOCATION_TTL", time.Hour),
		DeliveryInfoTTL:    getDuration("DELIVERY_INFO_TTL", 24*time.Hour),
		DriverConnTTL:      getDuration("DRIVER_CONN_TTL", time.Hour),
		HistoryLimitMax:    getInt("HISTORY_LIMIT_MAX", 500),
	}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return Config{}, fmt.Errorf("load config: DATABASE_URL is required")
	}

	return cfg, nil
}

// Get returns the value of an environment variable or a fallback.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
