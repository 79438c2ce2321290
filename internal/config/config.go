package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string        // API bind address, e.g. ":8080"
	LogDir         string        // logs directory
	LogLevel       string        // zap level name
	DatabaseDriver string        // "memory", "sqlite" or "postgres"
	DatabaseURL    string        // sqlite file path or postgres DSN
	ProbeTimeout   time.Duration // per outbound availability check
	NotifyTimeout  time.Duration // per webhook POST attempt
	NotifyAttempts int           // webhook delivery attempts
	NotifyBackoff  time.Duration // delay before 2nd attempt, doubling
	AcceptStatusLo int           // lowest HTTP code counted as UP
	AcceptStatusHi int           // highest HTTP code counted as UP
	ShutdownGrace  time.Duration // how long in-flight work gets on exit
	AdminAPIKeys   []string      // keys allowed to mutate sites/webhooks
	RatePerMin     int           // API requests per minute per client IP
	RateBurst      int           // token bucket burst for the API limiter
}

// FromEnv reads configuration from the environment, loading a local .env
// file first when present.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		Addr:           getEnv("ADDR", "127.0.0.1:8080"),
		LogDir:         getEnv("LOG_DIR", "logs"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "memory"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		ProbeTimeout:   getEnvDuration("PROBE_TIMEOUT", 10*time.Second),
		NotifyTimeout:  getEnvDuration("NOTIFY_TIMEOUT", 5*time.Second),
		NotifyAttempts: getEnvInt("NOTIFY_ATTEMPTS", 3),
		NotifyBackoff:  getEnvDuration("NOTIFY_BACKOFF", time.Second),
		AcceptStatusLo: getEnvInt("ACCEPT_STATUS_LO", 200),
		AcceptStatusHi: getEnvInt("ACCEPT_STATUS_HI", 399),
		ShutdownGrace:  getEnvDuration("SHUTDOWN_GRACE", 10*time.Second),
		AdminAPIKeys:   splitKeys(os.Getenv("ADMIN_API_KEYS")),
		RatePerMin:     getEnvInt("RATE_LIMIT_PER_MIN", 600),
		RateBurst:      getEnvInt("RATE_LIMIT_BURST", 100),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitKeys(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
