package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// DatabaseURL points at the remote system of record. Empty means
	// local-only mode: every display keeps working from its local store.
	DatabaseURL string

	Port    int
	DataDir string

	PollInterval  time.Duration
	FlushInterval time.Duration

	ServiceChargePct float64
	AllowedOrigins   []string
}

// Load reads .env when present, then the environment. Missing keys fall back
// to defaults; only malformed values are errors.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DataDir:     getEnv("DATA_DIR", "./data"),
	}

	port, err := getEnvInt("PORT", 3000)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	poll, err := getEnvInt("POLL_INTERVAL_SECONDS", 5)
	if err != nil {
		return nil, err
	}
	cfg.PollInterval = time.Duration(poll) * time.Second

	flush, err := getEnvInt("FLUSH_INTERVAL_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	cfg.FlushInterval = time.Duration(flush) * time.Second

	pct, err := getEnvFloat("SERVICE_CHARGE_PCT", 0)
	if err != nil {
		return nil, err
	}
	cfg.ServiceChargePct = pct

	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:5173")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg, nil
}

func (c *Config) LocalOnly() bool {
	return c.DatabaseURL == ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, value)
	}
	return f, nil
}
