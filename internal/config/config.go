package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr             string
	DBPath           string
	LogLevel         string
	DesiredRetention float64
	MaxIntervalDays  int
}

// Load reads configuration from a .env file (if present) and environment
// variables, applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:             envOr("ADDR", ":8080"),
		DBPath:           envOr("DB_PATH", "file:flashdeck.db"),
		LogLevel:         envOr("LOG_LEVEL", "INFO"),
		DesiredRetention: envFloatOr("DESIRED_RETENTION", 0.9),
		MaxIntervalDays:  envIntOr("MAX_INTERVAL_DAYS", 36500),
	}
}

// Validate checks the configuration, collecting every problem into one error.
func (c Config) Validate() error {
	var problems []string

	if c.Addr == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if c.DBPath == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		problems = append(problems, fmt.Sprintf("LOG_LEVEL %q is not a valid level", c.LogLevel))
	}
	if c.DesiredRetention <= 0 || c.DesiredRetention > 1 {
		problems = append(problems, fmt.Sprintf("DESIRED_RETENTION %f must be in (0, 1]", c.DesiredRetention))
	}
	if c.MaxIntervalDays <= 0 {
		problems = append(problems, fmt.Sprintf("MAX_INTERVAL_DAYS %d must be positive", c.MaxIntervalDays))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %f", key, v, def)
	}
	return def
}
