// Package config reads server settings from the environment. A .env file in
// the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server settings.
type Config struct {
	Port int

	// DBDriver selects the store: "sqlite" (default) or "postgres".
	DBDriver    string
	DBPath      string
	DatabaseURL string

	JWTSecret string

	// Receipt images are written to ImageDir and served under ImageBaseURL.
	ImageDir     string
	ImageBaseURL string

	// An empty ReceiptAPIURL disables extraction; scans then always fall
	// back to manual entry.
	ReceiptAPIURL  string
	ReceiptAPIKey  string
	ReceiptTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads the configuration. Files listed in envFiles are loaded into
// the environment first; with none, ".env" is tried. Variables already set
// in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		// A missing .env is fine.
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{
		DBDriver:      getEnv("DB_DRIVER", "sqlite"),
		DBPath:        getEnv("DB_PATH", "./data/splitbill.db"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		ImageDir:      getEnv("IMAGE_DIR", "./data/receipts"),
		ImageBaseURL:  getEnv("IMAGE_BASE_URL", ""),
		ReceiptAPIURL: getEnv("RECEIPT_API_URL", ""),
		ReceiptAPIKey: getEnv("RECEIPT_API_KEY", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
	}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", os.Getenv("PORT"))
	}
	cfg.Port = port

	timeout, err := time.ParseDuration(getEnv("RECEIPT_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECEIPT_TIMEOUT: %w", err)
	}
	cfg.ReceiptTimeout = timeout

	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = fmt.Sprintf("http://localhost:%d/receipts", cfg.Port)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
