// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	ServerPort     string        `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	SessionSecret  string        `env:"SESSION_SECRET,required"`
	YouTubeAPIKey  string        `env:"YOUTUBE_API_KEY"`
	TempDir        string        `env:"TEMP_DIR"`
	SearchCacheTTL time.Duration `env:"SEARCH_CACHE_TTL" envDefault:"1h"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}

	// Validate log level
	validLogLevels := []string{"debug", "info", "warn", "error"}
	logLevel := strings.ToLower(c.LogLevel)
	isValidLevel := false
	for _, level := range validLogLevels {
		if logLevel == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("invalid log level %q, must be one of: %v", c.LogLevel, validLogLevels)
	}

	if c.SearchCacheTTL <= 0 {
		return fmt.Errorf("SEARCH_CACHE_TTL must be positive, got: %s", c.SearchCacheTTL)
	}

	// Default the temp directory to the OS location and validate it
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	cleanPath := filepath.Clean(c.TempDir)
	if !filepath.IsAbs(cleanPath) {
		return fmt.Errorf("TEMP_DIR must be an absolute path, got: %s", c.TempDir)
	}

	// Check if path exists and is a directory (only if it exists)
	if info, err := os.Stat(cleanPath); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("TEMP_DIR must be a directory, got file: %s", cleanPath)
		}
	}

	c.TempDir = cleanPath

	return nil
}
