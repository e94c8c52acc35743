// Package config reads server configuration from the environment. A .env
// file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port             int
	DatabasePath     string
	RosterPath       string // optional YAML roster, the built-in roster when empty
	LogLevel         string
	LogPretty        bool
	AutosaveInterval time.Duration
	CORSOrigins      []string
	StaticDir        string // built dashboard, a placeholder page when empty
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvAsInt("ALLOC_PORT", 8080),
		DatabasePath:     getEnv("ALLOC_DB", "allocation.db"),
		RosterPath:       getEnv("ALLOC_ROSTER", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogPretty:        getEnvAsBool("LOG_PRETTY", false),
		AutosaveInterval: getEnvAsDuration("ALLOC_AUTOSAVE_INTERVAL", time.Minute),
		CORSOrigins:      getEnvAsList("ALLOC_CORS_ORIGINS", []string{"*"}),
		StaticDir:        getEnv("ALLOC_STATIC_DIR", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("ALLOC_DB is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("ALLOC_PORT %d is out of range", c.Port)
	}
	if c.AutosaveInterval <= 0 {
		return fmt.Errorf("ALLOC_AUTOSAVE_INTERVAL must be positive, got %s", c.AutosaveInterval)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
