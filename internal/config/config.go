package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type Config struct {
	Environment string
	LogLevel    slog.Level
	LogFile     string

	// RedisURL enables interception events when set
	RedisURL          string
	SessionID         uuid.UUID
	EventBuffer       int
	RecentEventsLimit int

	// SkipRulesFile replaces the built-in skip rules when set
	SkipRulesFile string
	WatchRules    bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LogFile:       getEnv("LOG_FILE", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		SkipRulesFile: getEnv("SKIP_RULES_FILE", ""),
	}

	var err error
	if cfg.SessionID, err = getUUIDEnv("SESSION_ID"); err != nil {
		return nil, err
	}
	if cfg.WatchRules, err = getBoolEnv("WATCH_RULES", false); err != nil {
		return nil, err
	}
	if cfg.EventBuffer, err = getIntEnv("EVENT_BUFFER", 64); err != nil {
		return nil, err
	}
	if cfg.RecentEventsLimit, err = getIntEnv("RECENT_EVENTS_LIMIT", 50); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.EventBuffer <= 0 {
		return fmt.Errorf("EVENT_BUFFER must be positive, got %d", c.EventBuffer)
	}
	if c.RecentEventsLimit <= 0 {
		return fmt.Errorf("RECENT_EVENTS_LIMIT must be positive, got %d", c.RecentEventsLimit)
	}
	if c.WatchRules && c.SkipRulesFile == "" {
		return fmt.Errorf("WATCH_RULES requires SKIP_RULES_FILE")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

// getUUIDEnv returns a fresh session id when the variable is unset.
func getUUIDEnv(key string) (uuid.UUID, error) {
	value := os.Getenv(key)
	if value == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return id, nil
}
