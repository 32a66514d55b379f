// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the navcms configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DefaultEnvFiles are loaded by Load when present.
var DefaultEnvFiles = []string{".env", ".env.local"}

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// ErrSeedCredentials is returned when seeding is enabled without admin credentials.
var ErrSeedCredentials = errors.New("NAVCMS_ADMIN_EMAIL and NAVCMS_ADMIN_PASSWORD are required when NAVCMS_DO_SEED is set")

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"NAVCMS_DB_PATH" envDefault:"./data/navcms.db"`
	SecretKey  string `env:"NAVCMS_SECRET_KEY,required"`
	ServerHost string `env:"NAVCMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"NAVCMS_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"NAVCMS_ENV" envDefault:"development"`
	LogLevel   string `env:"NAVCMS_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL     string `env:"NAVCMS_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"NAVCMS_CACHE_PREFIX" envDefault:"navcms:"` // Redis key prefix
	CacheTTL     int    `env:"NAVCMS_CACHE_TTL" envDefault:"3600"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"NAVCMS_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// API access; rates are requests per second per token or client IP
	TokenTTL           time.Duration `env:"NAVCMS_TOKEN_TTL" envDefault:"24h"`
	APIRateLimit       float64       `env:"NAVCMS_API_RATE_LIMIT" envDefault:"10"`
	APIRateBurst       int           `env:"NAVCMS_API_RATE_BURST" envDefault:"20"`
	LoginRateLimit     float64       `env:"NAVCMS_LOGIN_RATE_LIMIT" envDefault:"0.2"`
	LoginRateBurst     int           `env:"NAVCMS_LOGIN_RATE_BURST" envDefault:"5"`
	IPRateLimit        float64       `env:"NAVCMS_IP_RATE_LIMIT" envDefault:"50"`
	IPRateBurst        int           `env:"NAVCMS_IP_RATE_BURST" envDefault:"100"`
	TrustedOrigins     []string      `env:"NAVCMS_TRUSTED_ORIGINS" envSeparator:","`
	EventRetentionDays int           `env:"NAVCMS_EVENT_RETENTION_DAYS" envDefault:"90"`

	// Seeding configuration
	DoSeed        bool   `env:"NAVCMS_DO_SEED" envDefault:"false"`
	AdminEmail    string `env:"NAVCMS_ADMIN_EMAIL"`
	AdminPassword string `env:"NAVCMS_ADMIN_PASSWORD"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheTTLDuration returns the cache TTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// EventRetention returns how long event log entries are kept.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSecretKeyLength is the minimum required length for the secret key.
const MinSecretKeyLength = 32

// LoadEnv loads the files that exist among envFiles into the process
// environment and returns how many were loaded. Variables already set win.
func LoadEnv(envFiles ...string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads the default .env files, then parses and validates the environment.
func Load() (*Config, error) {
	if _, err := LoadEnv(DefaultEnvFiles...); err != nil {
		slog.Warn("failed to load .env file", "error", err)
	}
	return Parse()
}

// Parse parses environment variables into a Config and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the secret key, environment name, log level, limits and
// seeding credentials.
func (c *Config) Validate() error {
	if len(c.SecretKey) < MinSecretKeyLength {
		return fmt.Errorf("NAVCMS_SECRET_KEY must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSecretKeyLength, len(c.SecretKey))
	}

	if slices.Contains(knownWeakSecrets, c.SecretKey) {
		return errors.New("NAVCMS_SECRET_KEY is a known default value and must not be used; " +
			"generate a secure secret with: openssl rand -base64 32")
	}

	if !hasMinimumEntropy(c.SecretKey) {
		slog.Warn("NAVCMS_SECRET_KEY has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("NAVCMS_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}

	c.LogLevel = strings.ToLower(c.LogLevel)
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("NAVCMS_LOG_LEVEL must be one of %s, got %q", strings.Join(validLogLevels, ", "), c.LogLevel)
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("NAVCMS_TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.APIRateLimit <= 0 || c.LoginRateLimit <= 0 || c.IPRateLimit <= 0 {
		return errors.New("NAVCMS_API_RATE_LIMIT, NAVCMS_LOGIN_RATE_LIMIT and NAVCMS_IP_RATE_LIMIT must be positive")
	}
	if c.APIRateBurst < 1 || c.LoginRateBurst < 1 || c.IPRateBurst < 1 {
		return errors.New("rate limit bursts must be at least 1")
	}
	if c.EventRetentionDays < 1 {
		return fmt.Errorf("NAVCMS_EVENT_RETENTION_DAYS must be at least 1, got %d", c.EventRetentionDays)
	}

	if c.DoSeed && (c.AdminEmail == "" || c.AdminPassword == "") {
		return ErrSeedCredentials
	}

	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
