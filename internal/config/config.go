package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config drives the daemon around the calendar engine. Values come from an
// optional YAML file (VCAL_CONFIG) overridden by VCAL_* environment
// variables. CalendarName and Timezone are the calendar-level NAME and
// TIMEZONE properties; the timezone stays an opaque label attached to the
// export, no conversion happens anywhere.
type Config struct {
	CalendarName   string `yaml:"calendar_name"`
	Timezone       string `yaml:"timezone"`
	BindAddress    string `yaml:"listen"`
	UnixSocketPath string `yaml:"unix_socket"`
	RequireToken   bool   `yaml:"require_token"`
	Token          string `yaml:"token"`
	TokenHash      string `yaml:"token_hash"`
	LogLevel       string `yaml:"log_level"`
}

func defaults() Config {
	return Config{
		CalendarName: "default",
		Timezone:     "UTC",
		BindAddress:  "127.0.0.1:9280",
		RequireToken: true,
		LogLevel:     "info",
	}
}

// Load reads the file named by VCAL_CONFIG (if any), applies environment
// overrides and validates the result.
func Load() (Config, error) {
	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("VCAL_CONFIG")); path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a specific YAML file with environment overrides applied on
// top.
func LoadFile(path string) (Config, error) {
	cfg := defaults()
	if err := readFile(path, &cfg); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.CalendarName = getenvDefault("VCAL_CALENDAR_NAME", cfg.CalendarName)
	cfg.Timezone = getenvDefault("VCAL_TIMEZONE", cfg.Timezone)
	cfg.BindAddress = getenvDefault("VCAL_BIND_ADDRESS", cfg.BindAddress)
	cfg.UnixSocketPath = getenvDefault("VCAL_UNIX_SOCKET", cfg.UnixSocketPath)
	cfg.RequireToken = getenvBool("VCAL_REQUIRE_TOKEN", cfg.RequireToken)
	cfg.Token = getenvDefault("VCAL_TOKEN", cfg.Token)
	cfg.TokenHash = getenvDefault("VCAL_TOKEN_HASH", cfg.TokenHash)
	cfg.LogLevel = getenvDefault("VCAL_LOG_LEVEL", cfg.LogLevel)
}

func (c Config) Validate() error {
	if c.CalendarName == "" {
		return errors.New("calendar name is required")
	}
	if c.BindAddress == "" && c.UnixSocketPath == "" {
		return errors.New("either bind address or unix socket path must be configured")
	}
	if c.RequireToken && c.Token == "" && c.TokenHash == "" {
		return errors.New("VCAL_TOKEN or VCAL_TOKEN_HASH is required when token auth is enabled")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}
