// Package config handles application configuration.
//
// It provides:
//   - Flag parsing with CLI arguments
//   - Environment variable support (with CLI override)
//   - Configuration validation
//   - Precedence: CLI flags > environment variables > defaults
//
// Supported environment variables:
//   - VAG_EMAIL: Account email for the brand login
//   - VAG_PASSWORD: Account password
//   - VAG_BRAND: Brand to authenticate against (volkswagen, skoda, seat, cupra)
//   - VAG_SPIN: Security PIN for privileged vehicle operations (optional)
//   - VAG_TOKEN_PATH: Path to the persisted token file
//   - VAG_PORT: HTTP server port
//   - VAG_PROBE_INTERVAL: Seconds between token validity probes
//   - VAG_LOG_LEVEL: Logging level (debug, info, warn, error)
//   - VAG_LOG_FORMAT: Logging format (text, json)
//
// Example usage:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/carconnectivity/vag-auth/pkg/brand"
)

// Config holds the application configuration
type Config struct {
	// Account
	Email    string
	Password string
	Brand    string
	SPin     string

	// Token persistence
	TokenPath string

	// Server configuration
	Port int

	// Probe configuration
	ProbeInterval int

	// Logging
	LogLevel  string
	LogFormat string
}

// Load parses environment variables and command-line flags and returns a Config
// Precedence: CLI flags > environment variables > defaults
func Load() *Config {
	return LoadWithArgs(os.Args[1:])
}

// LoadWithArgs loads configuration with explicit arguments (useful for testing)
func LoadWithArgs(args []string) *Config {
	cfg := &Config{}

	envEmail := os.Getenv("VAG_EMAIL")
	envPassword := os.Getenv("VAG_PASSWORD")
	envBrand := os.Getenv("VAG_BRAND")
	envSPin := os.Getenv("VAG_SPIN")
	envTokenPath := os.Getenv("VAG_TOKEN_PATH")
	envPort := os.Getenv("VAG_PORT")
	envProbeInterval := os.Getenv("VAG_PROBE_INTERVAL")
	envLogLevel := os.Getenv("VAG_LOG_LEVEL")
	envLogFormat := os.Getenv("VAG_LOG_FORMAT")

	homeDir := os.Getenv("HOME")
	if homeDir == "" {
		homeDir = "/root"
	}
	defaultTokenPath := filepath.Join(homeDir, ".vag-auth", "tokens.json")
	if envTokenPath != "" {
		defaultTokenPath = envTokenPath
	}
	if envBrand == "" {
		envBrand = "volkswagen"
	}
	if envLogLevel == "" {
		envLogLevel = "info"
	}
	if envLogFormat == "" {
		envLogFormat = "text"
	}

	// Create a new FlagSet for this invocation (allows multiple calls in tests)
	fs := flag.NewFlagSet("config", flag.ContinueOnError)

	fs.StringVar(&cfg.Email, "email", envEmail, "Account email (env: VAG_EMAIL, required)")
	fs.StringVar(&cfg.Password, "password", envPassword, "Account password (env: VAG_PASSWORD, required)")
	fs.StringVar(&cfg.Brand, "brand", envBrand, "Brand to authenticate against: volkswagen, skoda, seat, cupra (env: VAG_BRAND)")
	fs.StringVar(&cfg.SPin, "spin", envSPin, "Security PIN for privileged operations (env: VAG_SPIN, optional)")
	fs.StringVar(&cfg.TokenPath, "token-path", defaultTokenPath, "Path to the persisted token file (env: VAG_TOKEN_PATH)")

	fs.IntVar(&cfg.Port, "port", parseEnvInt(envPort, 9543), "HTTP server listen port (env: VAG_PORT)")
	fs.IntVar(&cfg.ProbeInterval, "probe-interval", parseEnvInt(envProbeInterval, 300), "Seconds between token validity probes (env: VAG_PROBE_INTERVAL)")
	fs.StringVar(&cfg.LogLevel, "log-level", envLogLevel, "Logging verbosity: debug, info, warn, error (env: VAG_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", envLogFormat, "Logging format: text, json (env: VAG_LOG_FORMAT)")

	// FlagSet is configured with ContinueOnError, so parse errors are handled gracefully
	_ = fs.Parse(args)

	return cfg
}

// parseEnvInt parses an environment variable as an integer, returning default if invalid
func parseEnvInt(envValue string, defaultValue int) int {
	if envValue == "" {
		return defaultValue
	}
	var result int
	_, err := fmt.Sscanf(envValue, "%d", &result)
	if err != nil {
		return defaultValue
	}
	return result
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Email == "" {
		return fmt.Errorf("email is required (use -email flag or VAG_EMAIL env var)")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required (use -password flag or VAG_PASSWORD env var)")
	}

	if _, ok := brand.All()[c.Brand]; !ok {
		return fmt.Errorf("unknown brand: %s (must be one of: volkswagen, skoda, seat, cupra)", c.Brand)
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be between 1 and 65535)", c.Port)
	}

	if c.ProbeInterval < 1 {
		return fmt.Errorf("invalid probe-interval: %d (must be at least 1 second)", c.ProbeInterval)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log-level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log-format: %s (must be text or json)", c.LogFormat)
	}

	return nil
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf("Config{Brand: %s, Email: %s, Port: %d, TokenPath: %s, ProbeInterval: %ds, LogLevel: %s}",
		c.Brand, c.Email, c.Port, c.TokenPath, c.ProbeInterval, c.LogLevel)
}
