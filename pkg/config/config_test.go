package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Email:         "driver@example.com",
		Password:      "hunter2",
		Brand:         "skoda",
		TokenPath:     "/tmp/tokens.json",
		Port:          9543,
		ProbeInterval: 300,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// TestLoad_FromEnvironmentVariables tests loading configuration from environment variables
func TestLoad_FromEnvironmentVariables(t *testing.T) {
	os.Setenv("VAG_EMAIL", "env@example.com")
	os.Setenv("VAG_PASSWORD", "env-password")
	os.Setenv("VAG_BRAND", "cupra")
	os.Setenv("VAG_SPIN", "1234")
	os.Setenv("VAG_TOKEN_PATH", "/tmp/tokens.json")
	os.Setenv("VAG_PORT", "9191")
	os.Setenv("VAG_PROBE_INTERVAL", "60")
	os.Setenv("VAG_LOG_LEVEL", "debug")
	os.Setenv("VAG_LOG_FORMAT", "json")
	defer func() {
		os.Unsetenv("VAG_EMAIL")
		os.Unsetenv("VAG_PASSWORD")
		os.Unsetenv("VAG_BRAND")
		os.Unsetenv("VAG_SPIN")
		os.Unsetenv("VAG_TOKEN_PATH")
		os.Unsetenv("VAG_PORT")
		os.Unsetenv("VAG_PROBE_INTERVAL")
		os.Unsetenv("VAG_LOG_LEVEL")
		os.Unsetenv("VAG_LOG_FORMAT")
	}()

	cfg := LoadWithArgs([]string{})

	assert.Equal(t, "env@example.com", cfg.Email)
	assert.Equal(t, "env-password", cfg.Password)
	assert.Equal(t, "cupra", cfg.Brand)
	assert.Equal(t, "1234", cfg.SPin)
	assert.Equal(t, "/tmp/tokens.json", cfg.TokenPath)
	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, 60, cfg.ProbeInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

// TestLoad_FlagsOverrideEnvironment tests CLI precedence over env vars
func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	os.Setenv("VAG_BRAND", "seat")
	os.Setenv("VAG_PORT", "9191")
	defer func() {
		os.Unsetenv("VAG_BRAND")
		os.Unsetenv("VAG_PORT")
	}()

	cfg := LoadWithArgs([]string{"-brand", "skoda", "-port", "8080"})

	assert.Equal(t, "skoda", cfg.Brand)
	assert.Equal(t, 8080, cfg.Port)
}

// TestLoad_Defaults tests loading configuration with default values
func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("VAG_EMAIL")
	os.Unsetenv("VAG_PASSWORD")
	os.Unsetenv("VAG_BRAND")
	os.Unsetenv("VAG_PORT")
	os.Unsetenv("VAG_PROBE_INTERVAL")
	os.Unsetenv("VAG_LOG_LEVEL")
	os.Unsetenv("VAG_LOG_FORMAT")

	cfg := LoadWithArgs([]string{})

	assert.Equal(t, "volkswagen", cfg.Brand)
	assert.Equal(t, 9543, cfg.Port)
	assert.Equal(t, 300, cfg.ProbeInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "", cfg.Email)
	assert.Equal(t, "", cfg.SPin)
}

// TestLoad_InvalidEnvironmentVariables tests handling of invalid environment variables
func TestLoad_InvalidEnvironmentVariables(t *testing.T) {
	os.Setenv("VAG_PORT", "invalid")
	os.Setenv("VAG_PROBE_INTERVAL", "not-a-number")
	defer func() {
		os.Unsetenv("VAG_PORT")
		os.Unsetenv("VAG_PROBE_INTERVAL")
	}()

	cfg := LoadWithArgs([]string{})

	assert.Equal(t, 9543, cfg.Port)
	assert.Equal(t, 300, cfg.ProbeInterval)
}

// TestValidate_MissingCredentials tests validation fails without credentials
func TestValidate_MissingCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Email = ""
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "email is required")

	cfg = validConfig()
	cfg.Password = ""
	err = cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "password is required")
}

// TestValidate_UnknownBrand tests validation of the brand name
func TestValidate_UnknownBrand(t *testing.T) {
	tests := []struct {
		brand string
		valid bool
	}{
		{"volkswagen", true},
		{"skoda", true},
		{"seat", true},
		{"cupra", true},
		{"audi", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.brand, func(t *testing.T) {
			cfg := validConfig()
			cfg.Brand = tt.brand

			err := cfg.Validate()

			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "unknown brand")
			}
		})
	}
}

// TestValidate_InvalidPort tests validation of port range
func TestValidate_InvalidPort(t *testing.T) {
	tests := []struct {
		name  string
		port  int
		valid bool
	}{
		{"valid port 1", 1, true},
		{"valid port 9543", 9543, true},
		{"valid port 65535", 65535, true},
		{"invalid port 0", 0, false},
		{"invalid port -1", -1, false},
		{"invalid port 65536", 65536, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Port = tt.port

			err := cfg.Validate()

			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid port")
			}
		})
	}
}

// TestValidate_InvalidProbeInterval tests validation of the probe interval
func TestValidate_InvalidProbeInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		valid    bool
	}{
		{"valid interval 1", 1, true},
		{"valid interval 300", 300, true},
		{"invalid interval 0", 0, false},
		{"invalid interval -1", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.ProbeInterval = tt.interval

			err := cfg.Validate()

			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "probe-interval")
			}
		})
	}
}

// TestValidate_InvalidLogLevel tests validation of log level
func TestValidate_InvalidLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		valid    bool
	}{
		{"valid debug", "debug", true},
		{"valid info", "info", true},
		{"valid warn", "warn", true},
		{"valid error", "error", true},
		{"invalid invalid", "invalid", false},
		{"invalid TRACE", "TRACE", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.LogLevel = tt.logLevel

			err := cfg.Validate()

			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "log-level")
			}
		})
	}
}

// TestValidate_ValidConfig tests validation of valid config
func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

// TestParseEnvInt tests integer parsing from environment values
func TestParseEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue int
		expected     int
	}{
		{"valid value", "42", 100, 42},
		{"empty value uses default", "", 100, 100},
		{"invalid value uses default", "not-a-number", 100, 100},
		{"negative value", "-10", 100, -10},
		{"zero value", "0", 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseEnvInt(tt.envValue, tt.defaultValue)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// TestString tests the String method for debug output
func TestString(t *testing.T) {
	cfg := validConfig()
	cfg.Password = "secret"
	cfg.SPin = "9876"

	str := cfg.String()

	assert.Contains(t, str, "Brand: skoda")
	assert.Contains(t, str, "Port: 9543")
	assert.Contains(t, str, "LogLevel: info")
	assert.NotContains(t, str, "secret")
	assert.NotContains(t, str, "9876")
}
