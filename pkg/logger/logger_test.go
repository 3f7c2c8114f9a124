package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew_ValidLevels tests creating loggers with valid log levels
func TestNew_ValidLevels(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error"}

	for _, level := range levels {
		t.Run(level, func(t *testing.T) {
			log, err := New(level, "text")
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

// TestNew_InvalidLevel tests creating logger with invalid log level
func TestNew_InvalidLevel(t *testing.T) {
	log, err := New("invalid", "text")

	assert.Error(t, err)
	assert.Nil(t, log)
	assert.Contains(t, err.Error(), "invalid log level")
}

// TestNew_InvalidFormat tests creating logger with invalid format
func TestNew_InvalidFormat(t *testing.T) {
	log, err := New("info", "invalid")

	assert.Error(t, err)
	assert.Nil(t, log)
	assert.Contains(t, err.Error(), "invalid log format")
}

// TestNewWithWriter_TextFormat tests logger with custom writer in text format
func TestNewWithWriter_TextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithWriter("info", "text", buf)

	require.NoError(t, err)
	assert.NotNil(t, log)

	log.Info("test message")
	output := buf.String()

	assert.Contains(t, output, "test message")
	assert.Contains(t, output, "level=info")
}

// TestNewWithWriter_JSONFormat tests logger with custom writer in JSON format
func TestNewWithWriter_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithWriter("info", "json", buf)

	require.NoError(t, err)
	assert.NotNil(t, log)

	log.Info("test message")
	output := buf.String()

	assert.Contains(t, output, "test message")
	assert.Contains(t, output, "\"level\":\"info\"")
	assert.Contains(t, output, "\"msg\":\"test message\"")
}

// TestWithBrand tests adding brand context
func TestWithBrand(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithWriter("info", "json", buf)
	require.NoError(t, err)

	entry := log.WithBrand("skoda")
	entry.Info("test message")

	output := buf.String()
	assert.Contains(t, output, "\"brand\":\"skoda\"")
}

// TestWithError tests adding error context
func TestWithError(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithWriter("info", "json", buf)
	require.NoError(t, err)

	testErr := assert.AnError
	entry := log.WithError(testErr)
	entry.Error("test error")

	output := buf.String()
	assert.Contains(t, output, "\"error\":\"assert.AnError")
}

// TestDiscard tests that the discard logger drops output without erroring
func TestDiscard(t *testing.T) {
	log := Discard()
	require.NotNil(t, log)

	log.Info("dropped")
	log.Error("dropped too", "brand", "seat")
}

// TestLogLevels tests that log levels are respected
func TestLogLevels(t *testing.T) {
	tests := []struct {
		name         string
		level        string
		shouldLog    string
		shouldNotLog string
	}{
		{
			name:         "debug level logs everything",
			level:        "debug",
			shouldLog:    "debug",
			shouldNotLog: "",
		},
		{
			name:         "info level skips debug",
			level:        "info",
			shouldLog:    "info",
			shouldNotLog: "debug",
		},
		{
			name:         "warn level skips info and debug",
			level:        "warn",
			shouldLog:    "warn",
			shouldNotLog: "info",
		},
		{
			name:         "error level only logs errors",
			level:        "error",
			shouldLog:    "error",
			shouldNotLog: "warn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			log, err := NewWithWriter(tt.level, "text", buf)
			require.NoError(t, err)

			log.Debug("debug message")
			log.Info("info message")
			log.Warn("warn message")
			log.Error("error message")

			output := buf.String()

			if tt.shouldLog != "" {
				assert.Contains(t, output, tt.shouldLog+" message")
			}
			if tt.shouldNotLog != "" {
				assert.NotContains(t, output, tt.shouldNotLog+" message")
			}
		})
	}
}

// TestVariadicFields tests that key-value pairs end up as structured fields
func TestVariadicFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithWriter("info", "json", buf)
	require.NoError(t, err)

	log.Info("step done", "brand", "cupra", "hops", 3)

	output := buf.String()
	assert.Contains(t, output, "\"brand\":\"cupra\"")
	assert.Contains(t, output, "\"hops\":3")
}
