package server

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.TLSEnabled())
	assert.Equal(t, "0.0.0.0:3000", cfg.HTTPAddr())
	assert.Equal(t, "0.0.0.0:3443", cfg.HTTPSAddr())
	assert.Equal(t, []string{"*"}, cfg.Origins())
}

var configVars = []string{
	"HOST", "HTTP_PORT", "HTTPS_PORT", "TLS_CERT_FILE", "TLS_KEY_FILE",
	"ALLOWED_ORIGINS", "MAX_MESSAGE_SIZE", "SEND_BUFFER_SIZE", "RATE_LIMIT_BURST",
	"RATE_LIMIT_INTERVAL", "SHUTDOWN_TIMEOUT", "LOG_LEVEL",
}

// unsetConfigEnv removes every config variable for the duration of the test.
func unsetConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configVars {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestDefaultConfigMatchesEmptyEnvironment(t *testing.T) {
	// Given no config variable is set
	unsetConfigEnv(t)

	// When loading from the environment
	loaded, err := LoadConfig()

	// Then the result is exactly DefaultConfig
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)
	assert.Equal(t, Config{
		Host:              "0.0.0.0",
		HTTPPort:          3000,
		HTTPSPort:         3443,
		AllowedOrigins:    "*",
		MaxMessageSize:    1 << 20,
		SendBufferSize:    256,
		RateLimitBurst:    50,
		RateLimitInterval: time.Second,
		ShutdownTimeout:   10 * time.Second,
		LogLevel:          "INFO",
	}, loaded)
}

func TestLoadConfigFromEnv(t *testing.T) {
	unsetConfigEnv(t)
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("HTTP_PORT", "4000")
	t.Setenv("HTTPS_PORT", "4443")
	t.Setenv("TLS_CERT_FILE", "/etc/relay/cert.pem")
	t.Setenv("TLS_KEY_FILE", "/etc/relay/key.pem")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, http://b.example:8080")
	t.Setenv("MAX_MESSAGE_SIZE", "65536")
	t.Setenv("RATE_LIMIT_BURST", "20")
	t.Setenv("RATE_LIMIT_INTERVAL", "2s")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:4000", cfg.HTTPAddr())
	assert.Equal(t, "127.0.0.1:4443", cfg.HTTPSAddr())
	assert.True(t, cfg.TLSEnabled())
	assert.Equal(t, []string{"https://a.example", "http://b.example:8080"}, cfg.Origins())
	assert.Equal(t, 65536, cfg.MaxMessageSize)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.Equal(t, 2*time.Second, cfg.RateLimitInterval)
	assert.Equal(t, 256, cfg.SendBufferSize)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "port out of range",
			env:  map[string]string{"HTTP_PORT": "70000"},
		},
		{
			name: "same port for both listeners",
			env:  map[string]string{"HTTP_PORT": "5000", "HTTPS_PORT": "5000"},
		},
		{
			name: "certificate without key",
			env:  map[string]string{"TLS_CERT_FILE": "cert.pem", "TLS_KEY_FILE": ""},
		},
		{
			name: "zero rate limit burst",
			env:  map[string]string{"RATE_LIMIT_BURST": "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestParseOrigins(t *testing.T) {
	assert.Nil(t, parseOrigins("  "))
	assert.Equal(t, []string{"a", "b"}, parseOrigins(" a , b"))
}
