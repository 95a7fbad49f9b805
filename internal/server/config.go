// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the relay transport.
package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
)

// Config holds the server configuration settings including security controls.
type Config struct {
	Host              string        `env:"HOST,default=0.0.0.0"`
	HTTPPort          int           `env:"HTTP_PORT,default=3000" validate:"min=1,max=65535"`
	HTTPSPort         int           `env:"HTTPS_PORT,default=3443" validate:"min=1,max=65535,nefield=HTTPPort"`
	TLSCertFile       string        `env:"TLS_CERT_FILE" validate:"required_with=TLSKeyFile"`
	TLSKeyFile        string        `env:"TLS_KEY_FILE" validate:"required_with=TLSCertFile"`
	AllowedOrigins    string        `env:"ALLOWED_ORIGINS,default=*"`
	MaxMessageSize    int           `env:"MAX_MESSAGE_SIZE,default=1048576" validate:"min=1"`
	SendBufferSize    int           `env:"SEND_BUFFER_SIZE,default=256" validate:"min=1"`
	RateLimitBurst    int           `env:"RATE_LIMIT_BURST,default=50" validate:"min=1"`
	RateLimitInterval time.Duration `env:"RATE_LIMIT_INTERVAL,default=1s" validate:"gt=0"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
}

var validate = validator.New()

// DefaultConfig returns the configuration used when no variables are set,
// read from the env tag defaults.
func DefaultConfig() Config {
	var cfg Config
	if err := env.Unmarshal(env.EnvSet{}, &cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// LoadConfig reads the configuration from environment variables and
// validates it.
func LoadConfig() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and field dependencies.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// TLSEnabled reports whether the HTTPS listener should be started.
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// HTTPAddr is the listen address of the plain listener.
func (c Config) HTTPAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.HTTPPort))
}

// HTTPSAddr is the listen address of the TLS listener.
func (c Config) HTTPSAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.HTTPSPort))
}

// Origins splits AllowedOrigins on commas.
func (c Config) Origins() []string {
	return parseOrigins(c.AllowedOrigins)
}

func parseOrigins(origins string) []string {
	if strings.TrimSpace(origins) == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
