// Package server provides configuration helpers that define runtime defaults
// and validation for the chat service.
package server

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds the server configuration settings including security controls.
type Config struct {
	Port            string        `env:"SERVER_PORT" envDefault:":8080" validate:"required"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:8080"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE" envDefault:"4096" validate:"gt=0"`
	SendBufferSize  int           `env:"SEND_BUFFER_SIZE" envDefault:"256" validate:"gt=0"`
	PongWait        time.Duration `env:"PONG_WAIT" envDefault:"60s" validate:"gte=1s"`
	WriteWait       time.Duration `env:"WRITE_WAIT" envDefault:"10s" validate:"required"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"required"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg, err := parseConfig(env.Options{Environment: map[string]string{}})
	if err != nil {
		// Defaults are constants; failing here is a programming error.
		panic(err)
	}
	return cfg
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Unset variables fall back to defaults; invalid values are reported.
func NewConfigFromEnv() (*Config, error) {
	return parseConfig(env.Options{})
}

// NewConfigFromMap is NewConfigFromEnv reading from vars instead of the process environment.
func NewConfigFromMap(vars map[string]string) (*Config, error) {
	return parseConfig(env.Options{Environment: vars})
}

func parseConfig(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.PongWait <= 0 || c.WriteWait <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid config: timeouts must be positive")
	}
	return nil
}

// pingPeriod must stay below PongWait so the peer answers before the read deadline.
func (c *Config) pingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}
