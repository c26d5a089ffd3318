// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	DBPath   string `env:"DB_PATH" envDefault:"settlement.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	SeedDemo bool   `env:"SEED_DEMO" envDefault:"false"`

	// AutoQueue moves submitted timesheets straight to pending.
	AutoQueue        bool `env:"AUTO_QUEUE" envDefault:"true"`
	StandardHoursDay int  `env:"STANDARD_HOURS_PER_DAY" envDefault:"8"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:8080"`

	Server struct {
		ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	} `envPrefix:"SERVER_"`
}

// Prefix is prepended to every variable name.
const Prefix = "SETTLEMENT_"

func Load() (*Config, error) {
	return LoadFrom(nil)
}

// LoadFrom reads variables from environ instead of the process environment
// when environ is non-nil.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	opts := env.Options{Prefix: Prefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// first error only, keeps the log readable
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}
	if cfg.StandardHoursDay <= 0 {
		return nil, errors.New("SETTLEMENT_STANDARD_HOURS_PER_DAY must be positive")
	}
	return cfg, nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
