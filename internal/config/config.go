package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	// AppEnv selects the runtime mode. In "json" mode the gateway endpoint
	// pretty-prints the envelope instead of processing it (capture debugging).
	AppEnv string `env:"APP_ENV" envDefault:"production"`

	// SecretKey signs operator API tokens. Required outside development.
	SecretKey string `env:"SECRET_KEY"`

	// Full-charge reference voltage for the mobile beacons. The two deployed
	// tag firmware generations report 3000 and 3600 mV at full charge.
	BatteryMaxMillivolts int `env:"BATTERY_MAX_MILLIVOLTS" envDefault:"3600"`

	// CloseOpenLogOnEnter controls what an entering event does when a
	// permanence interval is already open: close it and open a new one
	// (default), or open a second interval alongside it.
	CloseOpenLogOnEnter bool `env:"CLOSE_OPEN_LOG_ON_ENTER" envDefault:"true"`

	// AutoRegisterTags creates a tag row on first sighting of an unknown MAC
	// instead of dropping the packet.
	AutoRegisterTags bool `env:"AUTO_REGISTER_TAGS" envDefault:"false"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	CORSOrigins    string `env:"CORS_ORIGINS"` // comma-separated allowed origins; empty = allow all (*)
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`

	// Bound on each per-device ingestion transaction.
	DeviceTimeout time.Duration `env:"DEVICE_TIMEOUT" envDefault:"5s"`
}

// Validate checks mode and signing-key requirements.
func (c *Config) Validate() error {
	switch c.AppEnv {
	case "development", "production", "json":
	default:
		return fmt.Errorf("APP_ENV %q not recognized (valid: development, production, json)", c.AppEnv)
	}
	if c.SecretKey == "" && c.AppEnv != "development" {
		return fmt.Errorf("SECRET_KEY must be set when APP_ENV=%s", c.AppEnv)
	}
	if c.BatteryMaxMillivolts <= 0 {
		return fmt.Errorf("BATTERY_MAX_MILLIVOLTS must be positive, got %d", c.BatteryMaxMillivolts)
	}
	return nil
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile     string
	HTTPAddr    string
	LogLevel    string
	DatabaseURL string
	AppEnv      string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}
	if overrides.AppEnv != "" {
		cfg.AppEnv = overrides.AppEnv
	}

	return cfg, nil
}
