package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds runtime settings for the boardsync client.
//
// Units: all intervals are time.Duration values. The save timers feed the
// autosave state machine directly; OnlineCheckInterval drives the
// reachability probe.
type Config struct {
	ServerURL           string        `validate:"required,url"`
	WorkspaceID         string        `validate:"omitempty"`
	OnlineCheckInterval time.Duration `validate:"gt=0"`
	SaveDebounce        time.Duration `validate:"gt=0"`
	SaveRetryDelay      time.Duration `validate:"gt=0"`
	SaveBackupInterval  time.Duration `validate:"gt=0"`
	LogLevel            string        `validate:"oneof=debug info warn error"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 3 * time.Second
	c.SaveDebounce = 2 * time.Second
	c.SaveRetryDelay = 5 * time.Second
	c.SaveBackupInterval = 30 * time.Second
	c.LogLevel = "info"
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LoadConfig constructs a Config by applying defaults, then overlaying an
// optional .env file, an optional JSON file and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
