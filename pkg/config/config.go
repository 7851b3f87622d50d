// Package config loads the optional YAML configuration for the userheaders
// CLI. The library packages take explicit parameters and never read
// configuration themselves.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/umputun/userheaders/pkg/delay"
)

// Config holds the application configuration
type Config struct {
	Delay struct {
		Base  float64 `yaml:"base"`  // mean delay in seconds
		Model string  `yaml:"model"` // lognormal, gamma or uniform
		Min   float64 `yaml:"min"`   // hard floor in seconds
	} `yaml:"delay"`

	Cache struct {
		Enabled bool          `yaml:"enabled"`
		Path    string        `yaml:"path"`
		TTL     time.Duration `yaml:"ttl"`
	} `yaml:"cache"`

	Harvest struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"harvest"`
}

// Load reads configuration from a YAML file, expanding environment
// variables. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// set defaults
	if cfg.Delay.Base == 0 {
		cfg.Delay.Base = 3 // a human cycling save, enter, next-page
	}
	if cfg.Delay.Model == "" {
		cfg.Delay.Model = string(delay.ModelLogNormal)
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = defaultCachePath()
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 7 * 24 * time.Hour
	}
	if cfg.Harvest.Timeout == 0 {
		cfg.Harvest.Timeout = 2 * time.Minute
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Delay.Base <= 0 {
		return fmt.Errorf("delay.base must be positive")
	}
	if cfg.Delay.Min < 0 {
		return fmt.Errorf("delay.min must be non-negative")
	}
	if cfg.Delay.Min > cfg.Delay.Base {
		return fmt.Errorf("delay.min must not exceed delay.base")
	}
	switch delay.Model(cfg.Delay.Model) {
	case delay.ModelLogNormal, delay.ModelGamma, delay.ModelUniform:
	default:
		return fmt.Errorf("delay.model must be one of lognormal, gamma, uniform")
	}
	if cfg.Harvest.Timeout < time.Second {
		return fmt.Errorf("harvest.timeout must be at least 1 second")
	}
	return nil
}

// DelayConfig returns the delay generator configuration.
func (c *Config) DelayConfig() delay.Config {
	return delay.Config{Base: c.Delay.Base, Model: delay.Model(c.Delay.Model), Min: c.Delay.Min}
}

// defaultCachePath picks an OS-appropriate per-user cache location.
func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "userheaders", "cache.sqlite3")
}
