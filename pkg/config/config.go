// Package config defines daemon configuration and its loading rules.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config contains the matchpickd process configuration.
type Config struct {
	// HTTPAddr is the HTTP listen address, e.g. ":8080".
	HTTPAddr string `koanf:"http_addr"`

	// DataDir is the Badger database directory. Empty selects the in-memory
	// store.
	DataDir string `koanf:"data_dir"`

	Provider ProviderConfig `koanf:"provider"`
	Oracle   OracleConfig   `koanf:"oracle"`
	Sweep    SweepConfig    `koanf:"sweep"`
}

// ProviderConfig configures the sports-data API client.
type ProviderConfig struct {
	BaseURL   string  `koanf:"base_url"`
	RateLimit float64 `koanf:"rate_limit"`
	Burst     int     `koanf:"burst"`
}

// OracleConfig configures the Gemini client.
type OracleConfig struct {
	APIKey      string  `koanf:"api_key"`
	Model       string  `koanf:"model"`
	BaseURL     string  `koanf:"base_url"`
	Temperature float64 `koanf:"temperature"`
	TopP        float64 `koanf:"top_p"`
}

// SweepConfig configures the pre-compute scheduler.
type SweepConfig struct {
	Interval  time.Duration `koanf:"interval"`
	Timezone  string        `koanf:"timezone"`
	RetryWait time.Duration `koanf:"retry_wait"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPAddr: ":8080",
		Provider: ProviderConfig{
			RateLimit: 5.0,
			Burst:     3,
		},
		Oracle: OracleConfig{
			Model:       "gemini-1.5-pro",
			Temperature: 0.15,
			TopP:        0.8,
		},
		Sweep: SweepConfig{
			Interval:  5 * time.Minute,
			Timezone:  "Local",
			RetryWait: time.Second,
		},
	}
}

// Load builds a Config by layering defaults, an optional YAML file and env
// vars. Order of precedence (low -> high):
//  1. defaults (Default())
//  2. file (YAML) if path is non-empty
//  3. env (prefix MATCHPICK_, double underscore for nesting:
//     MATCHPICK_ORACLE__API_KEY -> oracle.api_key)
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	envProvider := env.Provider("MATCHPICK_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "MATCHPICK_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("http_addr must not be empty")
	}
	if cfg.Sweep.Interval <= 0 {
		return nil, errors.New("sweep.interval must be positive")
	}
	return &cfg, nil
}

// Location resolves the sweep timezone. "Local" or empty maps to the host
// timezone.
func (c *Config) Location() (*time.Location, error) {
	tz := c.Sweep.Timezone
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}
