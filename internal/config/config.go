// Package config provides configuration loading and default values.
package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

type RemoteConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
	RealtimeWS string `yaml:"realtime_ws"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
}

// TimeoutDuration parses the configured timeout, falling back to 30s.
func (c RemoteConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

type InsightsConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
}

// TimeoutDuration parses the configured timeout, falling back to 60s.
func (c InsightsConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, 60*time.Second)
}

type WatchConfig struct {
	// PollInterval controls how often connectivity is probed in watch mode.
	PollInterval string `yaml:"poll_interval"`
}

// PollIntervalDuration parses the configured interval, falling back to 30s.
func (c WatchConfig) PollIntervalDuration() time.Duration {
	return parseDuration(c.PollInterval, 30*time.Second)
}

type Config struct {
	OwnerID   string         `yaml:"owner_id"`
	StorePath string         `yaml:"store_path"`
	Remote    RemoteConfig   `yaml:"remote"`
	Insights  InsightsConfig `yaml:"insights"`
	Watch     WatchConfig    `yaml:"watch"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	if ownerID := os.Getenv("WATCHSYNC_OWNER_ID"); ownerID != "" {
		cfg.OwnerID = ownerID
	}

	if apiKey := os.Getenv("WATCHSYNC_REMOTE_API_KEY"); apiKey != "" {
		cfg.Remote.APIKey = apiKey
	}

	if apiKey := os.Getenv("WATCHSYNC_INSIGHTS_API_KEY"); apiKey != "" {
		cfg.Insights.APIKey = apiKey
	}

	if cfg.StorePath == "" {
		cfg.StorePath = os.ExpandEnv("$HOME/.local/share/watchsync/watchsync.db")
	}

	if cfg.Remote.Collection == "" {
		cfg.Remote.Collection = "watchlist"
	}

	if cfg.Remote.MaxRetries == 0 {
		cfg.Remote.MaxRetries = 2
	}

	return cfg, nil
}

// Validate checks the fields every command needs.
func (c Config) Validate() error {
	if c.OwnerID == "" {
		return fmt.Errorf("owner_id is required (or set WATCHSYNC_OWNER_ID)")
	}
	if c.Remote.URL == "" {
		return fmt.Errorf("remote.url is required")
	}
	if c.Remote.APIKey == "" {
		return fmt.Errorf("remote.api_key is required (or set WATCHSYNC_REMOTE_API_KEY)")
	}
	return nil
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	return fallback
}
