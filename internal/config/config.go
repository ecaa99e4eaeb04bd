// Package config loads the console configuration from config.yaml and
// FOULEE_* environment variables, with sensible defaults for local use.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the console.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Address       string `mapstructure:"address"`
	SecureCookies bool   `mapstructure:"secure_cookies"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// BackendConfig points at the coaching backend. The credentials are service
// credentials for the console, not per-user logins.
type BackendConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type NotifyConfig struct {
	// URLs is a comma-or-newline-separated list of Shoutrrr URLs.
	URLs string `mapstructure:"urls"`
}

type SchedulerConfig struct {
	Interval       time.Duration `mapstructure:"interval"`
	CacheRetention time.Duration `mapstructure:"cache_retention"`
}

// Load reads configuration from config.yaml in the given path plus
// FOULEE_*-prefixed environment variables. A missing config file is fine;
// the defaults and environment carry a local setup.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("FOULEE")
	v.AutomaticEnv()
	// Nested keys map to env vars: backend.base_url -> FOULEE_BACKEND_BASE_URL.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("database.path", "foulee.db")
	v.SetDefault("backend.base_url", "http://localhost:3000")
	// Empty defaults register the keys so environment-only values are
	// picked up by Unmarshal.
	v.SetDefault("backend.email", "")
	v.SetDefault("backend.password", "")
	v.SetDefault("notify.urls", "")
	v.SetDefault("scheduler.interval", "1h")
	v.SetDefault("scheduler.cache_retention", "720h") // 30 days

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
