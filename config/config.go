// Package config provides Viper-based configuration management for fapctl
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete fapctl configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Store   StoreConfig   `mapstructure:"store"`
	Session SessionConfig `mapstructure:"session"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	Serve   ServeConfig   `mapstructure:"serve"`
	Logging LoggingConfig `mapstructure:"logging"`
	Output  OutputConfig  `mapstructure:"output"`

	// File is the config file that was read, empty when only defaults and
	// environment apply.
	File string `mapstructure:"-" json:"-"`
}

// APIConfig points at the identity issuer and relationship service
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig selects the key/value backend holding the session
type StoreConfig struct {
	Backend   string `mapstructure:"backend"`
	Path      string `mapstructure:"path"`
	RedisURL  string `mapstructure:"redis_url"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// SessionConfig contains navigation targets used by the route guard
type SessionConfig struct {
	LandingRoute string `mapstructure:"landing_route"`
	AuthRoute    string `mapstructure:"auth_route"`
}

// ProbeConfig tunes username/email availability probes
type ProbeConfig struct {
	Debounce  time.Duration `mapstructure:"debounce"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	CacheSize int           `mapstructure:"cache_size"`
}

// ServeConfig contains local API settings
type ServeConfig struct {
	Port      string  `mapstructure:"port"`
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Colors bool `mapstructure:"colors"`
}

// secretKeys may be supplied through a <ENV>_FILE variable.
var secretKeys = []string{"store.redis_url"}

// Load reads configuration from file and environment variables
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".fapctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/fapctl")
	}

	v.SetEnvPrefix("FAPCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	fileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		fileUsed = v.ConfigFileUsed()
	}

	for _, key := range secretKeys {
		if value, ok := readSecretFile(envName(key)); ok {
			v.Set(key, value)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	cfg.File = fileUsed
	return &cfg, nil
}

// setDefaults configures default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", 10*time.Second)

	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.path", defaultStorePath())
	v.SetDefault("store.redis_url", "")
	v.SetDefault("store.key_prefix", "")

	v.SetDefault("session.landing_route", "/dashboard")
	v.SetDefault("session.auth_route", "/auth")

	v.SetDefault("probe.debounce", time.Duration(0))
	v.SetDefault("probe.cache_ttl", 30*time.Second)
	v.SetDefault("probe.cache_size", 256)

	v.SetDefault("serve.port", "8787")
	v.SetDefault("serve.rate_limit", 10.0)
	v.SetDefault("serve.burst", 20)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("output.colors", true)
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fapctl-session.db"
	}
	return filepath.Join(home, ".config", "fapctl", "session.db")
}

func envName(key string) string {
	return "FAPCTL_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// readSecretFile returns the trimmed content of the file named by key_FILE.
func readSecretFile(key string) (string, bool) {
	path := os.Getenv(key + "_FILE")
	if path == "" {
		return "", false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(content)), true
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url cannot be empty")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url: %s", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	switch c.Store.Backend {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite backend")
		}
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be memory, sqlite, or redis)", c.Store.Backend)
	}

	if !strings.HasPrefix(c.Session.LandingRoute, "/") || !strings.HasPrefix(c.Session.AuthRoute, "/") {
		return fmt.Errorf("session routes must be absolute paths")
	}

	if c.Probe.Debounce < 0 {
		return fmt.Errorf("probe.debounce cannot be negative")
	}
	if c.Probe.CacheSize <= 0 {
		return fmt.Errorf("probe.cache_size must be positive")
	}

	if c.Serve.Port == "" {
		return fmt.Errorf("serve.port cannot be empty")
	}
	if c.Serve.RateLimit <= 0 || c.Serve.Burst <= 0 {
		return fmt.Errorf("serve.rate_limit and serve.burst must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}
