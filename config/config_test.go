package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, filepath.Join(home, ".config", "fapctl", "session.db"), cfg.Store.Path)
	assert.Equal(t, "/dashboard", cfg.Session.LandingRoute)
	assert.Equal(t, "/auth", cfg.Session.AuthRoute)
	assert.Equal(t, time.Duration(0), cfg.Probe.Debounce)
	assert.Equal(t, 30*time.Second, cfg.Probe.CacheTTL)
	assert.Equal(t, 256, cfg.Probe.CacheSize)
	assert.Equal(t, "8787", cfg.Serve.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.True(t, cfg.Output.Colors)
	assert.Empty(t, cfg.File)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "fapctl.yaml")
	content := `
api:
  base_url: https://fap.example.com/api
  timeout: 5s
store:
  backend: memory
  key_prefix: "dev:"
probe:
  debounce: 250ms
logging:
  level: debug
  format: json
output:
  colors: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://fap.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "dev:", cfg.Store.KeyPrefix)
	assert.Equal(t, 250*time.Millisecond, cfg.Probe.Debounce)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Output.Colors)
	assert.Equal(t, path, cfg.File)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("FAPCTL_API_BASE_URL", "http://10.0.0.5:9000")
	t.Setenv("FAPCTL_API_TIMEOUT", "3s")
	t.Setenv("FAPCTL_STORE_BACKEND", "memory")
	t.Setenv("FAPCTL_SERVE_PORT", "9999")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:9000", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "9999", cfg.Serve.Port)
}

func TestLoad_RedisURLFromFile(t *testing.T) {
	isolate(t)
	secret := filepath.Join(t.TempDir(), "redis_url")
	require.NoError(t, os.WriteFile(secret, []byte("redis://cache:6379/2\n"), 0o600))

	t.Setenv("FAPCTL_STORE_BACKEND", "redis")
	t.Setenv("FAPCTL_STORE_REDIS_URL", "redis://ignored:6379/0")
	t.Setenv("FAPCTL_STORE_REDIS_URL_FILE", secret)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "redis://cache:6379/2", cfg.Store.RedisURL)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			API:     APIConfig{BaseURL: "http://localhost:8080/api", Timeout: time.Second},
			Store:   StoreConfig{Backend: "sqlite", Path: "/tmp/s.db"},
			Session: SessionConfig{LandingRoute: "/dashboard", AuthRoute: "/auth"},
			Probe:   ProbeConfig{CacheTTL: time.Second, CacheSize: 8},
			Serve:   ServeConfig{Port: "8787", RateLimit: 1, Burst: 1},
			Logging: LoggingConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty base url", mutate: func(c *Config) { c.API.BaseURL = "" }, wantErr: "api.base_url cannot be empty"},
		{name: "relative base url", mutate: func(c *Config) { c.API.BaseURL = "localhost/api" }, wantErr: "invalid api.base_url"},
		{name: "zero timeout", mutate: func(c *Config) { c.API.Timeout = 0 }, wantErr: "api.timeout"},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "etcd" }, wantErr: "invalid store backend"},
		{name: "sqlite without path", mutate: func(c *Config) { c.Store.Path = "" }, wantErr: "store.path"},
		{name: "redis without url", mutate: func(c *Config) { c.Store.Backend = "redis" }, wantErr: "store.redis_url"},
		{name: "relative route", mutate: func(c *Config) { c.Session.AuthRoute = "auth" }, wantErr: "absolute paths"},
		{name: "negative debounce", mutate: func(c *Config) { c.Probe.Debounce = -time.Second }, wantErr: "probe.debounce"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: "invalid logging level"},
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "invalid logging format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
