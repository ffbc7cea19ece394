package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "HOST", "CORS_ORIGINS", "GZIP",
	"SESSION_DIR", "SESSION_INTERNAL_PREFIX", "SESSION_DEFAULT_NAME",
	"BROWSER_BACKEND", "BROWSER_USER_AGENT", "BROWSER_LOAD_TIMEOUT", "BROWSER_START_URL",
	"LOG_LEVEL", "LOG_DEV",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "RATE_LIMIT_ENABLED",
	FileEnv,
}

// clearEnv unsets every variable the loader reads for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		if value, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tabsession.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "127.0.0.1:8000", cfg.Address())

	assert.Equal(t, "_", cfg.Session.InternalPrefix)
	assert.Equal(t, "default", cfg.Session.DefaultName)
	assert.Empty(t, cfg.Session.Dir)

	assert.Equal(t, "webengine", cfg.Browser.Backend)
	assert.Equal(t, 30*time.Second, cfg.Browser.LoadTimeout.Duration)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadOrDefault(t *testing.T) {
	clearEnv(t)

	cfg := LoadOrDefault()
	require.NotNil(t, cfg)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	clearEnv(t)
	envVars := map[string]string{
		"PORT":                    "9000",
		"HOST":                    "0.0.0.0",
		"CORS_ORIGINS":            "https://a.example,https://b.example",
		"SESSION_DIR":             "/tmp/sessions",
		"SESSION_INTERNAL_PREFIX": "sys-",
		"SESSION_DEFAULT_NAME":    "main",
		"BROWSER_BACKEND":         "webkit",
		"BROWSER_LOAD_TIMEOUT":    "5s",
		"LOG_LEVEL":               "debug",
		"LOG_DEV":                 "true",
		"RATE_LIMIT_RPS":          "500",
		"RATE_LIMIT_BURST":        "1000",
		"RATE_LIMIT_ENABLED":      "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/tmp/sessions", cfg.Session.Dir)
	assert.Equal(t, "sys-", cfg.Session.InternalPrefix)
	assert.Equal(t, "main", cfg.Session.DefaultName)
	assert.Equal(t, "webkit", cfg.Browser.Backend)
	assert.Equal(t, 5*time.Second, cfg.Browser.LoadTimeout.Duration)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadFilePrecedence(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
[server]
port = "7000"

[session]
dir = "/srv/sessions"

[browser]
backend = "webkit"
load_timeout = "10s"

[logging]
level = "warn"
`)
	t.Setenv("PORT", "7100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7100", cfg.Server.Port, "environment overrides the file")
	assert.Equal(t, "/srv/sessions", cfg.Session.Dir)
	assert.Equal(t, "webkit", cfg.Browser.Backend)
	assert.Equal(t, 10*time.Second, cfg.Browser.LoadTimeout.Duration)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host, "unset values keep their defaults")
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadFromEnvUsesConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(FileEnv, writeFile(t, "[session]\ndefault_name = \"work\"\n"))

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "work", cfg.Session.DefaultName)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "malformed file", file: "[server\nport = 1"},
		{name: "bad duration in file", file: "[browser]\nload_timeout = \"soon\""},
		{name: "bad int in env", env: map[string]string{"RATE_LIMIT_RPS": "many"}},
		{name: "unknown backend", env: map[string]string{"BROWSER_BACKEND": "gecko"}},
		{name: "unknown level", env: map[string]string{"LOG_LEVEL": "verbose"}},
		{name: "empty prefix", file: "[session]\ninternal_prefix = \"\""},
		{name: "zero rate", env: map[string]string{"RATE_LIMIT_RPS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
