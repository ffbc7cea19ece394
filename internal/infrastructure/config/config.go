package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// FileEnv names the environment variable pointing at a TOML config file
const FileEnv = "CONFIG_FILE"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Session   SessionConfig   `toml:"session"`
	Browser   BrowserConfig   `toml:"browser"`
	Logging   LogConfig       `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string   `envconfig:"PORT" toml:"port"`
	Host        string   `envconfig:"HOST" toml:"host"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" toml:"cors_origins"`
	Gzip        bool     `envconfig:"GZIP" toml:"gzip"`
}

// SessionConfig holds session storage configuration.
type SessionConfig struct {
	Dir            string `envconfig:"SESSION_DIR" toml:"dir"` // empty means the XDG data directory
	InternalPrefix string `envconfig:"SESSION_INTERNAL_PREFIX" toml:"internal_prefix"`
	DefaultName    string `envconfig:"SESSION_DEFAULT_NAME" toml:"default_name"`
}

// BrowserConfig holds rendering backend configuration.
type BrowserConfig struct {
	Backend     string   `envconfig:"BROWSER_BACKEND" toml:"backend"`
	UserAgent   string   `envconfig:"BROWSER_USER_AGENT" toml:"user_agent"`
	LoadTimeout Duration `envconfig:"BROWSER_LOAD_TIMEOUT" toml:"load_timeout"`
	StartURL    string   `envconfig:"BROWSER_START_URL" toml:"start_url"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" toml:"enabled"`
}

// Duration is a time.Duration written as "30s" in files and the environment.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load builds the configuration from defaults, then the TOML file at path
// (if non-empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	// Fields carry no default tags, so unset variables leave file values intact
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration using the file named by CONFIG_FILE, if any.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(FileEnv))
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := LoadFromEnv()
	if err != nil {
		return Default()
	}
	return cfg
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("failed to parse config file %s at line %d, column %d: %w", path, row, col, err)
		}
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Browser.Backend) {
	case "webengine", "webkit":
	default:
		return fmt.Errorf("invalid browser backend %q", c.Browser.Backend)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	if c.Session.InternalPrefix == "" {
		return errors.New("session internal prefix cannot be empty")
	}
	if c.Session.DefaultName == "" {
		return errors.New("session default name cannot be empty")
	}
	if c.Browser.LoadTimeout.Duration <= 0 {
		return errors.New("browser load timeout must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate limit requires positive requests per second and burst")
	}
	return nil
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "127.0.0.1",
			Gzip: true,
		},
		Session: SessionConfig{
			InternalPrefix: "_",
			DefaultName:    "default",
		},
		Browser: BrowserConfig{
			Backend:     "webengine",
			LoadTimeout: Duration{30 * time.Second},
			StartURL:    "about:blank",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
