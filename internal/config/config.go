// Package config loads service configuration from defaults, an optional YAML or
// TOML file and SWEEPER_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SWEEPER"

// FileEnv names the variable consulted when no config path is given.
const FileEnv = EnvPrefix + "_CONFIG"

// MaxHeadRows bounds the preview size.
const MaxHeadRows = 100

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" toml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging" envconfig:"LOGGING"`
	Security SecurityConfig `yaml:"security" toml:"security" envconfig:"SECURITY"`
	Preview  PreviewConfig  `yaml:"preview" toml:"preview" envconfig:"PREVIEW"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int      `yaml:"port" toml:"port" split_words:"true"`
	ReadTimeout     Duration `yaml:"read_timeout" toml:"read_timeout" split_words:"true"`
	WriteTimeout    Duration `yaml:"write_timeout" toml:"write_timeout" split_words:"true"`
	IdleTimeout     Duration `yaml:"idle_timeout" toml:"idle_timeout" split_words:"true"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout" split_words:"true"`
	MaxUploadBytes  int64    `yaml:"max_upload_bytes" toml:"max_upload_bytes" split_words:"true"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" split_words:"true"`
	Format string `yaml:"format" toml:"format" split_words:"true"` // json|text
}

type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" toml:"allowed_origins" split_words:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" toml:"rate_limit" envconfig:"RATE_LIMIT"`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" toml:"enabled" split_words:"true"`
	RPS     float64 `yaml:"rps" toml:"rps" split_words:"true"`
	Burst   int     `yaml:"burst" toml:"burst" split_words:"true"`
}

type PreviewConfig struct {
	HeadRows int `yaml:"head_rows" toml:"head_rows" split_words:"true"`
}

// Duration is a time.Duration written as a string such as "15s" in files and
// environment variables.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(60 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
			MaxUploadBytes:  32 << 20,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			RateLimit:      RateLimitConfig{Enabled: false, RPS: 20, Burst: 40},
		},
		Preview: PreviewConfig{HeadRows: 5},
	}
}

// Load builds the configuration. path may be empty, in which case the file named
// by SWEEPER_CONFIG is used if set.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(FileEnv)
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile overlays the file's values onto cfg; keys absent from the file keep
// their current value.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		return toml.Unmarshal(data, cfg)
	}
	return fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	for name, d := range map[string]Duration{
		"read_timeout":     c.Server.ReadTimeout,
		"write_timeout":    c.Server.WriteTimeout,
		"idle_timeout":     c.Server.IdleTimeout,
		"shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("server %s must be positive", name)
		}
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server max_upload_bytes must be positive")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}
	if rl := c.Security.RateLimit; rl.Enabled && (rl.RPS <= 0 || rl.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}
	if c.Preview.HeadRows < 0 || c.Preview.HeadRows > MaxHeadRows {
		return fmt.Errorf("preview head_rows must be within 0..%d", MaxHeadRows)
	}
	return nil
}

// Addr is the listen address for the configured port.
func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Server.Port) }
