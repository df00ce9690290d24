package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Session SessionConfig `yaml:"session"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Probe   ProbeConfig   `yaml:"probe"`
	Worker  WorkerConfig  `yaml:"worker"`
	Journal JournalConfig `yaml:"journal"`
	Server  ServerConfig  `yaml:"server"`
}

// StoreConfig holds the input and output store paths.
type StoreConfig struct {
	SourcePath  string `yaml:"source_path" envconfig:"SOURCE_PATH" default:"media_checked_urls.csv"`
	ResultsPath string `yaml:"results_path" envconfig:"RESULTS_PATH" default:"media_full_metadata.csv"`
}

// SessionConfig holds the authenticated session inputs. The cookie file
// is produced by an external browser-driven flow; the core only
// consumes it.
type SessionConfig struct {
	CookiesPath string `yaml:"cookies_path" envconfig:"COOKIES_PATH" default:"session_cookies.json"`
	UserAgent   string `yaml:"user_agent" envconfig:"SESSION_USER_AGENT" default:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
}

// FetchConfig holds range-fetch sizing and timeouts.
type FetchConfig struct {
	PartialMB      int           `yaml:"partial_mb" envconfig:"FETCH_PARTIAL_MB" default:"5"`
	DeepMB         int           `yaml:"deep_mb" envconfig:"FETCH_DEEP_MB" default:"100"`
	PartialTimeout time.Duration `yaml:"partial_timeout" envconfig:"FETCH_PARTIAL_TIMEOUT" default:"45s"`
	DeepTimeout    time.Duration `yaml:"deep_timeout" envconfig:"FETCH_DEEP_TIMEOUT" default:"120s"`
}

// PartialBytes returns the fast-scan fetch ceiling in bytes.
func (c FetchConfig) PartialBytes() int64 {
	return int64(c.PartialMB) * 1024 * 1024
}

// DeepBytes returns the deep-scan fetch ceiling in bytes.
func (c FetchConfig) DeepBytes() int64 {
	return int64(c.DeepMB) * 1024 * 1024
}

// ProbeConfig holds external probe tool configuration.
type ProbeConfig struct {
	Binary  string        `yaml:"binary" envconfig:"PROBE_BINARY" default:"ffprobe"`
	Timeout time.Duration `yaml:"timeout" envconfig:"PROBE_TIMEOUT" default:"60s"`
}

// WorkerConfig holds worker pool configuration.
type WorkerConfig struct {
	Count     int `yaml:"count" envconfig:"WORKER_COUNT" default:"15"`
	BatchSize int `yaml:"batch_size" envconfig:"SAVE_BATCH_SIZE" default:"50"`
}

// JournalConfig holds the optional scan journal configuration.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"JOURNAL_ENABLED" default:"false"`
	Path    string `yaml:"path" envconfig:"JOURNAL_PATH" default:"scan_journal.db"`
}

// ServerConfig holds the optional status HTTP server configuration.
type ServerConfig struct {
	Enabled      bool          `yaml:"enabled" envconfig:"SERVER_ENABLED" default:"false"`
	Host         string        `yaml:"host" envconfig:"SERVER_HOST" default:"127.0.0.1"`
	Port         int           `yaml:"port" envconfig:"SERVER_PORT" default:"9612"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
}

// Load reads configuration from file and environment variables.
// Environment variables override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Load from YAML file if provided
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// Override with environment variables
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.Store.SourcePath == "" {
		return fmt.Errorf("SOURCE_PATH is required")
	}
	if c.Store.ResultsPath == "" {
		return fmt.Errorf("RESULTS_PATH is required")
	}
	if c.Fetch.PartialMB <= 0 || c.Fetch.DeepMB <= 0 {
		return fmt.Errorf("fetch sizes must be positive")
	}
	if c.Fetch.DeepMB < c.Fetch.PartialMB {
		return fmt.Errorf("deep fetch size must not be smaller than partial")
	}
	if c.Worker.Count <= 0 {
		return fmt.Errorf("worker count must be positive")
	}
	if c.Worker.BatchSize <= 0 {
		return fmt.Errorf("save batch size must be positive")
	}
	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
