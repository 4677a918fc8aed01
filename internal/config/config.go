// Package config loads and validates the previewer configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values applied by Load and DefaultConfig.
const (
	DefaultHost             = "127.0.0.1"
	DefaultPort             = 8000
	DefaultDebounce         = 200 * time.Millisecond
	DefaultPollInterval     = 2 * time.Second
	DefaultShutdownGraceSec = 5
)

// Config represents the application configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Watch  WatchConfig  `yaml:"watch"`
	Page   PageConfig   `yaml:"page"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
	// ShutdownGraceSeconds bounds graceful shutdown on interrupt.
	ShutdownGraceSeconds int `yaml:"shutdown_grace_seconds,omitempty"`
}

// WatchConfig controls change detection on the source file.
type WatchConfig struct {
	// Debounce coalesces rapid successive filesystem events for one logical edit.
	Debounce time.Duration `yaml:"debounce,omitempty"`
	// PollInterval is used by the mtime-poll fallback when fsnotify is unavailable.
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	// ForcePoll disables fsnotify and always uses the polling fallback.
	ForcePoll bool `yaml:"force_poll,omitempty"`
}

// PageConfig controls the rendered page shell.
type PageConfig struct {
	// Title overrides the page title; defaults to the source file path.
	Title string `yaml:"title,omitempty"`
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from the specified file. A missing file is an
// error; use DefaultConfig when no config file was requested.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ShutdownGraceSeconds == 0 {
		c.Server.ShutdownGraceSeconds = DefaultShutdownGraceSec
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = DefaultDebounce
	}
	if c.Watch.PollInterval == 0 {
		c.Watch.PollInterval = DefaultPollInterval
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative: %v", c.Watch.Debounce)
	}
	if c.Watch.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive: %v", c.Watch.PollInterval)
	}
	return nil
}

// ListenAddr returns the host:port pair for the HTTP listener.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
