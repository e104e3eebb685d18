// Package config provides configuration management for the mdtables CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/mdtables/internal/csvio"
)

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port          int    `koanf:"port" yaml:"port"`
	Watch         bool   `koanf:"watch" yaml:"watch"`
	AutoOpen      bool   `koanf:"auto_open" yaml:"auto_open"`
	SessionSecret string `koanf:"session_secret" yaml:"session_secret,omitempty"`
}

// TransportConfig tunes delivery to surfaces.
type TransportConfig struct {
	MaxAttempts  int           `koanf:"max_attempts" yaml:"max_attempts"`
	PingInterval time.Duration `koanf:"ping_interval" yaml:"ping_interval"`
	PingTimeout  time.Duration `koanf:"ping_timeout" yaml:"ping_timeout"`
}

// Config holds all CLI configuration options.
type Config struct {
	Root         string           `koanf:"root" yaml:"root"`
	StatePath    string           `koanf:"state_path" yaml:"state_path"`
	Verbose      bool             `koanf:"verbose" yaml:"verbose"`
	OutputFormat string           `koanf:"output" yaml:"output"`
	CSVEncoding  csvio.Encoding   `koanf:"csv_encoding" yaml:"csv_encoding"`
	ExportDir    string           `koanf:"export_dir" yaml:"export_dir,omitempty"`
	HistoryLimit int              `koanf:"history_limit" yaml:"history_limit"`
	UI           *UIConfig        `koanf:"ui" yaml:"ui"`
	Transport    *TransportConfig `koanf:"transport" yaml:"transport"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-" yaml:"-"`
}

// Default configuration values.
const (
	DefaultRoot          = "."
	DefaultStateFile     = ".mdtables/history.db"
	DefaultOutput        = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultCSVEncoding   = csvio.UTF8
	DefaultHistoryLimit  = 100
	DefaultPort          = 8765
	DefaultMaxAttempts   = 3
	DefaultPingInterval  = 30 * time.Second
	DefaultPingTimeout   = 90 * time.Second
	DefaultSessionSecret = "mdtables-dev-secret-change-in-production" //nolint:gosec
)

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Root:         DefaultRoot,
		StatePath:    DefaultStateFile,
		OutputFormat: DefaultOutput,
		CSVEncoding:  DefaultCSVEncoding,
		HistoryLimit: DefaultHistoryLimit,
		UI:           DefaultUIConfig(),
		Transport:    DefaultTransportConfig(),
	}
}

// DefaultUIConfig returns a UIConfig with default values.
func DefaultUIConfig() *UIConfig {
	return &UIConfig{
		Port:     DefaultPort,
		Watch:    true,
		AutoOpen: false,
	}
}

// DefaultTransportConfig returns a TransportConfig with default values.
func DefaultTransportConfig() *TransportConfig {
	return &TransportConfig{
		MaxAttempts:  DefaultMaxAttempts,
		PingInterval: DefaultPingInterval,
		PingTimeout:  DefaultPingTimeout,
	}
}

// GetUIConfig returns the UI config with defaults applied for any unset values.
func (c *Config) GetUIConfig() *UIConfig {
	if c.UI == nil {
		return DefaultUIConfig()
	}
	ui := *c.UI
	if ui.Port == 0 {
		ui.Port = DefaultPort
	}
	if ui.SessionSecret == "" {
		ui.SessionSecret = DefaultSessionSecret
	}
	return &ui
}

// GetTransportConfig returns the transport config with defaults applied.
func (c *Config) GetTransportConfig() *TransportConfig {
	if c.Transport == nil {
		return DefaultTransportConfig()
	}
	t := *c.Transport
	if t.MaxAttempts == 0 {
		t.MaxAttempts = DefaultMaxAttempts
	}
	if t.PingInterval == 0 {
		t.PingInterval = DefaultPingInterval
	}
	if t.PingTimeout == 0 {
		t.PingTimeout = DefaultPingTimeout
	}
	return &t
}
