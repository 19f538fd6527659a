// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Auth    AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
}

// LoggerConfig controls the structured logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
	Colors      bool   `mapstructure:"colors" yaml:"colors"`
}

// BrowserConfig controls the launched browser instance.
type BrowserConfig struct {
	Headless       bool     `mapstructure:"headless" yaml:"headless"`
	Args           []string `mapstructure:"args" yaml:"args"`
	ViewportWidth  int      `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int      `mapstructure:"viewport_height" yaml:"viewport_height"`
	UserAgent      string   `mapstructure:"user_agent" yaml:"user_agent"`
}

// CaptureConfig controls the interactive capture state machine.
type CaptureConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	SettleDelay  time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
}

// AuthConfig controls stored-state resolution.
type AuthConfig struct {
	// ProfilesDir is expanded at load time; "~" refers to the invoking
	// user's home directory.
	ProfilesDir string `mapstructure:"profiles_dir" yaml:"profiles_dir"`
}

// ServerConfig controls the HTTP tool surface.
type ServerConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// NewDefaultConfig creates a configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "authcap")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors", true)

	// -- Browser --
	// Interactive capture wants a visible window; commands that need
	// headless flip this explicitly.
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 900)

	// -- Capture --
	v.SetDefault("capture.timeout", "5m")
	v.SetDefault("capture.poll_interval", "250ms")
	v.SetDefault("capture.settle_delay", "2s")

	// -- Auth --
	v.SetDefault("auth.profiles_dir", "~/.authcap/profiles")

	// -- Server --
	v.SetDefault("server.listen", "127.0.0.1:8787")
}

// NewConfigFromViper creates a configuration instance from a viper object,
// expanding home-relative paths and validating the result.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Auth.ProfilesDir != "" {
		expanded, err := homedir.Expand(cfg.Auth.ProfilesDir)
		if err != nil {
			return nil, fmt.Errorf("cannot expand auth.profiles_dir: %w", err)
		}
		cfg.Auth.ProfilesDir = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Capture.Timeout <= 0 {
		return fmt.Errorf("capture.timeout must be a positive duration")
	}
	if c.Capture.PollInterval <= 0 {
		return fmt.Errorf("capture.poll_interval must be a positive duration")
	}
	if c.Capture.SettleDelay < 0 {
		return fmt.Errorf("capture.settle_delay must not be negative")
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("browser viewport dimensions must be positive")
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	return nil
}
