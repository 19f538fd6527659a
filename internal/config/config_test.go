// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	// Verify a few key defaults to ensure the mechanism works.
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "authcap", cfg.Logger.ServiceName)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 1280, cfg.Browser.ViewportWidth)
	assert.Equal(t, 900, cfg.Browser.ViewportHeight)
	assert.Equal(t, 5*time.Minute, cfg.Capture.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Capture.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Capture.SettleDelay)
	assert.Equal(t, "~/.authcap/profiles", cfg.Auth.ProfilesDir)
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Listen)
}

func TestNewConfigFromViperExpandsProfilesDir(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	// The tilde must be gone after loading.
	assert.NotContains(t, cfg.Auth.ProfilesDir, "~")
	assert.Contains(t, cfg.Auth.ProfilesDir, ".authcap/profiles")
}

func TestNewConfigFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("capture.timeout", "90s")
	v.Set("server.listen", "0.0.0.0:9000")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Capture.Timeout)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	base := NewDefaultConfig()
	require.NoError(t, base.Validate(), "default config must be valid")

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero capture timeout",
			mutate:  func(c *Config) { c.Capture.Timeout = 0 },
			wantErr: "capture.timeout",
		},
		{
			name:    "negative poll interval",
			mutate:  func(c *Config) { c.Capture.PollInterval = -time.Second },
			wantErr: "capture.poll_interval",
		},
		{
			name:    "negative settle delay",
			mutate:  func(c *Config) { c.Capture.SettleDelay = -time.Second },
			wantErr: "capture.settle_delay",
		},
		{
			name:    "zero viewport width",
			mutate:  func(c *Config) { c.Browser.ViewportWidth = 0 },
			wantErr: "viewport",
		},
		{
			name:    "empty listen address",
			mutate:  func(c *Config) { c.Server.Listen = "" },
			wantErr: "server.listen",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := *NewDefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
