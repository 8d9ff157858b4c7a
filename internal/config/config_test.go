package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Poll.Tick)
	assert.Equal(t, 10*time.Second, cfg.Poll.MinInterval)
	assert.Equal(t, 15*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 10.0, cfg.HTTP.Rate)
	assert.Equal(t, 20, cfg.HTTP.Burst)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
[server]
base_url = "https://portal.example.com/api/support"
token = "file-token"

[poll]
tick = "2s"
min_interval = "30s"

[log]
level = "debug"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.com/api/support", cfg.Server.BaseURL)
	assert.Equal(t, "file-token", cfg.Server.Token)
	assert.Equal(t, 2*time.Second, cfg.Poll.Tick)
	assert.Equal(t, 30*time.Second, cfg.Poll.MinInterval)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[server]
base_url = "https://portal.example.com/api/support"
token = "file-token"
`)
	t.Setenv("BUYERDESK_SERVER_TOKEN", "env-token")
	t.Setenv("BUYERDESK_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Server.Token)
	assert.Equal(t, "https://portal.example.com/api/support", cfg.Server.BaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Server.BaseURL = "https://portal.example.com"
		cfg.Server.Token = "tok"
		cfg.Poll.Tick = time.Second
		cfg.Poll.MinInterval = 10 * time.Second
		return cfg
	}

	require.NoError(t, Validate(valid()))

	cfg := valid()
	cfg.Server.BaseURL = " "
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.Server.Token = ""
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.Poll.Tick = 0
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.Poll.MinInterval = 500 * time.Millisecond
	assert.Error(t, Validate(cfg))
}

func TestInitConfigRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buyerdesk.toml")
	require.NoError(t, InitConfig(path))
	assert.Error(t, InitConfig(path), "existing file must not be overwritten")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Server.BaseURL, "sample config must load back")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "buyerdesk.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
