package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ".", cfg.ConfigRoot)
	assert.Empty(t, cfg.IntegrationDir)
	assert.Empty(t, cfg.BundleDir)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2*time.Second, cfg.Daemon.PollInterval.Duration())
	assert.True(t, cfg.Daemon.WatchCustomActions)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	t.Setenv(EnvConfigRoot, "")

	cfg, err := LoadConfig("/nonexistent/path/muictl.toml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_ParsesTOML(t *testing.T) {
	t.Setenv(EnvConfigRoot, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "muictl.toml")

	content := `
config_root = "/srv/homeassistant"
integration_dir = "custom_components/minimalist_ui"
bundle_dir = "/opt/mui/bundle"

[log]
level = "debug"

[daemon]
poll_interval = "5s"
watch_custom_actions = false
debounce = "250ms"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/homeassistant", cfg.ConfigRoot)
	assert.Equal(t, "custom_components/minimalist_ui", cfg.IntegrationDir)
	assert.Equal(t, "/opt/mui/bundle", cfg.BundleDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.Daemon.PollInterval.Duration())
	assert.False(t, cfg.Daemon.WatchCustomActions)
	assert.Equal(t, 250*time.Millisecond, cfg.Daemon.Debounce.Duration())
}

func TestLoadConfig_EnvOverridesRoot(t *testing.T) {
	t.Setenv(EnvConfigRoot, "/from/env")
	dir := t.TempDir()
	path := filepath.Join(dir, "muictl.toml")
	require.NoError(t, os.WriteFile(path, []byte(`config_root = "/from/file"`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.ConfigRoot)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv(EnvConfigRoot, "")

	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", "config_root = "},
		{"bad level", "[log]\nlevel = \"loud\""},
		{"bad duration", "[daemon]\npoll_interval = \"soon\""},
		{"zero poll", "[daemon]\npoll_interval = 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "muictl.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Setenv(EnvConfigRoot, "")
	path := filepath.Join(t.TempDir(), "nested", "muictl.toml")

	cfg := DefaultConfig()
	cfg.ConfigRoot = "/config"
	cfg.Daemon.PollInterval = Duration(10 * time.Second)
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("INFO")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestParseHostConfig(t *testing.T) {
	data := []byte(`
homeassistant:
  name: Home
  packages: !include_dir_named packages
http:
  api_password: !secret http_password
minimalist_ui:
  sidepanel_enabled: true
  sidepanel_title: Dashboard
  include_other_cards: false
`)

	cfg, err := ParseHostConfig(data)
	require.NoError(t, err)

	section, ok := cfg["minimalist_ui"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, section["sidepanel_enabled"])
	assert.Equal(t, "Dashboard", section["sidepanel_title"])

	ha := cfg["homeassistant"].(map[string]any)
	assert.Equal(t, "packages", ha["packages"])
}

func TestParseHostConfig_EmptySection(t *testing.T) {
	cfg, err := ParseHostConfig([]byte("minimalist_ui:\n"))
	require.NoError(t, err)

	section, ok := cfg["minimalist_ui"]
	assert.True(t, ok)
	assert.Nil(t, section)
}

func TestLoadHostConfig_Missing(t *testing.T) {
	cfg, err := LoadHostConfig(filepath.Join(t.TempDir(), HostConfigFile))
	require.NoError(t, err)
	assert.Empty(t, cfg)
}

func TestLoadHostConfig_Empty(t *testing.T) {
	path := HostConfigPath(t.TempDir())
	require.NoError(t, os.WriteFile(path, nil, 0644))

	cfg, err := LoadHostConfig(path)
	require.NoError(t, err)
	assert.Empty(t, cfg)
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "2s", want: 2 * time.Second},
		{in: "750", want: 750 * time.Millisecond},
		{in: " 1m ", want: time.Minute},
		{in: "", want: 0},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestDuration_Or(t *testing.T) {
	assert.Equal(t, DefaultPollInterval, Duration(0).Or(DefaultPollInterval))
	assert.Equal(t, time.Second, Duration(time.Second).Or(DefaultPollInterval))
	assert.Equal(t, "1.5s", Duration(1500*time.Millisecond).String())
}
