package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TFMV/forcegraph/physics"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forcegraph.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 500.0, cfg.Render.Width)
	assert.Equal(t, 380.0, cfg.Render.Height)
	assert.Equal(t, 0.3, cfg.Simulation.Reheat)
	assert.Equal(t, 16*time.Millisecond, cfg.Simulation.TickInterval.Duration)
	assert.Equal(t, 0.1, cfg.Viewport.MinScale)
	assert.Equal(t, 4.0, cfg.Viewport.MaxScale)
	assert.Equal(t, physics.DefaultOptions().AlphaDecay, cfg.PhysicsOptions().AlphaDecay)
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg")
	assert.Equal(t, "/tmp/test-xdg/forcegraph", ConfigDir())
	assert.Equal(t, "/tmp/test-xdg/forcegraph/config.toml", DefaultPath())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[simulation]
link_distance = 40.0
tick_interval = "33ms"
workers = 2

[render]
base_url = "https://books.example/tag/"
palette = ["red", "green"]

[viewport]
max_scale = 8.0

[server]
addr = "127.0.0.1:9000"
watch = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40.0, cfg.Simulation.LinkDistance)
	assert.Equal(t, 33*time.Millisecond, cfg.Simulation.TickInterval.Duration)
	assert.Equal(t, -30.0, cfg.Simulation.ChargeStrength)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.True(t, cfg.Server.Watch)

	opts := cfg.ViewOptions()
	assert.Equal(t, 40.0, opts.Physics.LinkDistance)
	assert.Equal(t, 2, opts.Physics.Workers)
	assert.Equal(t, "https://books.example/tag/", opts.Render.BaseURL)
	assert.Equal(t, []string{"red", "green"}, opts.Palette)
	assert.Equal(t, 8.0, opts.MaxScale)
	assert.Equal(t, 33*time.Millisecond, opts.TickInterval)
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"theta":      "[simulation]\ntheta = 0.0\n",
		"reheat":     "[simulation]\nreheat = 2.0\n",
		"surface":    "[render]\nwidth = -1.0\n",
		"scale":      "[viewport]\nmin_scale = 5.0\nmax_scale = 1.0\n",
		"event rate": "[server]\nevent_rate = 0.0\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "%v", err)
		})
	}
}

func TestLoad_Syntax(t *testing.T) {
	_, err := Load(writeConfig(t, "[simulation\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[simulation]\ntick_interval = \"soon\"\n"))
	assert.Error(t, err)
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Server.Payload = "tags.json"

	var buf bytes.Buffer
	require.NoError(t, cfg.Write(&buf))
	assert.Contains(t, buf.String(), `tick_interval = "16ms"`)

	loaded, err := Load(writeConfig(t, buf.String()))
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
