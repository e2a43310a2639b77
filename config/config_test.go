package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "termraster.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 16, cfg.Render.Scale)
	assert.Equal(t, 0.5, cfg.Render.CharAspect)
	assert.Equal(t, time.Second/60, cfg.Loop.TickInterval())
	assert.False(t, cfg.Audio.Enabled)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), `
[render]
scale = 8
kernel = "catmullrom"

[source]
kind = "native"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Render.Scale)
	assert.Equal(t, "catmullrom", cfg.Render.Kernel)
	assert.Equal(t, SourceNative, cfg.Source.Kind)
	assert.Equal(t, 0.5, cfg.Render.CharAspect, "unset keys keep defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "[render]\nscael = 8\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scael")
}

func TestLoadReportsPosition(t *testing.T) {
	path := writeFile(t, t.TempDir(), "[render]\nscale = \"big\"\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	ApplyEnv(&cfg, envMap(map[string]string{
		"TERMRASTER_SCALE":         "4",
		"TERMRASTER_CHAR_ASPECT":   "0.45",
		"TERMRASTER_MARKER":        "x",
		"TERMRASTER_TICK_HZ":       "30",
		"TERMRASTER_INPUT":         "tcell",
		"TERMRASTER_MOUSE":         "false",
		"TERMRASTER_AUDIO_ENABLED": "true",
		"TERMRASTER_AUDIO_VOLUME":  "150",
		"TERMRASTER_DEBUG":         "1",
	}))

	assert.Equal(t, 4, cfg.Render.Scale)
	assert.Equal(t, 0.45, cfg.Render.CharAspect)
	assert.Equal(t, "x", cfg.Render.Marker)
	assert.Equal(t, 30, cfg.Loop.TickHz)
	assert.Equal(t, BackendTcell, cfg.Input.Backend)
	assert.False(t, cfg.Input.Mouse)
	assert.True(t, cfg.Audio.Enabled)
	assert.Equal(t, 1.0, cfg.Audio.Volume, "volume clamps to 1")
	assert.True(t, cfg.Log.Debug)
}

func TestApplyEnvIgnoresGarbage(t *testing.T) {
	cfg := Default()
	ApplyEnv(&cfg, envMap(map[string]string{
		"TERMRASTER_SCALE":  "huge",
		"TERMRASTER_MOUSE":  "maybe",
		"TERMRASTER_KERNEL": "",
	}))
	assert.Equal(t, Default(), cfg)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "[render]\nscale = 8\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	ApplyEnv(&cfg, envMap(map[string]string{"TERMRASTER_SCALE": "12"}))
	assert.Equal(t, 12, cfg.Render.Scale)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"scale", func(c *Config) { c.Render.Scale = 0 }, "render.scale"},
		{"aspect", func(c *Config) { c.Render.CharAspect = 0 }, "render.char_aspect"},
		{"kernel", func(c *Config) { c.Render.Kernel = "lanczos" }, "render.kernel"},
		{"wide marker", func(c *Config) { c.Render.Marker = "漢" }, "marker"},
		{"marker color", func(c *Config) { c.Render.MarkerColor = "crimson" }, "marker color"},
		{"tick", func(c *Config) { c.Loop.TickHz = 0 }, "loop.tick_hz"},
		{"timeout", func(c *Config) { c.Loop.FrameTimeoutMs = 0 }, "loop.frame_timeout_ms"},
		{"source", func(c *Config) { c.Source.Kind = "video" }, "source.kind"},
		{"font", func(c *Config) { c.Source.ClockFontPx = -1 }, "clock_font_px"},
		{"backend", func(c *Config) { c.Input.Backend = "curses" }, "input.backend"},
		{"volume", func(c *Config) { c.Audio.Volume = 2 }, "audio.volume"},
		{"journal", func(c *Config) { c.Journal.Record, c.Journal.Replay = "a.jsonl", "a.jsonl" }, "journal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := Default()
	cfg.Render.Scale = 0
	cfg.Loop.TickHz = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, 2, strings.Count(err.Error(), "must be"))
}

func TestCanvasSize(t *testing.T) {
	r := Default().Render

	w, h := r.CanvasSize(80, 24)
	assert.Equal(t, 640, w)
	assert.Equal(t, 384, h)

	r.CharAspect = 0.45
	w, h = r.CanvasSize(3, 1)
	assert.Equal(t, 22, w)
	assert.Equal(t, 16, h)

	w, h = r.CanvasSize(0, 24)
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestRestartRequired(t *testing.T) {
	a := Default()
	b := a
	b.Render.Scale = 4
	b.Audio.Enabled = true
	assert.Empty(t, a.RestartRequired(b), "render and audio are hot")

	b.Loop.TickHz = 30
	b.Input.Backend = BackendTcell
	assert.Equal(t, []string{"loop", "input"}, a.RestartRequired(b))
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "[render]\nscale = 8\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Config, 4)
	err := Watch(ctx, path, func() (Config, error) { return Load(path) }, func(cfg Config, err error) {
		if err == nil {
			got <- cfg
		}
	})
	require.NoError(t, err)

	// Unrelated files in the directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("[render]\nscale = 10\n"), 0o644))

	select {
	case cfg := <-got:
		assert.Equal(t, 10, cfg.Render.Scale)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "c.toml"),
		func() (Config, error) { return Default(), nil }, func(Config, error) {})
	assert.Error(t, err)
}
