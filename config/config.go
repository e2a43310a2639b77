// Package config loads termraster settings: defaults, then a TOML file, then
// TERMRASTER_* environment overrides, then command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/lixenwraith/termraster/raster"
	"github.com/lixenwraith/termraster/render"
)

// Source kinds
const (
	SourceClock  = "clock"
	SourceNative = "native"
)

// Input backends
const (
	BackendRaw   = "raw"
	BackendTcell = "tcell"
)

// Config is the full settings tree
type Config struct {
	Render  Render  `toml:"render"`
	Loop    Loop    `toml:"loop"`
	Source  Source  `toml:"source"`
	Input   Input   `toml:"input"`
	Audio   Audio   `toml:"audio"`
	Log     Log     `toml:"log"`
	Journal Journal `toml:"journal"`
}

// Render controls canvas sizing, resampling and the highlight marker
type Render struct {
	Scale       int     `toml:"scale"`       // canvas pixels per cell row
	CharAspect  float64 `toml:"char_aspect"` // cell width / height
	Kernel      string  `toml:"kernel"`
	Marker      string  `toml:"marker"`
	MarkerColor string  `toml:"marker_color"`
}

// Loop controls the tick cadence; changes need a restart
type Loop struct {
	TickHz         int `toml:"tick_hz"`
	FrameTimeoutMs int `toml:"frame_timeout_ms"`
}

// Source selects the raster producer
type Source struct {
	Kind        string  `toml:"kind"`
	ClockFontPx float64 `toml:"clock_font_px"` // 0 auto-fits
}

// Input selects the terminal backend; changes need a restart
type Input struct {
	Backend string `toml:"backend"`
	Mouse   bool   `toml:"mouse"`
}

// Audio controls the press click
type Audio struct {
	Enabled bool    `toml:"enabled"`
	Volume  float64 `toml:"volume"` // 0.0-1.0
}

// Log controls the debug log file
type Log struct {
	Debug bool   `toml:"debug"`
	File  string `toml:"file"`
}

// Journal names the event record and replay files
type Journal struct {
	Record string `toml:"record"`
	Replay string `toml:"replay"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Render: Render{
			Scale:       16,
			CharAspect:  0.5,
			Kernel:      "bilinear",
			Marker:      render.DefaultMarker,
			MarkerColor: render.DefaultMarkerColor,
		},
		Loop: Loop{
			TickHz:         60,
			FrameTimeoutMs: 250,
		},
		Source: Source{Kind: SourceClock},
		Input:  Input{Backend: BackendRaw, Mouse: true},
		Audio:  Audio{Enabled: false, Volume: 0.5},
		Log:    Log{File: "logs/termraster.log"},
	}
}

// CanvasSize is the source canvas for a grid: rows*scale tall and
// cols*scale*aspect wide, so canvas pixels keep the cell aspect
func (r Render) CanvasSize(cols, rows int) (width, height int) {
	if cols <= 0 || rows <= 0 {
		return 0, 0
	}
	width = int(math.Round(float64(cols*r.Scale) * r.CharAspect))
	height = rows * r.Scale
	return max(width, 1), height
}

// Options returns the quantizer marker options
func (r Render) Options() render.Options {
	return render.Options{Marker: r.Marker, MarkerColor: r.MarkerColor}
}

// TickInterval is the bridge timer period
func (l Loop) TickInterval() time.Duration {
	return time.Second / time.Duration(l.TickHz)
}

// FrameTimeout bounds the wait for a native frame
func (l Loop) FrameTimeout() time.Duration {
	return time.Duration(l.FrameTimeoutMs) * time.Millisecond
}

// Load decodes path over the defaults. Unknown keys are errors; decode
// errors carry the row and column.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode applies TOML data onto cfg
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	err := dec.Decode(cfg)
	if err == nil {
		return nil
	}

	var de *toml.DecodeError
	if errors.As(err, &de) {
		row, col := de.Position()
		return fmt.Errorf("line %d column %d: %w", row, col, err)
	}
	var se *toml.StrictMissingError
	if errors.As(err, &se) {
		return fmt.Errorf("unknown keys:\n%s", se.String())
	}
	return err
}

// Validate reports every invalid setting
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Render.Scale < 1 || c.Render.Scale > 64 {
		bad("render.scale %d: must be 1-64", c.Render.Scale)
	}
	if !(c.Render.CharAspect > 0 && c.Render.CharAspect <= 4) {
		bad("render.char_aspect %v: must be in (0, 4]", c.Render.CharAspect)
	}
	if _, err := raster.KernelByName(c.Render.Kernel); err != nil {
		bad("render.kernel: %w", err)
	}
	if _, err := render.NewQuantizer(c.Render.Options()); err != nil {
		bad("render: %w", err)
	}

	if c.Loop.TickHz < 1 || c.Loop.TickHz > 240 {
		bad("loop.tick_hz %d: must be 1-240", c.Loop.TickHz)
	}
	if c.Loop.FrameTimeoutMs < 1 || c.Loop.FrameTimeoutMs > 10000 {
		bad("loop.frame_timeout_ms %d: must be 1-10000", c.Loop.FrameTimeoutMs)
	}

	switch c.Source.Kind {
	case SourceClock, SourceNative:
	default:
		bad("source.kind %q: must be %q or %q", c.Source.Kind, SourceClock, SourceNative)
	}
	if c.Source.ClockFontPx < 0 {
		bad("source.clock_font_px %v: must not be negative", c.Source.ClockFontPx)
	}

	switch c.Input.Backend {
	case BackendRaw, BackendTcell:
	default:
		bad("input.backend %q: must be %q or %q", c.Input.Backend, BackendRaw, BackendTcell)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		bad("audio.volume %v: must be 0-1", c.Audio.Volume)
	}
	if c.Journal.Record != "" && c.Journal.Record == c.Journal.Replay {
		bad("journal: record and replay name the same file")
	}

	return errors.Join(errs...)
}

// RestartRequired lists changed settings that a live reload cannot apply
func (c Config) RestartRequired(next Config) []string {
	var keys []string
	if c.Loop != next.Loop {
		keys = append(keys, "loop")
	}
	if c.Input != next.Input {
		keys = append(keys, "input")
	}
	if c.Source.Kind != next.Source.Kind {
		keys = append(keys, "source.kind")
	}
	if c.Log != next.Log {
		keys = append(keys, "log")
	}
	if c.Journal != next.Journal {
		keys = append(keys, "journal")
	}
	return keys
}
