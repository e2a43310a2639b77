package main

import (
	"github.com/spf13/pflag"

	"github.com/lixenwraith/termraster/config"
)

// cliFlags holds command-line overrides; only flags set explicitly win over
// the file and environment
type cliFlags struct {
	fs *pflag.FlagSet

	configPath  string
	noWatch     bool
	scale       int
	aspect      float64
	kernel      string
	marker      string
	markerColor string
	tickHz      int
	source      string
	backend     string
	noMouse     bool
	audio       bool
	debug       bool
	record      string
	replay      string
}

func parseFlags(args []string) (*cliFlags, error) {
	f := &cliFlags{fs: pflag.NewFlagSet("termraster", pflag.ContinueOnError)}
	fs := f.fs
	def := config.Default()

	fs.StringVarP(&f.configPath, "config", "c", "", "TOML config file")
	fs.BoolVar(&f.noWatch, "no-watch", false, "Do not reload the config file on change")
	fs.IntVarP(&f.scale, "scale", "s", def.Render.Scale, "Canvas pixels per cell row")
	fs.Float64Var(&f.aspect, "aspect", def.Render.CharAspect, "Cell width/height ratio")
	fs.StringVarP(&f.kernel, "kernel", "k", def.Render.Kernel, "Resampling kernel: nearest, approx, bilinear, catmullrom")
	fs.StringVar(&f.marker, "marker", def.Render.Marker, "Highlight glyph")
	fs.StringVar(&f.markerColor, "marker-color", def.Render.MarkerColor, "Highlight color (hex)")
	fs.IntVar(&f.tickHz, "tick-hz", def.Loop.TickHz, "Redraw ticks per second")
	fs.StringVar(&f.source, "source", def.Source.Kind, "Raster source: clock or native")
	fs.StringVarP(&f.backend, "input", "i", def.Input.Backend, "Terminal backend: raw or tcell")
	fs.BoolVar(&f.noMouse, "no-mouse", false, "Disable mouse tracking")
	fs.BoolVarP(&f.audio, "audio", "a", def.Audio.Enabled, "Click on left press")
	fs.BoolVarP(&f.debug, "debug", "d", def.Log.Debug, "Write a debug log")
	fs.StringVar(&f.record, "record", "", "Record delivered events to a JSONL file")
	fs.StringVar(&f.replay, "replay", "", "Replay pointer and key events from a JSONL file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// apply copies explicitly set flags onto cfg
func (f *cliFlags) apply(cfg *config.Config) {
	set := f.fs.Changed
	if set("scale") {
		cfg.Render.Scale = f.scale
	}
	if set("aspect") {
		cfg.Render.CharAspect = f.aspect
	}
	if set("kernel") {
		cfg.Render.Kernel = f.kernel
	}
	if set("marker") {
		cfg.Render.Marker = f.marker
	}
	if set("marker-color") {
		cfg.Render.MarkerColor = f.markerColor
	}
	if set("tick-hz") {
		cfg.Loop.TickHz = f.tickHz
	}
	if set("source") {
		cfg.Source.Kind = f.source
	}
	if set("input") {
		cfg.Input.Backend = f.backend
	}
	if set("no-mouse") {
		cfg.Input.Mouse = !f.noMouse
	}
	if set("audio") {
		cfg.Audio.Enabled = f.audio
	}
	if set("debug") {
		cfg.Log.Debug = f.debug
	}
	if set("record") {
		cfg.Journal.Record = f.record
	}
	if set("replay") {
		cfg.Journal.Replay = f.replay
	}
}
