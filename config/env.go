package config

import (
	"strconv"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "TERMRASTER_"

// ApplyEnv overrides cfg from environment variables. Unparsable values are
// ignored and the previous setting kept.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v := getenv(EnvPrefix + key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	float := func(key string, dst *float64) {
		if v := getenv(EnvPrefix + key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	boolean := func(key string, dst *bool) {
		if v := getenv(EnvPrefix + key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	integer("SCALE", &cfg.Render.Scale)
	float("CHAR_ASPECT", &cfg.Render.CharAspect)
	str("KERNEL", &cfg.Render.Kernel)
	str("MARKER", &cfg.Render.Marker)
	str("MARKER_COLOR", &cfg.Render.MarkerColor)

	integer("TICK_HZ", &cfg.Loop.TickHz)
	integer("FRAME_TIMEOUT_MS", &cfg.Loop.FrameTimeoutMs)

	str("SOURCE", &cfg.Source.Kind)
	float("CLOCK_FONT_PX", &cfg.Source.ClockFontPx)

	str("INPUT", &cfg.Input.Backend)
	boolean("MOUSE", &cfg.Input.Mouse)

	boolean("AUDIO_ENABLED", &cfg.Audio.Enabled)
	// Volume is given as 0-100 and clamped
	if v := getenv(EnvPrefix + "AUDIO_VOLUME"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Audio.Volume = min(max(float64(n)/100.0, 0), 1)
		}
	}

	boolean("DEBUG", &cfg.Log.Debug)
	str("LOG_FILE", &cfg.Log.File)
}
