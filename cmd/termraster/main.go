// Command termraster renders a live raster source into the terminal as
// 256-color cells and highlights the cell under a pressed pointer.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/muesli/termenv"
	"github.com/spf13/pflag"

	"github.com/lixenwraith/termraster/app"
	"github.com/lixenwraith/termraster/audio"
	"github.com/lixenwraith/termraster/bridge"
	"github.com/lixenwraith/termraster/canvas"
	"github.com/lixenwraith/termraster/config"
	"github.com/lixenwraith/termraster/core"
	"github.com/lixenwraith/termraster/event"
	"github.com/lixenwraith/termraster/input"
	"github.com/lixenwraith/termraster/native"
	"github.com/lixenwraith/termraster/native/ebitenwin"
	"github.com/lixenwraith/termraster/screen"
	"github.com/lixenwraith/termraster/terminal"
)

func main() {
	// Panic recovery: the terminal must be usable even if we crash
	defer func() {
		if r := recover(); r != nil {
			terminal.EmergencyReset(os.Stdout)
			fmt.Fprintf(os.Stderr, "\r\n\x1b[31mTERMRASTER CRASHED: %v\x1b[0m\r\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
			os.Exit(1)
		}
	}()

	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if err := run(flags); err != nil {
		fmt.Fprintf(os.Stderr, "termraster: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, file, environment and flags, then validates
func loadConfig(flags *cliFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return cfg, err
	}
	config.ApplyEnv(&cfg, os.Getenv)
	flags.apply(&cfg)
	return cfg, cfg.Validate()
}

// display is the terminal side selected by input.backend
type display struct {
	output app.Output
	size   bridge.SizeFunc
	pump   func(ctx context.Context, b *bridge.Bridge) error
	fini   func()
}

func openDisplay(cfg config.Config) (*display, error) {
	if cfg.Input.Backend == config.BackendTcell {
		d, err := screen.New(cfg.Input.Mouse)
		if err != nil {
			return nil, err
		}
		return &display{
			output: d,
			size:   d.Size,
			pump: func(ctx context.Context, b *bridge.Bridge) error {
				input.PumpTcell(ctx, d.Screen(), b)
				return nil
			},
			fini: d.Fini,
		}, nil
	}

	sink := terminal.NewSink(cfg.Input.Mouse)
	if err := sink.Init(); err != nil {
		return nil, err
	}
	return &display{
		output: app.NewANSIOutput(sink),
		size:   sink.Size,
		pump: func(ctx context.Context, b *bridge.Bridge) error {
			return input.PumpTerminal(ctx, sink.Events(), b)
		},
		fini: sink.Fini,
	}, nil
}

func run(flags *cliFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	logger, logFile := setupLogging(cfg.Log.Debug, cfg.Log.File)
	if logFile != nil {
		defer logFile.Close()
	}
	slog.SetDefault(logger)

	if warning := app.ColorWarning(termenv.EnvColorProfile()); warning != "" {
		fmt.Fprintln(os.Stderr, warning)
		logger.Warn("color profile", "warning", warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock, err := canvas.NewClock(cfg.Source.ClockFontPx)
	if err != nil {
		return err
	}
	var (
		source  app.Source = clock
		win     *ebitenwin.Window
		surface *native.Surface
	)
	if cfg.Source.Kind == config.SourceNative {
		win = ebitenwin.New("termraster", 640, 384, clock)
		surface = native.NewSurface(win, cfg.Loop.FrameTimeout(), logger)
		source = surface
	}

	player := audio.NewPlayer(cfg.Audio.Enabled, cfg.Audio.Volume)
	if err := player.Init(); err != nil {
		logger.Warn("audio unavailable, continuing without sound", "error", err)
	}
	defer player.Close()

	disp, err := openDisplay(cfg)
	if err != nil {
		return err
	}
	defer disp.fini()
	core.SetCrashCleanup(disp.fini)

	a, err := app.New(ctx, cfg, source, disp.output,
		app.WithLogger(logger),
		app.WithClicker(player),
	)
	if err != nil {
		return err
	}

	opts := []bridge.Option{
		bridge.WithTickRate(cfg.Loop.TickInterval()),
		bridge.WithLogger(logger),
		bridge.WithTickHook(a.Tick),
	}
	if surface != nil {
		opts = append(opts, bridge.WithNative(win.Events(), bridge.NativeHooks{
			Presented:      surface.Presented,
			SurfaceResized: surface.SurfaceResized,
		}))
	}

	if cfg.Journal.Record != "" {
		rec, closeRec, err := openRecorder(cfg.Journal.Record, logger)
		if err != nil {
			return err
		}
		defer closeRec()
		opts = append(opts, bridge.WithObserver(rec))
	}

	b := bridge.New(disp.size, a.HandleEvent, opts...)

	core.Go(func() {
		if err := disp.pump(a.Context(), b); err != nil {
			a.Stop(err)
		}
	})

	if cfg.Journal.Replay != "" {
		if err := startReplay(a, b, cfg.Journal.Replay, logger); err != nil {
			return err
		}
	}

	if flags.configPath != "" && !flags.noWatch {
		watchConfig(a, flags, cfg, logger)
	}

	if win == nil {
		return a.Run(b)
	}

	// ebiten owns the main goroutine; the bridge loop runs beside it
	done := make(chan error, 1)
	core.Go(func() { done <- a.Run(b) })
	if err := win.Run(a.Context()); err != nil {
		a.Stop(err)
	}
	a.Stop(app.ErrInterrupted)
	return <-done
}

// openRecorder returns a bridge observer writing the event journal
func openRecorder(path string, logger *slog.Logger) (func(event.WindowEvent), func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("record journal: %w", err)
	}
	rec := event.NewRecorder(f)
	failed := false

	observe := func(ev event.WindowEvent) {
		if err := rec.Record(ev); err != nil && !failed {
			failed = true
			logger.Error("journal write failed", "path", path, "error", err)
		}
	}
	closeFn := func() {
		if err := rec.Flush(); err != nil {
			logger.Error("journal flush failed", "path", path, "error", err)
		}
		f.Close()
	}
	return observe, closeFn, nil
}

// startReplay injects recorded pointer and key events with their pacing
func startReplay(a *app.App, b *bridge.Bridge, path string, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("replay journal: %w", err)
	}

	core.Go(func() {
		defer f.Close()
		n, err := event.NewReplayer(f).Play(a.Context(), func(ev event.WindowEvent) {
			b.Inject(ev)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("replay stopped", "path", path, "events", n, "error", err)
			return
		}
		logger.Info("replay finished", "path", path, "events", n)
	})
	return nil
}

// watchConfig stages hot settings from file changes; cold ones are logged
func watchConfig(a *app.App, flags *cliFlags, current config.Config, logger *slog.Logger) {
	load := func() (config.Config, error) { return loadConfig(flags) }
	err := config.Watch(a.Context(), flags.configPath, load, func(next config.Config, err error) {
		if err != nil {
			logger.Warn("config reload failed", "error", err)
			return
		}
		if keys := current.RestartRequired(next); len(keys) > 0 {
			logger.Warn("config changes need a restart", "keys", keys)
		}
		a.Reload(next)
	})
	if err != nil {
		logger.Warn("config watch disabled", "error", err)
	}
}
