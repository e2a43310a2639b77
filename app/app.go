// Package app turns window events into terminal frames. Handlers run on the
// bridge loop and only stage state; each render works from a snapshot taken
// when it starts.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/lixenwraith/termraster/bridge"
	"github.com/lixenwraith/termraster/config"
	"github.com/lixenwraith/termraster/event"
	"github.com/lixenwraith/termraster/raster"
	"github.com/lixenwraith/termraster/render"
	"github.com/lixenwraith/termraster/scheduler"
	"github.com/lixenwraith/termraster/terminal"
)

var (
	// ErrRenderFailure wraps any failed render; the frame is skipped
	ErrRenderFailure = errors.New("render failure")
	// ErrInterrupted is the cancel cause for Ctrl-C or a closed window
	ErrInterrupted = errors.New("interrupted")
)

// Source produces the raster for one frame. The buffer is valid until the
// next call.
type Source interface {
	Frame(ctx context.Context, width, height int) (raster.PixelBuffer, error)
}

// Output presents a quantized frame
type Output interface {
	Present(f *render.Frame) error
}

// Clicker sounds the press feedback
type Clicker interface {
	Click()
}

// Optional source and clicker capabilities, applied on resize and reload
type (
	resizer    interface{ SetSize(width, height int) }
	fontSizer  interface{ SetFontPx(px float64) }
	configurer interface{ Configure(enabled bool, volume float64) }
)

// Grid is the terminal size in cells
type Grid struct {
	Cols, Rows int
}

// State is the staged render input, owned by the bridge loop
type State struct {
	Grid      Grid
	Cursor    *render.HighlightSpot // last pointer cell, nil until the first move
	Pressing  bool
	Highlight *render.HighlightSpot // Cursor while Pressing, else nil
}

// Snapshot is the immutable copy a render job reads
type Snapshot struct {
	Grid         Grid
	Highlight    *render.HighlightSpot
	CanvasWidth  int
	CanvasHeight int
}

// App owns the staged state, the scheduler and the render pipeline
type App struct {
	ctx     context.Context
	cancel  context.CancelCauseFunc
	source  Source
	output  Output
	clicker Clicker
	log     *slog.Logger

	cfg     config.Config // applied settings, loop goroutine only
	state   State
	pending atomic.Pointer[config.Config]
	sched   *scheduler.Scheduler

	// Job-owned; replaced only in prepare while no job runs
	resampler *raster.Resampler
	quantizer *render.Quantizer
}

// Option configures an App
type Option func(*App)

// WithLogger sets the application logger
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

// WithClicker sounds c on every left press
func WithClicker(c Clicker) Option {
	return func(a *App) { a.clicker = c }
}

// New builds an app rendering source into output. The app's context derives
// from ctx and is cancelled on interrupt or a fatal output error.
func New(ctx context.Context, cfg config.Config, source Source, output Output, opts ...Option) (*App, error) {
	kernel, err := raster.KernelByName(cfg.Render.Kernel)
	if err != nil {
		return nil, err
	}
	q, err := render.NewQuantizer(cfg.Render.Options())
	if err != nil {
		return nil, err
	}

	a := &App{
		source:    source,
		output:    output,
		cfg:       cfg,
		log:       slog.Default(),
		resampler: raster.NewResampler(kernel),
		quantizer: q,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ctx, a.cancel = context.WithCancelCause(ctx)
	a.sched = scheduler.New(a.ctx, a.prepare,
		scheduler.WithErrorHandler(a.renderFailed),
		scheduler.WithLogger(a.log),
	)
	return a, nil
}

// Context is cancelled when the app stops
func (a *App) Context() context.Context {
	return a.ctx
}

// Stop cancels the app with cause
func (a *App) Stop(cause error) {
	a.cancel(cause)
}

// Run drives b until the app stops, then waits for the in-flight render.
// An interrupt or parent cancellation returns nil; a fatal error is returned.
func (a *App) Run(b *bridge.Bridge) error {
	b.Run(a.ctx)
	a.sched.Wait()

	cause := context.Cause(a.ctx)
	if errors.Is(cause, ErrInterrupted) || errors.Is(cause, context.Canceled) {
		return nil
	}
	return cause
}

// Tick is the bridge tick hook: it renders once if a redraw was latched
func (a *App) Tick() {
	a.sched.Tick()
}

// HandleEvent stages one window event. Must run on the bridge loop.
func (a *App) HandleEvent(ev event.WindowEvent) {
	switch e := ev.(type) {
	case event.Resized:
		a.state.Grid = Grid{Cols: e.Width, Rows: e.Height}
		a.resizeSource()
		a.sched.RequestRedraw()

	case event.CursorMoved:
		a.state.Cursor = &render.HighlightSpot{X: e.X, Y: e.Y}
		a.updateHighlight()

	case event.MouseInput:
		pressed := e.State == event.Pressed
		if pressed && !a.state.Pressing && a.clicker != nil {
			a.clicker.Click()
		}
		a.state.Pressing = pressed
		a.updateHighlight()

	case event.KeyboardInput:
		if event.IsInterrupt(e) {
			a.log.Info("interrupt received")
			a.cancel(ErrInterrupted)
		}

	case event.RedrawRequested:
		a.sched.Request()

	default:
		a.log.Debug("unhandled window event", "event", fmt.Sprintf("%T", ev))
	}
}

// updateHighlight recomputes the spot: the cursor cell while pressing
func (a *App) updateHighlight() {
	if a.state.Pressing && a.state.Cursor != nil {
		spot := *a.state.Cursor
		a.state.Highlight = &spot
	} else {
		a.state.Highlight = nil
	}
}

// resizeSource fits a native window to the canvas for the current grid
func (a *App) resizeSource() {
	r, ok := a.source.(resizer)
	if !ok {
		return
	}
	w, h := a.cfg.Render.CanvasSize(a.state.Grid.Cols, a.state.Grid.Rows)
	if w > 0 && h > 0 {
		r.SetSize(w, h)
	}
}

// State returns a copy of the staged state
func (a *App) State() State {
	return a.state
}

// Stats returns scheduler counters
func (a *App) Stats() scheduler.Stats {
	return a.sched.Stats()
}

// Wait blocks until the in-flight render finishes
func (a *App) Wait() {
	a.sched.Wait()
}

// Reload stages cfg; it is applied when the next render starts. Safe from
// any goroutine.
func (a *App) Reload(cfg config.Config) {
	a.pending.Store(&cfg)
}

// prepare runs on the bridge loop at render start
func (a *App) prepare() scheduler.Job {
	a.applyPending()

	grid := a.state.Grid
	if grid.Cols <= 0 || grid.Rows <= 0 {
		return nil
	}
	snap := Snapshot{Grid: grid}
	if hl := a.state.Highlight; hl != nil {
		spot := *hl
		snap.Highlight = &spot
	}
	snap.CanvasWidth, snap.CanvasHeight = a.cfg.Render.CanvasSize(grid.Cols, grid.Rows)

	resampler, quantizer := a.resampler, a.quantizer
	return func(ctx context.Context) error {
		return a.render(ctx, snap, resampler, quantizer)
	}
}

func (a *App) render(ctx context.Context, snap Snapshot, rs *raster.Resampler, q *render.Quantizer) error {
	buf, err := a.source.Frame(ctx, snap.CanvasWidth, snap.CanvasHeight)
	if err != nil {
		return fmt.Errorf("%w: source: %w", ErrRenderFailure, err)
	}
	cells, err := rs.ResizePixels(buf, snap.Grid.Cols, snap.Grid.Rows)
	if err != nil {
		return fmt.Errorf("%w: resample: %w", ErrRenderFailure, err)
	}
	frame, err := q.Quantize(cells, snap.Highlight)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}
	if err := a.output.Present(frame); err != nil {
		return fmt.Errorf("%w: output: %w", ErrRenderFailure, err)
	}
	return nil
}

// renderFailed runs on the job goroutine; only output write errors are fatal
func (a *App) renderFailed(err error) {
	if errors.Is(err, terminal.ErrOutputWrite) {
		a.log.Error("terminal output failed", "error", err)
		a.cancel(err)
		return
	}
	a.log.Debug("frame skipped", "error", err)
}

// applyPending swaps in a staged config. Invalid render settings keep the
// previous ones.
func (a *App) applyPending() {
	next := a.pending.Swap(nil)
	if next == nil {
		return
	}

	kernel, err := raster.KernelByName(next.Render.Kernel)
	if err != nil {
		a.log.Warn("reload rejected", "error", err)
		return
	}
	q, err := render.NewQuantizer(next.Render.Options())
	if err != nil {
		a.log.Warn("reload rejected", "error", err)
		return
	}

	a.resampler.SetKernel(kernel)
	a.quantizer = q
	a.cfg.Render = next.Render
	a.cfg.Source.ClockFontPx = next.Source.ClockFontPx
	a.cfg.Audio = next.Audio

	if fs, ok := a.source.(fontSizer); ok {
		fs.SetFontPx(next.Source.ClockFontPx)
	}
	if c, ok := a.clicker.(configurer); ok {
		c.Configure(next.Audio.Enabled, next.Audio.Volume)
	}
	a.resizeSource()
	a.log.Info("config reloaded", "scale", next.Render.Scale, "kernel", next.Render.Kernel)
}
