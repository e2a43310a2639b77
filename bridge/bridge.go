// Package bridge merges the terminal size poll, key and mouse input, native
// window notifications and injected events into one ordered WindowEvent
// stream delivered to a single handler.
package bridge

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/termraster/event"
	"github.com/lixenwraith/termraster/native"
)

// DefaultTickRate is the size poll and redraw cadence (60 Hz)
const DefaultTickRate = time.Second / 60

// defaultQueueSize buffers posted input between loop iterations
const defaultQueueSize = 256

// SizeFunc returns the current terminal grid
type SizeFunc func() (cols, rows int)

// Handler consumes the merged stream; it runs on the bridge loop goroutine
type Handler func(event.WindowEvent)

// KeyPress is a key from any input backend
type KeyPress struct {
	Interrupt bool   // Ctrl-C
	Text      string // raw text, informational
}

// MouseButton identifies the button of a mouse report
type MouseButton uint8

const (
	ButtonNone MouseButton = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
	ButtonWheel
)

// MouseAction is the kind of mouse report
type MouseAction uint8

const (
	ActionMove MouseAction = iota
	ActionPress
	ActionRelease
	ActionDrag
)

// MouseReport is a mouse event in 1-based terminal cells
type MouseReport struct {
	Column int
	Row    int
	Button MouseButton
	Action MouseAction
}

// NativeHooks receive native notifications that produce no WindowEvent
type NativeHooks struct {
	Presented      func()                  // a Draw arrived
	SurfaceResized func(width, height int) // pixels
}

// Stats counts bridge activity
type Stats struct {
	Ticks      uint64
	Delivered  uint64
	Violations uint64 // events dropped by validation
	Dropped    uint64 // posted input lost to a full queue
}

// Bridge owns all dedup state. Dispatch methods and Tick must run on one
// goroutine: the Run loop, or the caller when Run is not used.
type Bridge struct {
	size     SizeFunc
	handler  Handler
	rate     time.Duration
	log      *slog.Logger
	observe  func(event.WindowEvent)
	hooks    []func()
	nevents  <-chan native.Event
	nhooks   NativeHooks
	keys     chan KeyPress
	mice     chan MouseReport
	injected chan event.WindowEvent

	// Loop-owned state
	haveSize   bool
	cols, rows int
	haveCursor bool
	col, row   int
	leftDown   bool

	ticks      atomic.Uint64
	delivered  atomic.Uint64
	violations atomic.Uint64
	dropped    atomic.Uint64
}

// Option configures a Bridge
type Option func(*Bridge)

// WithTickRate sets the timer period
func WithTickRate(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.rate = d
		}
	}
}

// WithLogger sets the logger for dropped events
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

// WithTickHook runs fn after the tick's events, e.g. a scheduler latch check
func WithTickHook(fn func()) Option {
	return func(b *Bridge) {
		if fn != nil {
			b.hooks = append(b.hooks, fn)
		}
	}
}

// WithObserver sees every delivered event before the handler, e.g. a journal
func WithObserver(fn func(event.WindowEvent)) Option {
	return func(b *Bridge) { b.observe = fn }
}

// WithNative adds a native window event source
func WithNative(events <-chan native.Event, hooks NativeHooks) Option {
	return func(b *Bridge) {
		b.nevents = events
		b.nhooks = hooks
	}
}

// WithQueueSize sets the capacity of the posted input queues
func WithQueueSize(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.keys = make(chan KeyPress, n)
			b.mice = make(chan MouseReport, n)
			b.injected = make(chan event.WindowEvent, n)
		}
	}
}

// New registers the single consumer
func New(size SizeFunc, handler Handler, opts ...Option) *Bridge {
	b := &Bridge{
		size:     size,
		handler:  handler,
		rate:     DefaultTickRate,
		log:      slog.Default(),
		keys:     make(chan KeyPress, defaultQueueSize),
		mice:     make(chan MouseReport, defaultQueueSize),
		injected: make(chan event.WindowEvent, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run drives the timer and drains posted input until ctx is done.
// The first tick fires immediately.
func (b *Bridge) Run(ctx context.Context) {
	ticker := time.NewTicker(b.rate)
	defer ticker.Stop()

	b.Tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Tick()
		case k := <-b.keys:
			b.DispatchKey(k)
		case m := <-b.mice:
			b.DispatchMouse(m)
		case ev := <-b.injected:
			b.emit(ev)
		case ne, ok := <-b.nevents:
			if !ok {
				b.nevents = nil
				continue
			}
			b.DispatchNative(ne)
		}
	}
}

// PostKey queues a key for the loop; safe from any goroutine
func (b *Bridge) PostKey(k KeyPress) bool {
	select {
	case b.keys <- k:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

// PostMouse queues a mouse report for the loop; safe from any goroutine
func (b *Bridge) PostMouse(m MouseReport) bool {
	select {
	case b.mice <- m:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

// Inject queues a ready-made event, validated and delivered as-is
func (b *Bridge) Inject(ev event.WindowEvent) bool {
	select {
	case b.injected <- ev:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

// Tick polls the grid size, emits Resized on change, always emits
// RedrawRequested, then runs tick hooks
func (b *Bridge) Tick() {
	b.ticks.Add(1)

	cols, rows := b.size()
	if !b.haveSize || cols != b.cols || rows != b.rows {
		b.haveSize = true
		b.cols, b.rows = cols, rows
		b.emit(event.Resized{Width: cols, Height: rows})
	}
	b.emit(event.RedrawRequested{})

	for _, hook := range b.hooks {
		hook()
	}
}

// DispatchKey forwards only the interrupt key
func (b *Bridge) DispatchKey(k KeyPress) {
	if k.Interrupt {
		b.emit(event.KeyboardInput{Text: event.Interrupt})
	}
}

// DispatchMouse converts a 1-based report into CursorMoved on cell change and
// MouseInput on left button transitions
func (b *Bridge) DispatchMouse(m MouseReport) {
	col, row := m.Column-1, m.Row-1
	if !b.haveCursor || col != b.col || row != b.row {
		b.haveCursor = true
		b.col, b.row = col, row
		b.emit(event.CursorMoved{X: float64(col), Y: float64(row)})
	}

	if m.Button != ButtonLeft {
		return
	}
	switch m.Action {
	case ActionPress:
		if !b.leftDown {
			b.leftDown = true
			b.emit(event.MouseInput{Button: event.ButtonLeft, State: event.Pressed})
		}
	case ActionRelease:
		if b.leftDown {
			b.leftDown = false
			b.emit(event.MouseInput{Button: event.ButtonLeft, State: event.Released})
		}
	}
}

// DispatchNative maps Quit to the interrupt key and forwards Draw and
// WindowResized to the hooks
func (b *Bridge) DispatchNative(ne native.Event) {
	switch ne.Kind {
	case native.Quit:
		b.emit(event.KeyboardInput{Text: event.Interrupt})
	case native.Draw:
		if b.nhooks.Presented != nil {
			b.nhooks.Presented()
		}
	case native.WindowResized:
		if b.nhooks.SurfaceResized != nil {
			b.nhooks.SurfaceResized(ne.Width, ne.Height)
		}
	default:
		b.log.Debug("unknown native event ignored", "kind", ne.Kind)
	}
}

// Stats returns a snapshot of the counters; safe from any goroutine
func (b *Bridge) Stats() Stats {
	return Stats{
		Ticks:      b.ticks.Load(),
		Delivered:  b.delivered.Load(),
		Violations: b.violations.Load(),
		Dropped:    b.dropped.Load(),
	}
}

// emit validates and delivers one event; violations never reach the handler
func (b *Bridge) emit(ev event.WindowEvent) {
	if err := event.Validate(ev); err != nil {
		b.violations.Add(1)
		b.log.Debug("event dropped", "error", err)
		return
	}
	if b.observe != nil {
		b.observe(ev)
	}
	b.delivered.Add(1)
	b.handler(ev)
}
