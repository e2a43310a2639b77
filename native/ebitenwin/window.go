// Package ebitenwin is a native.Window backed by an ebiten game loop. Each
// frame composes the source canvas over an animated backdrop on the GPU and,
// when a redraw was requested, reads the composed frame back.
package ebitenwin

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/termraster/native"
	"github.com/lixenwraith/termraster/raster"
)

// ErrNoFrame reports a readback before the first composed frame
var ErrNoFrame = errors.New("no frame presented yet")

const (
	eventBuffer = 16
	hueSpeed    = 0.5 // degrees per tick
)

// Source produces the canvas drawn over the backdrop
type Source interface {
	Frame(ctx context.Context, width, height int) (raster.PixelBuffer, error)
}

// Window runs on the main goroutine via Run; every other method is safe from
// any goroutine
type Window struct {
	title  string
	source Source
	ctx    context.Context

	events chan native.Event
	redraw atomic.Bool

	mu       sync.Mutex
	width    int
	height   int
	resize   *[2]int // pending SetSize, applied in Update
	snapshot raster.PixelBuffer
	closed   bool
	quitSent bool

	ticks  uint64
	canvas *ebiten.Image
	frame  *ebiten.Image
	pixels []byte
}

// New creates a window of the given initial size; nothing opens until Run
func New(title string, width, height int, source Source) *Window {
	return &Window{
		title:  title,
		source: source,
		ctx:    context.Background(),
		events: make(chan native.Event, eventBuffer),
		width:  width,
		height: height,
	}
}

// Run blocks in the ebiten loop until ctx is done or the game terminates.
// Must be called from the main goroutine.
func (w *Window) Run(ctx context.Context) error {
	w.ctx = ctx
	defer w.closeEvents()

	w.mu.Lock()
	width, height := w.width, w.height
	w.mu.Unlock()

	ebiten.SetWindowTitle(w.title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)

	if err := ebiten.RunGame(w); err != nil {
		return fmt.Errorf("ebiten: %w", err)
	}
	return nil
}

// Events implements native.Window
func (w *Window) Events() <-chan native.Event {
	return w.events
}

// Size implements native.Window
func (w *Window) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// SetSize implements native.Window
func (w *Window) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	w.mu.Lock()
	w.resize = &[2]int{width, height}
	w.mu.Unlock()
}

// RequestRedraw arms a readback on the next composed frame
func (w *Window) RequestRedraw() {
	w.redraw.Store(true)
}

// ReadPixels implements native.Window
func (w *Window) ReadPixels(dst []byte) (raster.PixelBuffer, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.snapshot.Pix == nil {
		return raster.PixelBuffer{}, ErrNoFrame
	}
	n := len(w.snapshot.Pix)
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	copy(dst, w.snapshot.Pix)
	return raster.PixelBuffer{Width: w.snapshot.Width, Height: w.snapshot.Height, Pix: dst}, nil
}

// Update implements ebiten.Game
func (w *Window) Update() error {
	if w.ctx.Err() != nil {
		return ebiten.Termination
	}
	w.ticks++

	w.mu.Lock()
	resize := w.resize
	w.resize = nil
	quit := ebiten.IsWindowBeingClosed() && !w.quitSent
	if quit {
		w.quitSent = true
	}
	w.mu.Unlock()

	if resize != nil {
		ebiten.SetWindowSize(resize[0], resize[1])
	}
	if quit {
		w.send(native.Event{Kind: native.Quit})
	}
	return nil
}

// Draw implements ebiten.Game
func (w *Window) Draw(screen *ebiten.Image) {
	width, height := w.Size()
	if width <= 0 || height <= 0 {
		return
	}
	if w.frame == nil || w.frame.Bounds().Dx() != width || w.frame.Bounds().Dy() != height {
		w.frame = ebiten.NewImage(width, height)
		w.canvas = ebiten.NewImage(width, height)
	}

	w.frame.Fill(backdrop(w.ticks))
	if buf, err := w.source.Frame(w.ctx, width, height); err == nil && buf.Width == width && buf.Height == height {
		w.canvas.WritePixels(buf.Pix)
		// Additive blend drops the canvas's black background
		w.frame.DrawImage(w.canvas, &ebiten.DrawImageOptions{Blend: ebiten.BlendLighter})
	}
	screen.DrawImage(w.frame, nil)

	if !w.redraw.Swap(false) {
		return
	}
	if n := width * height * 4; len(w.pixels) != n {
		w.pixels = make([]byte, n)
	}
	w.frame.ReadPixels(w.pixels)
	w.publish(width, height, w.pixels)
	w.send(native.Event{Kind: native.Draw})
}

// Layout implements ebiten.Game with one logical pixel per device pixel
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	w.mu.Lock()
	changed := outsideWidth != w.width || outsideHeight != w.height
	w.width, w.height = outsideWidth, outsideHeight
	w.mu.Unlock()

	if changed {
		w.send(native.Event{Kind: native.WindowResized, Width: outsideWidth, Height: outsideHeight})
	}
	return outsideWidth, outsideHeight
}

// publish stores a copy of the composed frame. The backdrop is opaque, so
// ebiten's premultiplied readback equals straight alpha.
func (w *Window) publish(width, height int, pix []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.snapshot.Pix) != len(pix) {
		w.snapshot.Pix = make([]byte, len(pix))
	}
	copy(w.snapshot.Pix, pix)
	w.snapshot.Width, w.snapshot.Height = width, height
}

// send never blocks the game loop; a full queue drops the notification
func (w *Window) send(ev native.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.events <- ev:
	default:
	}
}

func (w *Window) closeEvents() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.events)
	}
}

// backdrop cycles a dark hue
func backdrop(tick uint64) colorful.Color {
	hue := math.Mod(float64(tick)*hueSpeed, 360)
	return colorful.Hsv(hue, 0.6, 0.35)
}
