package native

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/termraster/raster"
)

// DefaultFrameTimeout bounds the wait for a presented frame
const DefaultFrameTimeout = 250 * time.Millisecond

// Surface is the adapter the render pipeline reads from. Width and Height
// query the window every call; nothing is cached or patched onto the window.
type Surface struct {
	win       Window
	timeout   time.Duration
	log       *slog.Logger
	presented chan struct{} // cap 1, latest Draw only
	buf       []byte
	resizes   atomic.Uint64
}

// NewSurface wraps win; timeout <= 0 selects DefaultFrameTimeout
func NewSurface(win Window, timeout time.Duration, log *slog.Logger) *Surface {
	if timeout <= 0 {
		timeout = DefaultFrameTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Surface{
		win:       win,
		timeout:   timeout,
		log:       log,
		presented: make(chan struct{}, 1),
	}
}

// Width returns the window's current surface width
func (s *Surface) Width() int {
	w, _ := s.win.Size()
	return w
}

// Height returns the window's current surface height
func (s *Surface) Height() int {
	_, h := s.win.Size()
	return h
}

// SetSize resizes the window surface
func (s *Surface) SetSize(width, height int) {
	s.win.SetSize(width, height)
}

// RequestRedraw schedules a window frame without waiting for it
func (s *Surface) RequestRedraw() {
	s.win.RequestRedraw()
}

// Presented signals a waiting Frame call. Non-blocking; signals coalesce.
func (s *Surface) Presented() {
	select {
	case s.presented <- struct{}{}:
	default:
	}
}

// SurfaceResized records a native size change
func (s *Surface) SurfaceResized(width, height int) {
	s.resizes.Add(1)
	s.log.Debug("native surface resized", "width", width, "height", height)
}

// Resizes returns the number of native resize notifications seen
func (s *Surface) Resizes() uint64 {
	return s.resizes.Load()
}

// Frame sizes the window to width x height if needed, requests a redraw, waits
// until it is presented and returns a copy of its pixels. The returned buffer
// is reused by the next call.
func (s *Surface) Frame(ctx context.Context, width, height int) (raster.PixelBuffer, error) {
	if w, h := s.win.Size(); w != width || h != height {
		s.win.SetSize(width, height)
	}

	// Discard a Draw that predates this request
	select {
	case <-s.presented:
	default:
	}

	s.win.RequestRedraw()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return raster.PixelBuffer{}, context.Cause(ctx)
	case <-timer.C:
		return raster.PixelBuffer{}, fmt.Errorf("%w after %v", ErrFrameTimeout, s.timeout)
	case <-s.presented:
	}

	pb, err := s.win.ReadPixels(s.buf)
	if err != nil {
		return raster.PixelBuffer{}, fmt.Errorf("native readback: %w", err)
	}
	s.buf = pb.Pix
	if err := pb.Validate(); err != nil {
		return raster.PixelBuffer{}, fmt.Errorf("native readback: %w", err)
	}
	return pb, nil
}
