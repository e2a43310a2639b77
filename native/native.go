// Package native adapts a GPU-backed window into a raster source. The window
// keeps its own lifecycle; Surface only queries it and waits for presented frames.
package native

import (
	"errors"
	"fmt"

	"github.com/lixenwraith/termraster/raster"
)

// ErrFrameTimeout reports that no frame was presented within the wait bound
var ErrFrameTimeout = errors.New("native frame timeout")

// EventKind tags a native window notification
type EventKind uint8

const (
	Quit          EventKind = iota + 1 // window close requested
	Draw                               // a frame was presented and read back
	WindowResized                      // surface size changed, pixels
)

func (k EventKind) String() string {
	switch k {
	case Quit:
		return "quit"
	case Draw:
		return "draw"
	case WindowResized:
		return "window_resized"
	default:
		return fmt.Sprintf("native(%d)", uint8(k))
	}
}

// Event is one native window notification
type Event struct {
	Kind   EventKind
	Width  int // WindowResized only
	Height int
}

// Window is the foreign drawing surface. Implementations must be safe for
// concurrent use; Events is read by the bridge loop, the rest by the render job.
type Window interface {
	// Events delivers notifications; sends must never block the window's own loop
	Events() <-chan Event
	// Size returns the current surface size in pixels
	Size() (width, height int)
	// SetSize asks the window to change its surface size
	SetSize(width, height int)
	// RequestRedraw schedules a frame
	RequestRedraw()
	// ReadPixels copies the last presented frame into dst, growing it as needed
	ReadPixels(dst []byte) (raster.PixelBuffer, error)
}
