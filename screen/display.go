// Package screen presents quantized frames through a tcell screen, the
// alternative to the raw escape-sequence sink.
package screen

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/termraster/render"
)

// Display draws render frames cell by cell with 256-palette colors
type Display struct {
	mu     sync.Mutex
	screen tcell.Screen
	mouse  bool
	closed bool
}

// New opens the terminal through tcell
func New(mouse bool) (*Display, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("tcell screen: %w", err)
	}
	return NewWithScreen(s, mouse)
}

// NewWithScreen initializes an existing screen, e.g. a simulation screen
func NewWithScreen(s tcell.Screen, mouse bool) (*Display, error) {
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("tcell init: %w", err)
	}
	s.HideCursor()
	if mouse {
		s.EnableMouse(tcell.MouseMotionEvents)
	}
	s.Clear()
	return &Display{screen: s, mouse: mouse}, nil
}

// Screen exposes the underlying screen for the input pump
func (d *Display) Screen() tcell.Screen {
	return d.screen
}

// Size returns the grid in cells
func (d *Display) Size() (cols, rows int) {
	return d.screen.Size()
}

// Present draws the frame and shows it; cells outside the screen are clipped
func (d *Display) Present(f *render.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("present: display closed")
	}

	marker, _ := utf8.DecodeRuneInString(f.Marker)
	markerFg := tcell.PaletteColor(int(f.MarkerFg))

	cols, rows := d.screen.Size()
	for y := 0; y < f.Height && y < rows; y++ {
		for x := 0; x < f.Width && x < cols; x++ {
			c := f.At(x, y)
			style := tcell.StyleDefault.Background(tcell.PaletteColor(int(c.Bg)))
			ch := ' '
			if c.Marker {
				ch = marker
				style = style.Foreground(markerFg)
			}
			d.screen.SetContent(x, y, ch, nil, style)
		}
	}
	d.screen.Show()
	return nil
}

// Fini restores the terminal; safe to call more than once
func (d *Display) Fini() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	if d.mouse {
		d.screen.DisableMouse()
	}
	d.screen.Fini()
}
