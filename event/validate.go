package event

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// ErrSchemaViolation marks a value that matches no known variant/payload shape
var ErrSchemaViolation = errors.New("event schema violation")

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchemaViolation, fmt.Sprintf(format, args...))
}

// Validate checks ev against the tagged-union shape
func Validate(ev WindowEvent) error {
	switch e := ev.(type) {
	case Resized:
		if e.Width < 0 || e.Height < 0 {
			return violation("resized %dx%d: negative dimension", e.Width, e.Height)
		}
	case CursorMoved:
		if !finite(e.X) || !finite(e.Y) || e.X < 0 || e.Y < 0 {
			return violation("cursor_moved (%v,%v): not a grid position", e.X, e.Y)
		}
	case MouseInput:
		if e.Button != ButtonLeft {
			return violation("mouse_input: unknown %v", e.Button)
		}
		if e.State != Pressed && e.State != Released {
			return violation("mouse_input: unknown %v", e.State)
		}
	case KeyboardInput:
		if e.Text == "" || !utf8.ValidString(e.Text) {
			return violation("keyboard_input %q: empty or invalid UTF-8", e.Text)
		}
	case RedrawRequested:
	case nil:
		return violation("nil event")
	default:
		return violation("unknown variant %T", ev)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
