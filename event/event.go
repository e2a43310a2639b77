// Package event defines the WindowEvent sum type delivered by the bridge, its
// validation, a JSONL wire codec and the record/replay journal.
package event

import "fmt"

// Kind is the wire tag of a WindowEvent variant
type Kind string

const (
	KindResized         Kind = "resized"
	KindCursorMoved     Kind = "cursor_moved"
	KindMouseInput      Kind = "mouse_input"
	KindKeyboardInput   Kind = "keyboard_input"
	KindRedrawRequested Kind = "redraw_requested"
)

// WindowEvent is one of Resized, CursorMoved, MouseInput, KeyboardInput or
// RedrawRequested. The set is closed by the unexported method.
type WindowEvent interface {
	Kind() Kind
	windowEvent()
}

// Resized reports new grid dimensions in cells
type Resized struct {
	Width  int
	Height int
}

// CursorMoved reports the pointer cell, 0-based grid coordinates
type CursorMoved struct {
	X, Y float64
}

// MouseButton identifies a pointer button
type MouseButton uint8

const (
	ButtonLeft MouseButton = iota + 1
)

func (b MouseButton) String() string {
	if b == ButtonLeft {
		return "left"
	}
	return fmt.Sprintf("button(%d)", uint8(b))
}

// ButtonState is a press or release transition
type ButtonState uint8

const (
	Pressed ButtonState = iota + 1
	Released
)

func (s ButtonState) String() string {
	switch s {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// MouseInput reports a button transition
type MouseInput struct {
	Button MouseButton
	State  ButtonState
}

// KeyboardInput carries raw key text, control characters included
type KeyboardInput struct {
	Text string
}

// RedrawRequested asks the consumer to render now
type RedrawRequested struct{}

// Interrupt is the text of the interrupt key (Ctrl-C)
const Interrupt = "\x03"

func (Resized) Kind() Kind { return KindResized }
func (CursorMoved) Kind() Kind { return KindCursorMoved }
func (MouseInput) Kind() Kind { return KindMouseInput }
func (KeyboardInput) Kind() Kind { return KindKeyboardInput }
func (RedrawRequested) Kind() Kind { return KindRedrawRequested }

func (Resized) windowEvent() {}
func (CursorMoved) windowEvent() {}
func (MouseInput) windowEvent() {}
func (KeyboardInput) windowEvent() {}
func (RedrawRequested) windowEvent() {}

// IsInterrupt reports whether ev is the interrupt key
func IsInterrupt(ev WindowEvent) bool {
	k, ok := ev.(KeyboardInput)
	return ok && k.Text == Interrupt
}

// Replayable reports whether ev is user input that a journal replay re-injects.
// Resized and RedrawRequested come from the live terminal and timer.
func Replayable(ev WindowEvent) bool {
	switch ev.(type) {
	case CursorMoved, MouseInput, KeyboardInput:
		return true
	default:
		return false
	}
}
