// Package input converts backend-specific key and mouse events into bridge
// reports and pumps them into the bridge from their reader goroutines.
package input

import (
	"context"
	"fmt"

	"github.com/lixenwraith/termraster/bridge"
	"github.com/lixenwraith/termraster/terminal"
)

// Poster accepts converted input from any goroutine
type Poster interface {
	PostKey(bridge.KeyPress) bool
	PostMouse(bridge.MouseReport) bool
}

// Input is one converted event; exactly one of Key or Mouse is set
type Input struct {
	Key   *bridge.KeyPress
	Mouse *bridge.MouseReport
}

// Post forwards the input; false when nothing was accepted
func (in Input) Post(p Poster) bool {
	switch {
	case in.Key != nil:
		return p.PostKey(*in.Key)
	case in.Mouse != nil:
		return p.PostMouse(*in.Mouse)
	default:
		return false
	}
}

// FromTerminal converts a raw parser event; ok is false for non-input events
func FromTerminal(ev terminal.Event) (in Input, ok bool) {
	switch ev.Type {
	case terminal.EventKey:
		if ev.Key == terminal.KeyNone {
			return Input{}, false
		}
		return Input{Key: &bridge.KeyPress{
			Interrupt: ev.Key == terminal.KeyInterrupt,
			Text:      ev.Text(),
		}}, true
	case terminal.EventMouse:
		return Input{Mouse: &bridge.MouseReport{
			Column: ev.MouseCol,
			Row:    ev.MouseRow,
			Button: terminalButton(ev.MouseBtn),
			Action: terminalAction(ev.MouseAction),
		}}, true
	default:
		return Input{}, false
	}
}

func terminalButton(b terminal.MouseButton) bridge.MouseButton {
	switch b {
	case terminal.MouseBtnLeft:
		return bridge.ButtonLeft
	case terminal.MouseBtnMiddle:
		return bridge.ButtonMiddle
	case terminal.MouseBtnRight:
		return bridge.ButtonRight
	case terminal.MouseBtnWheelUp, terminal.MouseBtnWheelDown:
		return bridge.ButtonWheel
	default:
		return bridge.ButtonNone
	}
}

func terminalAction(a terminal.MouseAction) bridge.MouseAction {
	switch a {
	case terminal.MouseActionPress:
		return bridge.ActionPress
	case terminal.MouseActionRelease:
		return bridge.ActionRelease
	case terminal.MouseActionDrag:
		return bridge.ActionDrag
	default:
		return bridge.ActionMove
	}
}

// PumpTerminal forwards raw terminal events until ctx is done or the stream
// closes. A read error ends the pump and is returned.
func PumpTerminal(ctx context.Context, events <-chan terminal.Event, p Poster) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Type {
			case terminal.EventError:
				return fmt.Errorf("terminal input: %w", ev.Err)
			case terminal.EventClosed:
				return nil
			}
			if in, ok := FromTerminal(ev); ok {
				in.Post(p)
			}
		}
	}
}
