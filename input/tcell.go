package input

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/termraster/bridge"
)

// TcellTracker derives press and release transitions from tcell button
// masks, which only report the buttons currently held
type TcellTracker struct {
	held tcell.ButtonMask
}

// tracked lists the buttons in transition priority order
var tracked = []struct {
	mask tcell.ButtonMask
	btn  bridge.MouseButton
}{
	{tcell.ButtonPrimary, bridge.ButtonLeft},
	{tcell.ButtonMiddle, bridge.ButtonMiddle},
	{tcell.ButtonSecondary, bridge.ButtonRight},
}

const wheelMask = tcell.WheelUp | tcell.WheelDown | tcell.WheelLeft | tcell.WheelRight

// Convert maps a tcell event; ok is false for events the bridge does not take.
// Mouse positions are converted to the 1-based convention of raw reports.
func (t *TcellTracker) Convert(ev tcell.Event) (in Input, ok bool) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		kp := bridge.KeyPress{Interrupt: e.Key() == tcell.KeyCtrlC}
		switch {
		case kp.Interrupt:
			kp.Text = "\x03"
		case e.Key() == tcell.KeyRune:
			kp.Text = string(e.Rune())
		default:
			kp.Text = e.Name()
		}
		return Input{Key: &kp}, true

	case *tcell.EventMouse:
		x, y := e.Position()
		m := bridge.MouseReport{Column: x + 1, Row: y + 1, Action: bridge.ActionMove}
		now := e.Buttons()

		if now&wheelMask != 0 {
			m.Button, m.Action = bridge.ButtonWheel, bridge.ActionPress
			return Input{Mouse: &m}, true
		}

		prev := t.held
		t.held = now & (tcell.ButtonPrimary | tcell.ButtonMiddle | tcell.ButtonSecondary)
		for _, tb := range tracked {
			switch {
			case now&tb.mask != 0 && prev&tb.mask == 0:
				m.Button, m.Action = tb.btn, bridge.ActionPress
				return Input{Mouse: &m}, true
			case now&tb.mask == 0 && prev&tb.mask != 0:
				m.Button, m.Action = tb.btn, bridge.ActionRelease
				return Input{Mouse: &m}, true
			}
		}
		for _, tb := range tracked {
			if now&tb.mask != 0 {
				m.Button, m.Action = tb.btn, bridge.ActionDrag
				break
			}
		}
		return Input{Mouse: &m}, true

	default:
		return Input{}, false
	}
}

// PumpTcell polls the screen until it is finalized or ctx is done. Callers
// end a blocked poll by calling Fini on the screen.
func PumpTcell(ctx context.Context, s tcell.Screen, p Poster) {
	var tracker TcellTracker
	for ctx.Err() == nil {
		ev := s.PollEvent()
		if ev == nil {
			return
		}
		if in, ok := tracker.Convert(ev); ok {
			in.Post(p)
		}
	}
}
