package terminal

import (
	"testing"
)

func drain(r *inputReader) []Event {
	var out []Event
	for {
		select {
		case ev := <-r.eventCh:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestParseInputKeys(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Key
	}{
		{"ctrl-c", "\x03", []Key{KeyInterrupt}},
		{"printable", "ab", []Key{KeyRune, KeyRune}},
		{"enter", "\r", []Key{KeyEnter}},
		{"other ctrl", "\x01", []Key{KeyCtrl}},
		{"arrow swallowed", "\x1b[A", nil},
		{"ss3 swallowed", "\x1bOP", nil},
		{"utf8", "é", []Key{KeyRune}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newInputReader(nil)
			consumed := r.parseInput([]byte(tt.in))
			if consumed != len(tt.in) {
				t.Errorf("consumed %d of %d bytes", consumed, len(tt.in))
			}
			evs := drain(r)
			if len(evs) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(evs), len(tt.want))
			}
			for i, ev := range evs {
				if ev.Key != tt.want[i] {
					t.Errorf("event %d key = %d, want %d", i, ev.Key, tt.want[i])
				}
			}
		})
	}
}

func TestInterruptText(t *testing.T) {
	r := newInputReader(nil)
	r.parseInput([]byte{0x03})
	evs := drain(r)
	if len(evs) != 1 || evs[0].Text() != "\x03" {
		t.Fatalf("expected one interrupt with text \\x03, got %+v", evs)
	}
}

func TestParseSGRMouse(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		col    int
		row    int
		btn    MouseButton
		action MouseAction
	}{
		{"left press", "\x1b[<0;1;1M", 1, 1, MouseBtnLeft, MouseActionPress},
		{"left release", "\x1b[<0;12;5m", 12, 5, MouseBtnLeft, MouseActionRelease},
		{"motion no button", "\x1b[<35;80;24M", 80, 24, MouseBtnNone, MouseActionMove},
		{"left drag", "\x1b[<32;3;4M", 3, 4, MouseBtnLeft, MouseActionDrag},
		{"right press", "\x1b[<2;7;9M", 7, 9, MouseBtnRight, MouseActionPress},
		{"wheel down", "\x1b[<65;2;2M", 2, 2, MouseBtnWheelDown, MouseActionPress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newInputReader(nil)
			r.parseInput([]byte(tt.in))
			evs := drain(r)
			if len(evs) != 1 {
				t.Fatalf("got %d events, want 1", len(evs))
			}
			ev := evs[0]
			if ev.Type != EventMouse {
				t.Fatalf("type = %d, want EventMouse", ev.Type)
			}
			if ev.MouseCol != tt.col || ev.MouseRow != tt.row {
				t.Errorf("cell = (%d,%d), want 1-based (%d,%d)", ev.MouseCol, ev.MouseRow, tt.col, tt.row)
			}
			if ev.MouseBtn != tt.btn {
				t.Errorf("button = %s, want %s", btnName(ev.MouseBtn), btnName(tt.btn))
			}
			if ev.MouseAction != tt.action {
				t.Errorf("action = %d, want %d", ev.MouseAction, tt.action)
			}
		})
	}
}

func btnName(b MouseButton) string {
	switch b {
	case MouseBtnLeft:
		return "Left"
	case MouseBtnMiddle:
		return "Middle"
	case MouseBtnRight:
		return "Right"
	case MouseBtnWheelUp:
		return "WheelUp"
	case MouseBtnWheelDown:
		return "WheelDown"
	}
	return "None"
}

func TestParseIncompleteSequenceWaits(t *testing.T) {
	r := newInputReader(nil)
	full := []byte("x\x1b[<0;10;20M")

	// Split mid-report: only the rune is consumed
	consumed := r.parseInput(full[:7])
	if consumed != 1 {
		t.Fatalf("consumed %d, want 1", consumed)
	}
	if evs := drain(r); len(evs) != 1 || evs[0].Key != KeyRune {
		t.Fatalf("expected the rune event only, got %+v", evs)
	}

	consumed = r.parseInput(full[1:])
	if consumed != len(full)-1 {
		t.Fatalf("consumed %d, want %d", consumed, len(full)-1)
	}
	evs := drain(r)
	if len(evs) != 1 || evs[0].MouseCol != 10 || evs[0].MouseRow != 20 {
		t.Fatalf("expected mouse at (10,20), got %+v", evs)
	}
}

func TestParseSGRParams(t *testing.T) {
	tests := []struct {
		in     string
		btn    int
		x, y   int
		wantOK bool
	}{
		{"0;1;1", 0, 1, 1, true},
		{"35;120;48", 35, 120, 48, true},
		{"0;1", 0, 0, 0, false},
		{"0;1;1;1", 0, 0, 0, false},
		{"a;1;1", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			btn, x, y, ok := parseSGRParams([]byte(tt.in))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (btn != tt.btn || x != tt.x || y != tt.y) {
				t.Errorf("got (%d,%d,%d), want (%d,%d,%d)", btn, x, y, tt.btn, tt.x, tt.y)
			}
		})
	}
}

func TestDecodeRune(t *testing.T) {
	tests := []struct {
		in   []byte
		want rune
		size int
	}{
		{[]byte("A"), 'A', 1},
		{[]byte("é"), 'é', 2},
		{[]byte("⬤"), '⬤', 3},
		{[]byte{0xc0, 0x80}, 0xFFFD, 1}, // overlong
		{[]byte{0xe2, 0x41}, 0xFFFD, 1},
	}

	for _, tt := range tests {
		r, size := decodeRune(tt.in)
		if r != tt.want || size != tt.size {
			t.Errorf("decodeRune(%x) = (%q,%d), want (%q,%d)", tt.in, r, size, tt.want, tt.size)
		}
	}
}
