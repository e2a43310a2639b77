package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/lixenwraith/termraster/raster"
	"github.com/lixenwraith/termraster/terminal"
)

const bgPrefix = "\x1b[48;5;"

func solidBuffer(w, h int, r, g, b uint8) raster.PixelBuffer {
	buf := raster.New(w, h)
	for i := 0; i < len(buf.Pix); i += 4 {
		buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3] = r, g, b, 255
	}
	return buf
}

// splitCells cuts encoded frame text into per-cell chunks
func splitCells(t *testing.T, text []byte) []string {
	t.Helper()
	s := string(text)
	if !strings.HasSuffix(s, "\x1b[0m") {
		t.Fatalf("frame text does not end with SGR reset: %q", s)
	}
	s = strings.TrimSuffix(s, "\x1b[0m")
	if s == "" {
		return nil
	}
	if !strings.HasPrefix(s, bgPrefix) {
		t.Fatalf("frame text does not start with a background sequence: %q", s)
	}
	parts := strings.Split(s, bgPrefix)
	return parts[1:]
}

func newQuantizer(t *testing.T) *Quantizer {
	t.Helper()
	q, err := NewQuantizer(DefaultOptions())
	if err != nil {
		t.Fatalf("NewQuantizer: %v", err)
	}
	return q
}

func TestRenderSolidRed(t *testing.T) {
	q := newQuantizer(t)
	text, err := q.Render(solidBuffer(4, 2, 255, 0, 0), nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	cells := splitCells(t, text)
	if len(cells) != 8 {
		t.Fatalf("got %d cells, want 8", len(cells))
	}
	for i, c := range cells {
		if c != "196m " {
			t.Errorf("cell %d = %q, want red background fill", i, c)
		}
	}
	if strings.Contains(string(text), DefaultMarker) {
		t.Error("marker glyph present without highlight")
	}
}

func TestRenderSolidRedWithHighlight(t *testing.T) {
	q := newQuantizer(t)
	text, err := q.Render(solidBuffer(4, 2, 255, 0, 0), &HighlightSpot{X: 1, Y: 1})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	cells := splitCells(t, text)
	if len(cells) != 8 {
		t.Fatalf("got %d cells, want 8", len(cells))
	}
	markers := 0
	for i, c := range cells {
		if strings.Contains(c, DefaultMarker) {
			markers++
			if i != 1*4+1 {
				t.Errorf("marker at cell %d, want 5", i)
			}
			if want := "196m\x1b[38;5;196m" + DefaultMarker + "\x1b[39m"; c != want {
				t.Errorf("marker cell = %q, want %q", c, want)
			}
			continue
		}
		if c != "196m " {
			t.Errorf("cell %d = %q, want red background fill", i, c)
		}
	}
	if markers != 1 {
		t.Errorf("got %d markers, want 1", markers)
	}
}

func TestHighlightPrecedence(t *testing.T) {
	q := newQuantizer(t)

	// Every pixel a different color, marker must win at (2,3) regardless
	buf := raster.New(5, 5)
	for i := 0; i < len(buf.Pix); i += 4 {
		buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3] = uint8(i*3), uint8(i*5), uint8(i*7), 255
	}

	f, err := q.Quantize(buf, &HighlightSpot{X: 2, Y: 3})
	if err != nil {
		t.Fatalf("Quantize: %v", err)
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			want := x == 2 && y == 3
			if got := f.At(x, y).Marker; got != want {
				t.Errorf("cell (%d,%d) marker = %v, want %v", x, y, got, want)
			}
		}
	}

	text := string(f.AppendText(nil))
	if strings.Count(text, DefaultMarker) != 1 {
		t.Errorf("marker count = %d, want 1", strings.Count(text, DefaultMarker))
	}
	if strings.Count(text, "\x1b[38;5;") != 1 {
		t.Errorf("foreground sequences = %d, want only the marker's", strings.Count(text, "\x1b[38;5;"))
	}
}

func TestQuantizeDeterministic(t *testing.T) {
	buf := solidBuffer(3, 3, 12, 140, 220)
	q := newQuantizer(t)

	a, err := q.Render(buf, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	first := string(a)
	b, err := q.Render(buf, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(b) != first {
		t.Error("identical input produced different frames")
	}
}

func TestQuantizeIgnoresAlpha(t *testing.T) {
	q := newQuantizer(t)
	buf := solidBuffer(1, 1, 0, 255, 0)
	opaque, _ := q.Quantize(buf, nil)
	want := opaque.At(0, 0).Bg

	buf.Pix[3] = 0
	transparent, _ := q.Quantize(buf, nil)
	if got := transparent.At(0, 0).Bg; got != want {
		t.Errorf("transparent pixel bg = %d, want %d", got, want)
	}
}

func TestQuantizeMalformed(t *testing.T) {
	q := newQuantizer(t)
	bad := raster.PixelBuffer{Width: 3, Height: 3, Pix: make([]byte, 10)}
	if _, err := q.Render(bad, nil); !errors.Is(err, raster.ErrMalformedBuffer) {
		t.Errorf("expected ErrMalformedBuffer, got %v", err)
	}
}

func TestQuantizeEmptyBuffer(t *testing.T) {
	q := newQuantizer(t)
	text, err := q.Render(raster.PixelBuffer{Width: 0, Height: 7}, &HighlightSpot{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(text) != "\x1b[0m" {
		t.Errorf("empty frame text = %q", text)
	}
}

func TestHighlightOutsideGrid(t *testing.T) {
	q := newQuantizer(t)
	for _, hl := range []HighlightSpot{{X: -1, Y: 0}, {X: 4, Y: 0}, {X: 0, Y: 2}} {
		f, err := q.Quantize(solidBuffer(4, 2, 0, 0, 0), &hl)
		if err != nil {
			t.Fatalf("Quantize: %v", err)
		}
		for i, c := range f.Cells {
			if c.Marker {
				t.Errorf("highlight %+v marked cell %d", hl, i)
			}
		}
	}
}

func TestHighlightCellRounding(t *testing.T) {
	tests := []struct {
		in    HighlightSpot
		wantX int
		wantY int
	}{
		{HighlightSpot{X: 1.4, Y: 0.6}, 1, 1},
		{HighlightSpot{X: 2.5, Y: 0.49}, 3, 0},
		{HighlightSpot{X: 0, Y: 0}, 0, 0},
	}

	for _, tt := range tests {
		x, y := tt.in.Cell()
		if x != tt.wantX || y != tt.wantY {
			t.Errorf("%+v.Cell() = (%d,%d), want (%d,%d)", tt.in, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestMarkerOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
		wantFg  uint8
	}{
		{"default", DefaultOptions(), false, terminal.P256Red},
		{"ascii marker green", Options{Marker: "x", MarkerColor: "#00ff00"}, false, 46},
		{"wide rune", Options{Marker: "漢"}, true, 0},
		{"combining mark", Options{Marker: "\u0301"}, true, 0},
		{"two runes", Options{Marker: "ab"}, true, 0},
		{"bad color", Options{Marker: "x", MarkerColor: "red"}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewQuantizer(tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.MarkerFg() != tt.wantFg {
				t.Errorf("marker fg = %d, want %d", q.MarkerFg(), tt.wantFg)
			}
		})
	}
}
