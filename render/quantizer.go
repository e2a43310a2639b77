package render

import (
	"fmt"
	"unicode/utf8"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/termraster/raster"
	"github.com/lixenwraith/termraster/terminal"
)

// Default marker style
const (
	DefaultMarker      = "⬤"
	DefaultMarkerColor = "#ff0000"
)

// Options configures the highlight marker
type Options struct {
	Marker      string // single printable rune, one cell wide
	MarkerColor string // hex color, quantized onto the palette
}

// DefaultOptions returns the red large-circle marker
func DefaultOptions() Options {
	return Options{Marker: DefaultMarker, MarkerColor: DefaultMarkerColor}
}

// narrow measures glyph width independent of the CJK locale heuristics
var narrow = &runewidth.Condition{EastAsianWidth: false}

// Quantizer maps pixel buffers to 256-color frames. It reuses one frame and one
// text buffer, so results are valid until the next call. Not safe for concurrent use.
type Quantizer struct {
	marker   string
	markerFg uint8
	frame    Frame
	text     []byte
}

// NewQuantizer validates the marker options
func NewQuantizer(opts Options) (*Quantizer, error) {
	if opts.Marker == "" {
		opts.Marker = DefaultMarker
	}
	if opts.MarkerColor == "" {
		opts.MarkerColor = DefaultMarkerColor
	}

	if err := ValidateMarker(opts.Marker); err != nil {
		return nil, err
	}
	fg, err := paletteFromHex(opts.MarkerColor)
	if err != nil {
		return nil, err
	}

	return &Quantizer{marker: opts.Marker, markerFg: fg}, nil
}

// ValidateMarker checks the glyph is exactly one rune occupying one cell
func ValidateMarker(marker string) error {
	r, size := utf8.DecodeRuneInString(marker)
	if r == utf8.RuneError || size != len(marker) {
		return fmt.Errorf("marker %q: must be a single rune", marker)
	}
	if w := narrow.RuneWidth(r); w != 1 {
		return fmt.Errorf("marker %q: display width %d, must be 1", marker, w)
	}
	return nil
}

func paletteFromHex(hex string) (uint8, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0, fmt.Errorf("marker color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return terminal.Nearest256(terminal.RGB{R: r, G: g, B: b}), nil
}

// MarkerFg returns the palette index used for the marker glyph
func (q *Quantizer) MarkerFg() uint8 { return q.markerFg }

// Quantize maps every pixel to its nearest palette background; alpha is ignored.
// The highlighted cell, if inside the grid, carries the marker.
func (q *Quantizer) Quantize(buf raster.PixelBuffer, hl *HighlightSpot) (*Frame, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("quantize: %w", err)
	}

	f := &q.frame
	n := buf.Width * buf.Height
	if cap(f.Cells) < n {
		f.Cells = make([]Cell, n)
	}
	f.Cells = f.Cells[:n]
	f.Width, f.Height = buf.Width, buf.Height
	f.Marker, f.MarkerFg = q.marker, q.markerFg

	pix := buf.Pix
	for i := range f.Cells {
		o := i * 4
		f.Cells[i] = Cell{Bg: terminal.Nearest256(terminal.RGB{R: pix[o], G: pix[o+1], B: pix[o+2]})}
	}

	if hl != nil {
		x, y := hl.Cell()
		if x >= 0 && x < f.Width && y >= 0 && y < f.Height {
			f.Cells[y*f.Width+x].Marker = true
		}
	}
	return f, nil
}

// Render quantizes buf and returns the encoded frame text
func (q *Quantizer) Render(buf raster.PixelBuffer, hl *HighlightSpot) ([]byte, error) {
	f, err := q.Quantize(buf, hl)
	if err != nil {
		return nil, err
	}
	q.text = f.AppendText(q.text[:0])
	return q.text, nil
}
