// Package render maps resampled pixel buffers onto terminal cells and encodes
// them as escape-sequence frames.
package render

import (
	"math"

	"github.com/lixenwraith/termraster/terminal"
)

// HighlightSpot is an emphasized cell in grid coordinates
type HighlightSpot struct {
	X, Y float64
}

// Cell rounds the spot to the grid cell it marks
func (h HighlightSpot) Cell() (x, y int) {
	return int(math.Round(h.X)), int(math.Round(h.Y))
}

// Cell is one quantized terminal cell
type Cell struct {
	Bg     uint8 // 256-palette background index
	Marker bool  // draw the marker glyph over Bg
}

// Frame is a full grid of quantized cells, row-major
type Frame struct {
	Width    int
	Height   int
	Cells    []Cell
	Marker   string // marker glyph
	MarkerFg uint8  // marker foreground palette index
}

// bytesPerCell estimates encoded size: ESC[48;5;NNNm plus the fill
const bytesPerCell = 12

// At returns the cell at (x, y)
func (f *Frame) At(x, y int) Cell {
	return f.Cells[y*f.Width+x]
}

// AppendText encodes the frame: one background sequence per cell followed by a
// space, or by the marker glyph in its foreground color. Rows are not separated;
// the terminal wraps at Width. The encoding ends with an SGR reset.
func (f *Frame) AppendText(dst []byte) []byte {
	if need := len(f.Cells)*bytesPerCell + 8; cap(dst)-len(dst) < need {
		grown := make([]byte, len(dst), len(dst)+need)
		copy(grown, dst)
		dst = grown
	}

	for _, c := range f.Cells {
		dst = terminal.AppendBg256(dst, c.Bg)
		if c.Marker {
			dst = terminal.AppendFg256(dst, f.MarkerFg)
			dst = append(dst, f.Marker...)
			dst = terminal.AppendFgReset(dst)
			continue
		}
		dst = append(dst, ' ')
	}
	return terminal.AppendReset(dst)
}
