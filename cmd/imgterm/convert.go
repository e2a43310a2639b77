package main

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/adjust"

	"github.com/lixenwraith/termraster/raster"
	"github.com/lixenwraith/termraster/render"
)

// convertOptions controls one image-to-text conversion
type convertOptions struct {
	cols       int // 0 derives from rows, or the terminal width
	rows       int // 0 keeps the image aspect
	aspect     float64
	kernel     string
	brightness float64 // -100..100 percent
	contrast   float64 // -100..100 percent
	gamma      float64 // 1 is unchanged
	mark       *render.HighlightSpot
}

// gridFor sizes the cell grid. A cell is aspect times as wide as it is tall,
// so an image of iw x ih pixels spans rows = cols * ih/iw * aspect.
func gridFor(iw, ih, cols, rows int, aspect float64) (int, int) {
	if iw <= 0 || ih <= 0 {
		return 0, 0
	}
	switch {
	case cols > 0 && rows > 0:
		return cols, rows
	case cols > 0:
		return cols, max(1, int(math.Round(float64(cols)*float64(ih)/float64(iw)*aspect)))
	case rows > 0:
		return max(1, int(math.Round(float64(rows)*float64(iw)/float64(ih)/aspect))), rows
	}
	return 0, 0
}

// adjustImage applies the tone options; zero values leave the image as is
func adjustImage(img image.Image, opts convertOptions) image.Image {
	if opts.brightness != 0 {
		img = adjust.Brightness(img, opts.brightness/100)
	}
	if opts.contrast != 0 {
		img = adjust.Contrast(img, opts.contrast/100)
	}
	if opts.gamma > 0 && opts.gamma != 1 {
		img = adjust.Gamma(img, opts.gamma)
	}
	return img
}

// convert renders img as escape text, one line per grid row
func convert(img image.Image, opts convertOptions, q *render.Quantizer) ([]byte, error) {
	b := img.Bounds()
	cols, rows := gridFor(b.Dx(), b.Dy(), opts.cols, opts.rows, opts.aspect)
	if cols == 0 || rows == 0 {
		return nil, fmt.Errorf("image %dx%d: nothing to render", b.Dx(), b.Dy())
	}

	kernel, err := raster.KernelByName(opts.kernel)
	if err != nil {
		return nil, err
	}
	cells, err := raster.NewResampler(kernel).Resize(adjustImage(img, opts), cols, rows)
	if err != nil {
		return nil, err
	}
	frame, err := q.Quantize(cells, opts.mark)
	if err != nil {
		return nil, err
	}

	// Emit each row as its own frame so output does not depend on the
	// terminal wrapping at exactly cols
	var out []byte
	for y := 0; y < frame.Height; y++ {
		row := render.Frame{
			Width:    frame.Width,
			Height:   1,
			Cells:    frame.Cells[y*frame.Width : (y+1)*frame.Width],
			Marker:   frame.Marker,
			MarkerFg: frame.MarkerFg,
		}
		out = row.AppendText(out)
		out = append(out, '\n')
	}
	return out, nil
}
