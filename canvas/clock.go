// Package canvas is the software raster source: it draws the current time on
// an opaque black canvas with the Go Mono font.
package canvas

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/lixenwraith/termraster/raster"
)

const (
	// TimeLayout is the rendered clock text
	TimeLayout = "15:04:05.000"

	refSize     = 100 // measurement size for auto-fit
	fillWidth   = 0.9 // text width share of the canvas
	maxHeightPx = 0.5 // text size cap relative to canvas height
	minFontPx   = 1.0
)

// Clock renders HH:MM:SS.mmm centered in white. Frame reuses its canvas, so a
// returned buffer is valid until the next call.
type Clock struct {
	mu     sync.Mutex
	font   *opentype.Font
	fontPx float64 // fixed size, 0 auto-fits
	now    func() time.Time
	faces  map[int]font.Face
	img    *image.RGBA
}

// NewClock parses Go Mono; fontPx <= 0 auto-fits the text to the canvas
func NewClock(fontPx float64) (*Clock, error) {
	f, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse clock font: %w", err)
	}
	return &Clock{
		font:   f,
		fontPx: max(fontPx, 0),
		now:    time.Now,
		faces:  make(map[int]font.Face),
	}, nil
}

// SetFontPx changes the text size; <= 0 returns to auto-fit
func (c *Clock) SetFontPx(px float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fontPx = max(px, 0)
}

// Frame draws the current time on a width x height canvas
func (c *Clock) Frame(_ context.Context, width, height int) (raster.PixelBuffer, error) {
	if width < 0 || height < 0 {
		return raster.PixelBuffer{}, fmt.Errorf("clock canvas %dx%d: negative dimension", width, height)
	}
	if width == 0 || height == 0 {
		return raster.PixelBuffer{Width: width, Height: height}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.img == nil || c.img.Rect.Dx() != width || c.img.Rect.Dy() != height {
		c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	draw.Draw(c.img, c.img.Rect, image.Black, image.Point{}, draw.Src)

	text := c.now().Format(TimeLayout)
	face, err := c.face(c.sizeFor(text, width, height))
	if err != nil {
		return raster.PixelBuffer{}, err
	}

	adv := font.MeasureString(face, text)
	m := face.Metrics()
	x := (fixed.I(width) - adv) / 2
	y := (fixed.I(height) + m.Ascent - m.Descent) / 2

	d := font.Drawer{
		Dst:  c.img,
		Src:  image.White,
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: y},
	}
	d.DrawString(text)

	// Opaque canvas: premultiplied and straight RGBA are identical
	return raster.PixelBuffer{Width: width, Height: height, Pix: c.img.Pix}, nil
}

// sizeFor picks the font size for text on the canvas
func (c *Clock) sizeFor(text string, width, height int) int {
	if c.fontPx > 0 {
		return int(math.Round(c.fontPx))
	}
	ref, err := c.face(refSize)
	if err != nil {
		return int(minFontPx)
	}
	adv := font.MeasureString(ref, text).Ceil()
	if adv <= 0 {
		return int(minFontPx)
	}
	px := refSize * fillWidth * float64(width) / float64(adv)
	px = math.Min(px, maxHeightPx*float64(height))
	return int(math.Max(math.Floor(px), minFontPx))
}

// face returns a cached face for the pixel size
func (c *Clock) face(px int) (font.Face, error) {
	if f, ok := c.faces[px]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    float64(px),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("clock face %dpx: %w", px, err)
	}
	c.faces[px] = f
	return f, nil
}
