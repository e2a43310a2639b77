// Package raster holds the RGBA pixel buffer exchanged between frame sources
// and the terminal pipeline, and the resampler that fits it to the grid.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
)

// ErrMalformedBuffer reports a pixel slice whose length disagrees with its dimensions
var ErrMalformedBuffer = errors.New("malformed pixel buffer")

// PixelBuffer is a non-premultiplied RGBA8 raster, row-major with stride Width*4.
// Zero width or height is a valid empty buffer.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// New allocates a zeroed buffer
func New(width, height int) PixelBuffer {
	if width <= 0 || height <= 0 {
		return PixelBuffer{Width: max(width, 0), Height: max(height, 0)}
	}
	return PixelBuffer{Width: width, Height: height, Pix: make([]byte, width*height*4)}
}

// FromImage materializes any image into a new buffer
func FromImage(img image.Image) PixelBuffer {
	b := img.Bounds()
	buf := New(b.Dx(), b.Dy())
	if buf.Empty() {
		return buf
	}
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < buf.Height; y++ {
			o := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(buf.Pix[y*buf.Width*4:(y+1)*buf.Width*4], src.Pix[o:o+buf.Width*4])
		}
		return buf
	}
	draw.Draw(buf.NRGBA(), image.Rect(0, 0, buf.Width, buf.Height), img, b.Min, draw.Src)
	return buf
}

// Validate checks the length invariant
func (b PixelBuffer) Validate() error {
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrMalformedBuffer, b.Width, b.Height)
	}
	if want := b.Width * b.Height * 4; len(b.Pix) != want {
		return fmt.Errorf("%w: %dx%d needs %d bytes, have %d", ErrMalformedBuffer, b.Width, b.Height, want, len(b.Pix))
	}
	return nil
}

// Empty reports a zero-area buffer
func (b PixelBuffer) Empty() bool {
	return b.Width == 0 || b.Height == 0
}

// Offset returns the index of pixel (x, y) in Pix
func (b PixelBuffer) Offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// NRGBA views the buffer as an image without copying
func (b PixelBuffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Clone returns a deep copy
func (b PixelBuffer) Clone() PixelBuffer {
	c := PixelBuffer{Width: b.Width, Height: b.Height}
	if b.Pix != nil {
		c.Pix = make([]byte, len(b.Pix))
		copy(c.Pix, b.Pix)
	}
	return c
}
