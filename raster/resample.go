package raster

import (
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/draw"
)

// kernels maps config names onto x/image interpolators
var kernels = map[string]draw.Interpolator{
	"nearest":    draw.NearestNeighbor,
	"approx":     draw.ApproxBiLinear,
	"bilinear":   draw.BiLinear,
	"catmullrom": draw.CatmullRom,
}

// KernelByName resolves a resampling kernel name
func KernelByName(name string) (draw.Interpolator, error) {
	k, ok := kernels[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown resampling kernel %q", name)
	}
	return k, nil
}

// Resampler scales frames to the terminal grid. The scratch raster and output
// buffer are reallocated only when the target size changes, so a returned
// buffer is valid until the next call. Not safe for concurrent use.
type Resampler struct {
	kernel draw.Interpolator
	scaled *image.RGBA
	out    []byte
	width  int
	height int
}

// NewResampler creates a resampler; nil kernel selects bilinear
func NewResampler(kernel draw.Interpolator) *Resampler {
	if kernel == nil {
		kernel = draw.BiLinear
	}
	return &Resampler{kernel: kernel}
}

// SetKernel swaps the interpolator used by subsequent calls
func (r *Resampler) SetKernel(kernel draw.Interpolator) {
	if kernel != nil {
		r.kernel = kernel
	}
}

// Resize scales src to width x height, stretching each axis independently
func (r *Resampler) Resize(src image.Image, width, height int) (PixelBuffer, error) {
	if width < 0 || height < 0 {
		return PixelBuffer{}, fmt.Errorf("resize target %dx%d: negative dimension", width, height)
	}
	if width == 0 || height == 0 {
		return PixelBuffer{Width: width, Height: height}, nil
	}
	return r.resize(src, width, height), nil
}

// ResizePixels scales an already-decoded buffer through the same path as Resize
func (r *Resampler) ResizePixels(src PixelBuffer, width, height int) (PixelBuffer, error) {
	if width < 0 || height < 0 {
		return PixelBuffer{}, fmt.Errorf("resize target %dx%d: negative dimension", width, height)
	}
	if width == 0 || height == 0 {
		return PixelBuffer{Width: width, Height: height}, nil
	}
	if err := src.Validate(); err != nil {
		return PixelBuffer{}, err
	}
	return r.resize(src.NRGBA(), width, height), nil
}

func (r *Resampler) resize(src image.Image, width, height int) PixelBuffer {
	r.ensure(width, height)
	dst := PixelBuffer{Width: width, Height: height, Pix: r.out}

	sb := src.Bounds()
	if sb.Empty() {
		clear(dst.Pix)
		return dst
	}

	// Identity: exact copy, kernels are not guaranteed to reproduce their input
	if sb.Dx() == width && sb.Dy() == height {
		if n, ok := src.(*image.NRGBA); ok {
			rowLen := width * 4
			for y := 0; y < height; y++ {
				o := n.PixOffset(sb.Min.X, sb.Min.Y+y)
				copy(dst.Pix[y*rowLen:(y+1)*rowLen], n.Pix[o:o+rowLen])
			}
		} else {
			draw.Draw(dst.NRGBA(), dst.NRGBA().Rect, src, sb.Min, draw.Src)
		}
		return dst
	}

	r.kernel.Scale(r.scaled, r.scaled.Rect, src, sb, draw.Src, nil)
	unpremultiply(dst.Pix, r.scaled.Pix)
	return dst
}

// ensure sizes the scratch raster and output buffer
func (r *Resampler) ensure(width, height int) {
	if r.scaled != nil && r.width == width && r.height == height {
		return
	}
	r.scaled = image.NewRGBA(image.Rect(0, 0, width, height))
	r.out = make([]byte, width*height*4)
	r.width, r.height = width, height
}

// unpremultiply converts alpha-premultiplied RGBA to straight alpha
func unpremultiply(dst, src []byte) {
	for i := 0; i+3 < len(src); i += 4 {
		a := uint32(src[i+3])
		switch a {
		case 0xff:
			copy(dst[i:i+4], src[i:i+4])
		case 0:
			dst[i], dst[i+1], dst[i+2], dst[i+3] = 0, 0, 0, 0
		default:
			dst[i] = straight(src[i], a)
			dst[i+1] = straight(src[i+1], a)
			dst[i+2] = straight(src[i+2], a)
			dst[i+3] = uint8(a)
		}
	}
}

// straight divides one premultiplied channel by alpha, clamped for overshooting kernels
func straight(c uint8, a uint32) uint8 {
	return uint8(min((uint32(c)*0xff+a/2)/a, 0xff))
}
