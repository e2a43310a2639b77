// Command imgterm prints an image once as 256-color terminal cells using the
// termraster pipeline.
//
// Usage examples:
//
//	imgterm photo.jpg
//	imgterm --cols 120 --contrast 20 photo.webp
//	imgterm --pick --copy
//	imgterm -o out.ans --rows 40 diagram.bmp
package main

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/pflag"
	"github.com/sqweek/dialog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/term"

	"github.com/lixenwraith/termraster/config"
	"github.com/lixenwraith/termraster/render"
)

func main() {
	def := config.Default()
	var (
		opts        convertOptions
		marker      string
		markerColor string
		mark        string
		output      string
		copyText    bool
		pick        bool
	)

	pflag.IntVar(&opts.cols, "cols", 0, "Output width in cells (0 = terminal width)")
	pflag.IntVar(&opts.rows, "rows", 0, "Output height in cells (0 = keep aspect)")
	pflag.Float64Var(&opts.aspect, "aspect", def.Render.CharAspect, "Cell width/height ratio")
	pflag.StringVarP(&opts.kernel, "kernel", "k", def.Render.Kernel, "Resampling kernel: nearest, approx, bilinear, catmullrom")
	pflag.Float64Var(&opts.brightness, "brightness", 0, "Brightness change in percent (-100..100)")
	pflag.Float64Var(&opts.contrast, "contrast", 0, "Contrast change in percent (-100..100)")
	pflag.Float64Var(&opts.gamma, "gamma", 1, "Gamma correction")
	pflag.StringVar(&marker, "marker", def.Render.Marker, "Highlight glyph")
	pflag.StringVar(&markerColor, "marker-color", def.Render.MarkerColor, "Highlight color (hex)")
	pflag.StringVar(&mark, "mark", "", "Highlight cell as col,row (0-based)")
	pflag.StringVarP(&output, "output", "o", "", "Write escape text to a file instead of stdout")
	pflag.BoolVar(&copyText, "copy", false, "Also copy the escape text to the clipboard")
	pflag.BoolVar(&pick, "pick", false, "Choose the image with a file dialog")
	pflag.Usage = printUsage
	pflag.Parse()

	path, err := imagePath(pick)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if mark != "" {
		spot, err := parseMark(mark)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		opts.mark = spot
	}
	if opts.cols == 0 && opts.rows == 0 {
		opts.cols = terminalWidth()
	}

	q, err := render.NewQuantizer(render.Options{Marker: marker, MarkerColor: markerColor})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	img, err := loadImage(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
		os.Exit(1)
	}
	b := img.Bounds()
	fmt.Fprintf(os.Stderr, "Image: %s (%dx%d)\n", path, b.Dx(), b.Dy())

	text, err := convert(img, opts, q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := writeOutput(output, text); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
	if copyText {
		if err := clipboard.WriteAll(string(text)); err != nil {
			fmt.Fprintf(os.Stderr, "Clipboard unavailable: %v\n", err)
		}
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: imgterm [options] <image>")
	fmt.Fprintln(os.Stderr, "\nSupported formats: PNG, JPEG, GIF, BMP, WebP")
	fmt.Fprintln(os.Stderr, "\nOptions:")
	pflag.PrintDefaults()
}

// imagePath takes the positional argument, or asks a file dialog with --pick
func imagePath(pick bool) (string, error) {
	if pflag.NArg() > 0 {
		return pflag.Arg(0), nil
	}
	if !pick {
		printUsage()
		return "", errors.New("no image given")
	}
	path, err := dialog.File().Filter("Images", "png", "jpg", "jpeg", "gif", "bmp", "webp").Load()
	if err != nil {
		return "", fmt.Errorf("file dialog: %w", err)
	}
	return path, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// parseMark reads "col,row"
func parseMark(s string) (*render.HighlightSpot, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("mark %q: want col,row", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return nil, fmt.Errorf("mark %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return nil, fmt.Errorf("mark %q: %w", s, err)
	}
	return &render.HighlightSpot{X: x, Y: y}, nil
}

// terminalWidth falls back to 80 columns when stdout is not a terminal
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

func writeOutput(path string, text []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(text)
		return err
	}
	return os.WriteFile(path, text, 0o644)
}
