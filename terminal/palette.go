package terminal

// RGB represents a 24-bit color
type RGB struct {
	R, G, B uint8
}

// Named palette indices used as defaults
const (
	P256Black uint8 = 16  // (0,0,0)
	P256Red   uint8 = 196 // (5,0,0)
	P256White uint8 = 231 // (5,5,5)
)

// Color cube values for 6x6x6 palette (indices 16-231)
// Levels: 0, 95, 135, 175, 215, 255
var cubeValues = [6]uint8{0, 95, 135, 175, 215, 255}

// cubeIndex maps 0-255 to nearest cube level, ties resolve to the lower level
var cubeIndex [256]uint8

const (
	cubeStart      = 16
	grayscaleStart = 232 // 232-255 = 24 shades, level 8+10i
	grayscaleSteps = 24
)

// ansi16 holds the xterm defaults for indices 0-15
var ansi16 = [16]RGB{
	{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
	{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
	{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

func init() {
	for i := 0; i < 256; i++ {
		best := 0
		bestDist := sq(i - int(cubeValues[0]))
		for j := 1; j < 6; j++ {
			if d := sq(i - int(cubeValues[j])); d < bestDist {
				bestDist = d
				best = j
			}
		}
		cubeIndex[i] = uint8(best)
	}
}

func sq(x int) int { return x * x }

func grayLevel(step int) int { return 8 + 10*step }

// Nearest256 returns the palette index in 16-255 with minimum squared Euclidean
// distance to c. Ties resolve to the lower index. Indices 0-15 are skipped since
// their rendering is theme-dependent.
func Nearest256(c RGB) uint8 {
	r, g, b := int(c.R), int(c.G), int(c.B)

	// Cube distance is separable: nearest level per channel is the global cube optimum
	ri, gi, bi := cubeIndex[c.R], cubeIndex[c.G], cubeIndex[c.B]
	cubeDist := sq(r-int(cubeValues[ri])) + sq(g-int(cubeValues[gi])) + sq(b-int(cubeValues[bi]))
	cube := uint8(cubeStart + 36*int(ri) + 6*int(gi) + int(bi))

	// Gray distance is convex in level: check the steps around the channel mean
	sum := r + g + b
	center := (sum/3 - 8) / 10
	grayBest, grayDist := -1, 0
	for s := center - 1; s <= center+1; s++ {
		if s < 0 || s >= grayscaleSteps {
			continue
		}
		l := grayLevel(s)
		d := sq(r-l) + sq(g-l) + sq(b-l)
		if grayBest < 0 || d < grayDist {
			grayBest, grayDist = s, d
		}
	}

	if grayBest >= 0 && grayDist < cubeDist {
		return uint8(grayscaleStart + grayBest)
	}
	return cube
}

// Palette returns the RGB value of a 256-color palette index
func Palette(idx uint8) RGB {
	switch {
	case idx < cubeStart:
		return ansi16[idx]
	case idx < grayscaleStart:
		i := int(idx) - cubeStart
		return RGB{cubeValues[i/36], cubeValues[i/6%6], cubeValues[i%6]}
	default:
		l := uint8(grayLevel(int(idx) - grayscaleStart))
		return RGB{l, l, l}
	}
}
