package stripalpha

import (
	"image"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the alpha channel of an image.
type Stats struct {
	Transparent int // A == 0
	Translucent int // 0 < A < 255
	Opaque      int // A == 255

	MeanAlpha float64
	StdAlpha  float64
}

// Total returns the number of pixels counted.
func (s Stats) Total() int {
	return s.Transparent + s.Translucent + s.Opaque
}

// AlphaStats counts pixels by opacity and computes mean and standard
// deviation of alpha in [0,255].
func AlphaStats(img *image.NRGBA) Stats {
	var s Stats
	b := img.Bounds()
	if b.Empty() {
		return s
	}

	// alpha histogram, fed to MeanStdDev as weights
	var hist [256]float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := img.Pix[img.PixOffset(x, y)+3]
			hist[a]++
			switch a {
			case 0:
				s.Transparent++
			case 255:
				s.Opaque++
			default:
				s.Translucent++
			}
		}
	}

	values := make([]float64, 0, 256)
	weights := make([]float64, 0, 256)
	for a, n := range hist {
		if n == 0 {
			continue
		}
		values = append(values, float64(a))
		weights = append(weights, n)
	}
	s.MeanAlpha, s.StdAlpha = stat.MeanStdDev(values, weights)
	if len(values) == 1 {
		s.StdAlpha = 0
	}
	return s
}
