package utils

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/setanarut/stripalpha"
)

// Background is either a fixed color or a color picked per image.
//
// An automatic background extracts a palette of Colors entries with Method,
// sorts it by brightness and takes the darkest entry. With Colors <= 1 that
// is simply the most dominant color. The pick is snapped to the nearest
// fully opaque color present in the image.
type Background struct {
	Color  stripalpha.Color
	Auto   bool
	Method PaletteMethod
	Colors int
}

// Fixed returns a Background that always resolves to c.
func Fixed(c stripalpha.Color) Background {
	return Background{Color: c}
}

// ParseBackground accepts "dominant", "kmeans", optionally followed by
// ":N" for an N color palette (case-insensitive), or anything
// stripalpha.ParseColor accepts.
func ParseBackground(s string) (Background, error) {
	name, count, hasCount := strings.Cut(strings.ToLower(strings.TrimSpace(s)), ":")
	var method PaletteMethod
	switch name {
	case "dominant":
		method = PaletteMethodDominantColor
	case "kmeans":
		method = PaletteMethodKMeans
	default:
		c, err := stripalpha.ParseColor(s)
		if err != nil {
			return Background{}, err
		}
		return Fixed(c), nil
	}

	n := 1
	if hasCount {
		v, err := strconv.Atoi(count)
		if err != nil || v < 1 || v > 64 {
			return Background{}, fmt.Errorf("%w: %q: palette size must be 1-64", stripalpha.ErrInvalidColor, s)
		}
		n = v
	}
	return Background{Auto: true, Method: method, Colors: n}, nil
}

// Resolve returns the color to composite img against. An automatic
// background falls back to Color when img has no opaque pixels.
func (b Background) Resolve(img image.Image) stripalpha.Color {
	if !b.Auto {
		return b.Color
	}
	present := opaqueColors(img)
	if len(present) == 0 {
		return b.Color
	}
	p := ExtractPalette(img, max(1, b.Colors), b.Method)
	if len(p) == 0 {
		return b.Color
	}
	SortPaletteByBrightness(p)
	return nearest(present, p[0])
}

func (b Background) String() string {
	if !b.Auto {
		return b.Color.String()
	}
	if b.Colors > 1 {
		return fmt.Sprintf("%s:%d", b.Method, b.Colors)
	}
	return b.Method.String()
}

// opaqueColors returns the distinct fully opaque colors of img.
func opaqueColors(img image.Image) []stripalpha.Color {
	src := stripalpha.Normalize(img)
	bounds := src.Bounds()
	seen := make(map[stripalpha.Color]struct{})
	var out []stripalpha.Color
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := src.NRGBAAt(x, y)
			if px.A != 255 {
				continue
			}
			c := stripalpha.Color{R: px.R, G: px.G, B: px.B}
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}
	return out
}

// nearest returns the entry of present closest to target in Lab.
func nearest(present []stripalpha.Color, target colorful.Color) stripalpha.Color {
	best := present[0]
	bestD := -1.0
	for _, c := range present {
		if d := c.Colorful().DistanceLab(target); bestD < 0 || d < bestD {
			best, bestD = c, d
		}
	}
	return best
}
