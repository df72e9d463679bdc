package stripalpha

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Normalize returns img as a non-premultiplied 4 channel image.
// Inputs without an alpha channel come out with A=255 everywhere.
// An *image.NRGBA is returned as is and must be treated as read-only.
func Normalize(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Copy(dst, b.Min, img, b, draw.Src, nil)
	return dst
}

// Composite flattens img onto a solid background.
//
// Every pixel is blended as (1-a)*bg + a*c with a = A/255 and written with
// A=255. Fully transparent pixels take the background color exactly.
// The result has the same bounds as img; img is not modified.
func Composite(img image.Image, bg Color) *image.NRGBA {
	src := Normalize(img)
	b := src.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := src.PixOffset(x, y)
			o := out.PixOffset(x, y)
			p := src.Pix[i : i+4 : i+4]
			q := out.Pix[o : o+4 : o+4]
			q[3] = 255
			if p[3] == 0 {
				q[0], q[1], q[2] = bg.R, bg.G, bg.B
				continue
			}
			a := float64(p[3]) / 255.0
			q[0] = blend(p[0], bg.R, a)
			q[1] = blend(p[1], bg.G, a)
			q[2] = blend(p[2], bg.B, a)
		}
	}
	return out
}

func blend(fg, bg uint8, a float64) uint8 {
	v := (1-a)*float64(bg) + a*float64(fg)
	return uint8(max(0, min(255, math.Round(v))))
}
