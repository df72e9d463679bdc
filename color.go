package stripalpha

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an opaque background color.
type Color struct {
	R, G, B uint8
}

// Black is the default background.
var Black = Color{}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// FromColorful converts c to 8 bit channels, clamping out of gamut values.
func FromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

// ParseColor accepts "#RRGGBB", "RRGGBB" or three integers separated by
// commas and/or whitespace. Integers wrap modulo 256, so "300, -10, 0"
// is (44, 246, 0).
func ParseColor(s string) (Color, error) {
	v := strings.TrimSpace(s)
	if strings.HasPrefix(v, "#") || isHex6(v) {
		return parseHex(v)
	}

	fields := strings.Fields(strings.ReplaceAll(v, ",", " "))
	if len(fields) != 3 {
		return Color{}, fmt.Errorf("%w: %q: want 3 values, got %d", ErrInvalidColor, s, len(fields))
	}
	var ch [3]uint8
	mask := big.NewInt(255)
	for i, f := range fields {
		n, ok := new(big.Int).SetString(f, 10)
		if !ok {
			return Color{}, fmt.Errorf("%w: %q: %q is not an integer", ErrInvalidColor, s, f)
		}
		// two's complement AND, so -10 wraps to 246
		ch[i] = uint8(n.And(n, mask).Uint64())
	}
	return Color{R: ch[0], G: ch[1], B: ch[2]}, nil
}

// MustParseColor is like ParseColor but panics on error.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHex(v string) (Color, error) {
	digits := strings.TrimPrefix(v, "#")
	if !isHex6(digits) {
		return Color{}, fmt.Errorf("%w: %q: want 6 hex digits", ErrInvalidColor, v)
	}
	c, err := colorful.Hex("#" + strings.ToLower(digits))
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, v, err)
	}
	return FromColorful(c), nil
}

func isHex6(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
