package hexcolor

import (
	"fmt"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var named = map[string]color.NRGBA{
	"black": {0, 0, 0, 255},
	"white": {255, 255, 255, 255},
	"red":   {255, 0, 0, 255},
	"green": {0, 128, 0, 255},
	"blue":  {0, 0, 255, 255},
	"gray":  {128, 128, 128, 255},
	"grey":  {128, 128, 128, 255},
}

// Parse accepts "#RGB", "#RRGGBB", the same without '#', and a few CSS names.
func Parse(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := named[s]; ok {
		return c, nil
	}
	h := "#" + strings.TrimPrefix(s, "#")
	// colorful.Hex ignores trailing input.
	if len(h) != 4 && len(h) != 7 {
		return color.NRGBA{}, fmt.Errorf("hexcolor: invalid color %q", s)
	}
	c, err := colorful.Hex(h)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("hexcolor: invalid color %q: %w", s, err)
	}
	return toNRGBA(c, 255), nil
}

// Format renders c as "#RRGGBB", dropping alpha.
func Format(c color.NRGBA) string {
	return strings.ToUpper(fromNRGBA(c).Hex())
}

// Lerp interpolates between a and b in RGB, t in [0,1].
func Lerp(a, b color.NRGBA, t float64) color.NRGBA {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	alpha := uint8(float64(a.A) + (float64(b.A)-float64(a.A))*t + 0.5)
	return toNRGBA(fromNRGBA(a).BlendRgb(fromNRGBA(b), t), alpha)
}

func fromNRGBA(c color.NRGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func toNRGBA(c colorful.Color, alpha uint8) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}
}
