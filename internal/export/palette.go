package export

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette returns n evenly spaced hues, so neighbouring placements stay
// distinguishable in plots and reports.
func Palette(n int) []colorful.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]colorful.Color, n)
	for i := range colors {
		hue := 360 * float64(i) / float64(n)
		colors[i] = colorful.Hsl(hue, 0.65, 0.55).Clamped()
	}
	return colors
}

// rgb255 converts a palette colour for APIs that take integer channels.
func rgb255(c colorful.Color) (int, int, int) {
	r, g, b := c.RGB255()
	return int(r), int(g), int(b)
}

// withAlpha returns c as a translucent color.Color for filled polygons.
func withAlpha(c colorful.Color, alpha uint8) color.Color {
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}
}
