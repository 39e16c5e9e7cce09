package charts

import (
	"fmt"
	"image/color"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotutil"
)

var (
	DefaultBarColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	TrendColor      = colornames.Red
)

// Named resolves an SVG 1.1 colour name such as "navy" or "Orange".
func Named(name string) (color.Color, error) {
	c, ok := colornames.Map[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown colour name %q", name)
	}
	return c, nil
}

// Ranked returns n colours sampled evenly from a continuous colormap,
// lowest rank first.
func Ranked(n int) []color.Color {
	cmap := moreland.Kindlmann()
	cmap.SetMin(0)
	cmap.SetMax(1)

	colors := make([]color.Color, n)
	for i := range colors {
		v := 0.5
		if n > 1 {
			v = float64(i) / float64(n-1)
		}
		c, err := cmap.At(v)
		if err != nil {
			c = DefaultBarColor
		}
		colors[i] = c
	}
	return colors
}

// SeriesColor cycles through the plotutil default palette.
func SeriesColor(i int) color.Color {
	return plotutil.Color(i)
}
