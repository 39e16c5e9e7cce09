package charts

import (
	"image/color"

	"gonum.org/v1/plot/vg"
)

// Kind selects how a Figure is drawn.
type Kind int

const (
	KindBar Kind = iota
	KindHorizontalBar
	KindLine
)

func (k Kind) String() string {
	switch k {
	case KindBar:
		return "bar"
	case KindHorizontalBar:
		return "hbar"
	case KindLine:
		return "line"
	}
	return "unknown"
}

// Bar is one category of a bar chart. Index 0 is drawn first: leftmost, or bottom for
// horizontal charts.
type Bar struct {
	Label      string
	Value      float64
	Color      color.Color // nil uses the default bar colour
	Annotation string      // drawn at the end of the bar when set
}

type Point struct {
	X, Y       float64
	Annotation string
}

// Series is a polyline. On bar charts X is the bar index, so a series overlays the bars.
type Series struct {
	Name    string
	Points  []Point
	Color   color.Color
	Dashed  bool
	Markers bool
}

// LegendEntry adds a colour swatch to the legend without drawing anything on the axes.
type LegendEntry struct {
	Label string
	Color color.Color
}

// Figure is a backend-neutral description of one chart.
type Figure struct {
	Title  string
	XLabel string
	YLabel string
	Kind   Kind

	Bars   []Bar
	Series []Series
	Legend []LegendEntry

	Width  vg.Length // zero picks a size from Kind and the number of bars
	Height vg.Length
}
