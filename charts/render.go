package charts

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var errNothingToDraw = errors.New("figure has no bars or series")

// Render draws fig and returns it as PNG bytes. Nothing touches the filesystem.
func Render(fig *Figure) ([]byte, error) {
	if len(fig.Bars) == 0 && len(fig.Series) == 0 {
		return nil, errNothingToDraw
	}

	p := plot.New()
	p.Title.Text = fig.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = fig.XLabel
	p.Y.Label.Text = fig.YLabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	var err error
	switch fig.Kind {
	case KindBar, KindHorizontalBar:
		err = addBars(p, fig)
	case KindLine:
	default:
		err = fmt.Errorf("unsupported chart kind %d", fig.Kind)
	}
	if err != nil {
		return nil, err
	}

	for i, s := range fig.Series {
		if err := addSeries(p, s, i); err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Name, err)
		}
	}

	for _, entry := range fig.Legend {
		p.Legend.Add(entry.Label, swatch{color: entry.Color})
	}

	width, height := size(fig)
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create png writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// addBars adds one single-value BarChart per bar so each bar can carry its own colour.
func addBars(p *plot.Plot, fig *Figure) error {
	horizontal := fig.Kind == KindHorizontalBar
	labels := make([]string, len(fig.Bars))
	longest := 0.0

	for i, bar := range fig.Bars {
		labels[i] = bar.Label
		if bar.Value > longest {
			longest = bar.Value
		}

		b, err := plotter.NewBarChart(plotter.Values{bar.Value}, vg.Points(14))
		if err != nil {
			return fmt.Errorf("bar %q: %w", bar.Label, err)
		}
		b.Horizontal = horizontal
		b.XMin = float64(i)
		b.Color = bar.Color
		if b.Color == nil {
			b.Color = DefaultBarColor
		}
		b.LineStyle.Width = vg.Length(0)
		p.Add(b)
	}

	for i, bar := range fig.Bars {
		if bar.Annotation == "" {
			continue
		}
		xy := plotter.XY{X: float64(i), Y: bar.Value}
		if horizontal {
			xy = plotter.XY{X: bar.Value, Y: float64(i)}
		}
		label, err := plotter.NewLabels(plotter.XYLabels{XYs: []plotter.XY{xy}, Labels: []string{bar.Annotation}})
		if err != nil {
			return err
		}
		if horizontal {
			label.Offset = vg.Point{X: vg.Points(3), Y: -vg.Points(3)}
		} else {
			label.Offset = vg.Point{X: -vg.Points(10), Y: vg.Points(3)}
		}
		p.Add(label)
	}

	if longest == 0 {
		longest = 1
	}
	// Leave room for the annotations past the longest bar.
	if horizontal {
		p.NominalY(labels...)
		p.X.Min = 0
		p.X.Max = longest * 1.15
	} else {
		p.NominalX(labels...)
		p.X.Tick.Label.Rotation = 0.8
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
		p.Y.Min = 0
		p.Y.Max = longest * 1.15
	}
	return nil
}

func addSeries(p *plot.Plot, s Series, i int) error {
	xys := make(plotter.XYs, len(s.Points))
	for j, pt := range s.Points {
		xys[j] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	c := s.Color
	if c == nil {
		c = SeriesColor(i)
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	line.Color = c
	line.Width = vg.Points(1.5)
	if s.Dashed {
		line.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	}
	p.Add(line)
	thumbs := []plot.Thumbnailer{line}

	if s.Markers {
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = c
		scatter.GlyphStyle.Radius = vg.Points(3)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
		thumbs = append(thumbs, scatter)
	}
	if s.Name != "" {
		p.Legend.Add(s.Name, thumbs...)
	}

	var annotated plotter.XYLabels
	for _, pt := range s.Points {
		if pt.Annotation == "" {
			continue
		}
		annotated.XYs = append(annotated.XYs, plotter.XY{X: pt.X, Y: pt.Y})
		annotated.Labels = append(annotated.Labels, pt.Annotation)
	}
	if len(annotated.Labels) > 0 {
		labels, err := plotter.NewLabels(annotated)
		if err != nil {
			return err
		}
		labels.Offset = vg.Point{X: -vg.Points(12), Y: vg.Points(6)}
		p.Add(labels)
	}
	return nil
}

func size(fig *Figure) (vg.Length, vg.Length) {
	width, height := fig.Width, fig.Height
	if width == 0 {
		width = 10 * vg.Inch
	}
	if height == 0 {
		height = 6 * vg.Inch
		if fig.Kind == KindHorizontalBar {
			if h := vg.Length(len(fig.Bars)) * vg.Points(22); h > height {
				height = h
			}
		}
	}
	return width, height
}

// swatch is a legend thumbnail filled with a flat colour.
type swatch struct {
	color color.Color
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.color, c.ClipPolygonY(pts))
}
