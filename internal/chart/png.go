package chart

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 360

	minWidth  = 120
	minHeight = 90

	// At 72 dpi one point is one pixel, so width and height are in pixels.
	dpi = 72

	maxTrendTicks = 6
)

var (
	colorAxis = color.RGBA{0x6b, 0x72, 0x80, 0xff}
	colorBar  = color.RGBA{0x36, 0xa2, 0xeb, 0xff}
	colorLine = color.RGBA{0xff, 0x9f, 0x40, 0xff}
)

// RenderPNG draws s as a bar or line chart. An empty series renders an empty
// frame with a "No data" caption rather than failing.
func RenderPNG(s Series, width, height int) ([]byte, error) {
	if width < minWidth || height < minHeight {
		return nil, fmt.Errorf("chart size %dx%d too small", width, height)
	}

	p := plot.New()
	p.Title.Text = s.Name
	if s.Unit != "" {
		p.Title.Text = fmt.Sprintf("%s (%s)", s.Name, s.Unit)
	}

	var err error
	switch {
	case len(s.Points) == 0:
		err = addNoData(p)
	case s.Kind == KindTrend:
		err = addTrend(p, s.Points)
	default:
		err = addBars(p, s.Points)
	}
	if err != nil {
		return nil, fmt.Errorf("plot %s: %w", s.Name, err)
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Points(float64(width)), vg.Points(float64(height))),
		vgimg.UseDPI(dpi),
	)
	p.Draw(draw.New(c))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func addBars(p *plot.Plot, points []Point) error {
	values := make(plotter.Values, len(points))
	labels := make([]string, len(points))
	for i, pt := range points {
		values[i] = pt.Value
		labels[i] = pt.Label
	}

	bars, err := plotter.NewBarChart(values, vg.Points(36))
	if err != nil {
		return err
	}
	bars.Color = colorBar
	bars.LineStyle.Width = 0

	p.Add(plotter.NewGrid(), bars)
	p.NominalX(labels...)
	return nil
}

func addTrend(p *plot.Plot, points []Point) error {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(i)
		xys[i].Y = pt.Value
	}

	line, dots, err := plotter.NewLinePoints(xys)
	if err != nil {
		return err
	}
	line.Color = colorLine
	dots.Color = colorLine
	dots.Shape = draw.CircleGlyph{}

	p.Add(plotter.NewGrid(), line, dots)
	p.X.Tick.Marker = trendTicks(points)
	return nil
}

// trendTicks labels at most maxTrendTicks evenly spaced dates.
func trendTicks(points []Point) plot.ConstantTicks {
	stride := (len(points) + maxTrendTicks - 1) / maxTrendTicks
	if stride < 1 {
		stride = 1
	}
	ticks := make(plot.ConstantTicks, 0, maxTrendTicks)
	for i := 0; i < len(points); i += stride {
		ticks = append(ticks, plot.Tick{Value: float64(i), Label: points[i].Label})
	}
	return ticks
}

func addNoData(p *plot.Plot) error {
	caption, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: 0.5, Y: 0.5}},
		Labels: []string{"No data"},
	})
	if err != nil {
		return err
	}
	caption.TextStyle[0].Color = colorAxis

	p.Add(caption)
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	return nil
}
