package charts

import (
	"fmt"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Pie implements the plot.Plotter interface, drawing one slice per value
// counter-clockwise from three o'clock. Each slice carries its label outside
// the circle and its share of the total inside.
type Pie struct {
	Values []float64
	Labels []string
	Colors []color.Color

	// Radius is the pie radius as a fraction of half the shorter side
	// of the data area.
	Radius float64

	TextStyle text.Style
}

// NewPie returns a pie chart of values
func NewPie(p *plot.Plot, values []float64, labels []string, colors []color.Color) (*Pie, error) {
	if len(values) != len(labels) {
		return nil, errors.Errorf("pie: %d values but %d labels", len(values), len(labels))
	}
	if len(values) > 0 && len(colors) == 0 {
		return nil, errors.New("pie: no colors")
	}
	for _, v := range values {
		if v < 0 {
			return nil, errors.Errorf("pie: negative value %g", v)
		}
	}

	sty := p.Legend.TextStyle
	sty.XAlign = draw.XCenter
	sty.YAlign = draw.YCenter

	return &Pie{
		Values:    values,
		Labels:    labels,
		Colors:    colors,
		Radius:    0.75,
		TextStyle: sty,
	}, nil
}

// Plot implements the Plot method of the plot.Plotter interface
func (pie *Pie) Plot(c draw.Canvas, _ *plot.Plot) {
	if len(pie.Values) == 0 {
		return
	}
	total := floats.Sum(pie.Values)
	if total <= 0 {
		return
	}

	center := vg.Point{
		X: (c.Min.X + c.Max.X) / 2,
		Y: (c.Min.Y + c.Max.Y) / 2,
	}
	r := min(c.Max.X-c.Min.X, c.Max.Y-c.Min.Y) / 2 * vg.Length(pie.Radius)

	start := 0.0
	for i, v := range pie.Values {
		sweep := 2 * math.Pi * v / total

		var slice vg.Path
		slice.Move(center)
		slice.Arc(center, r, start, sweep)
		slice.Close()
		c.SetColor(pie.Colors[i%len(pie.Colors)])
		c.Fill(slice)

		mid := start + sweep/2
		label := pie.TextStyle
		if math.Cos(mid) >= 0 {
			label.XAlign = draw.XLeft
		} else {
			label.XAlign = draw.XRight
		}
		c.FillText(label, polar(center, r*1.1, mid), pie.Labels[i])
		c.FillText(pie.TextStyle, polar(center, r*0.6, mid), fmt.Sprintf("%.1f%%", 100*v/total))

		start += sweep
	}
}

func polar(center vg.Point, r vg.Length, angle float64) vg.Point {
	return vg.Point{
		X: center.X + r*vg.Length(math.Cos(angle)),
		Y: center.Y + r*vg.Length(math.Sin(angle)),
	}
}
