package charts

import (
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"example.com/backstage/services/telematics/internal/models"
)

var (
	green      = color.RGBA{R: 0, G: 128, B: 0, A: 255}
	orange     = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	red        = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	gray       = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	blue       = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	lightBlue  = color.RGBA{R: 173, G: 216, B: 230, A: 255}
	yellow     = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	darkRed    = color.RGBA{R: 139, G: 0, B: 0, A: 255}
	steelBlue  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	skyBlue    = color.NRGBA{R: 135, G: 206, B: 235, A: 178}
	gold       = color.NRGBA{R: 255, G: 215, B: 0, A: 178}
	lightCoral = color.NRGBA{R: 240, G: 128, B: 128, A: 178}
	wheat      = color.NRGBA{R: 245, G: 222, B: 179, A: 128}
)

// stateColors maps vehicle states to their pie slice colour
var stateColors = map[models.VehicleState]color.Color{
	models.StateNormal:      green,
	models.StateWarning:     orange,
	models.StateCritical:    red,
	models.StateOffline:     gray,
	models.StateMaintenance: blue,
}

// severityColors are assigned to the severity bars in ascending order
var severityColors = []color.Color{green, yellow, orange, red, darkRed}

func stateColor(state models.VehicleState) color.Color {
	if c, ok := stateColors[state]; ok {
		return c
	}
	return lightBlue
}

// paletteColors samples n colours from a colour map
func paletteColors(cm palette.ColorMap, n int) []color.Color {
	// sampling a single colour divides by n-1
	return cm.Palette(max(n, 2)).Colors()[:max(n, 0)]
}

// colorScale maps values onto cm, stretched over the range of vals
func colorScale(cm palette.ColorMap, vals []float64) (func(float64) color.Color, float64, float64) {
	lo, hi := floats.Min(vals), floats.Max(vals)
	if hi <= lo {
		hi = lo + 1
	}
	cm.SetMax(hi)
	cm.SetMin(lo)

	return func(v float64) color.Color {
		c, err := cm.At(v)
		if err != nil {
			return color.Black
		}
		return c
	}, lo, hi
}

// swatch is a legend thumbnail filled with a single colour
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

// annotation draws boxed text at a position relative to the data area,
// (0,0) being the bottom left corner and (1,1) the top right.
type annotation struct {
	Text      string
	X, Y      float64
	TextStyle text.Style
	Fill      color.Color
}

func newAnnotation(p *plot.Plot, txt string, x, y float64) *annotation {
	sty := p.Legend.TextStyle
	sty.XAlign = draw.XLeft
	sty.YAlign = draw.YTop
	return &annotation{Text: txt, X: x, Y: y, TextStyle: sty, Fill: wheat}
}

func (a *annotation) Plot(c draw.Canvas, _ *plot.Plot) {
	pt := vg.Point{
		X: c.Min.X + vg.Length(a.X)*(c.Max.X-c.Min.X),
		Y: c.Min.Y + vg.Length(a.Y)*(c.Max.Y-c.Min.Y),
	}

	if a.Fill != nil {
		pad := a.TextStyle.Font.Size / 3
		w := a.TextStyle.Width(a.Text)
		h := a.TextStyle.Height(a.Text)
		c.FillPolygon(a.Fill, []vg.Point{
			{X: pt.X - pad, Y: pt.Y + pad},
			{X: pt.X + w + pad, Y: pt.Y + pad},
			{X: pt.X + w + pad, Y: pt.Y - h - pad},
			{X: pt.X - pad, Y: pt.Y - h - pad},
		})
	}
	c.FillText(a.TextStyle, pt, a.Text)
}
