package charts

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"example.com/backstage/services/telematics/internal/models"
	"example.com/backstage/services/telematics/internal/report"
	"example.com/backstage/services/telematics/internal/stats"
)

const (
	histBins = 15
	topN     = 10
	topMakes = 8
)

type panelFunc func(ds *models.Dataset) (*plot.Plot, error)

// panels lists the chart builders in grid order, row by row
var panels = []panelFunc{
	stateDistribution,
	speedDistribution,
	severityDistribution,
	topDistance,
	anomalyTypes,
	speedVsTemperature,
	fuelDistribution,
	harshEventsVsAnomalies,
	makeDistribution,
	rpmDistribution,
	topAnomalyVehicles,
	geographicDistribution,
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	return p
}

func stateDistribution(ds *models.Dataset) (*plot.Plot, error) {
	p := newPlot("Vehicle State Distribution", "", "")
	p.HideAxes()

	counts := stats.ValueCounts(stats.Project(ds.Vehicles, func(v models.Vehicle) models.VehicleState { return v.State }))
	values := make([]float64, len(counts))
	labels := make([]string, len(counts))
	colors := make([]color.Color, len(counts))
	for i, c := range counts {
		values[i] = float64(c.Count)
		labels[i] = string(c.Value)
		colors[i] = stateColor(c.Value)
	}

	pie, err := NewPie(p, values, labels, colors)
	if err != nil {
		return nil, err
	}
	p.Add(pie)
	return p, nil
}

func speedDistribution(ds *models.Dataset) (*plot.Plot, error) {
	p := newPlot("Average Speed Distribution", "Average Speed (km/h)", "Number of Vehicles")
	return p, histogram(p, report.AvgSpeeds(ds.Vehicles), skyBlue, true)
}

func fuelDistribution(ds *models.Dataset) (*plot.Plot, error) {
	p := newPlot("Current Fuel Level Distribution", "Current Fuel Level (%)", "Number of Vehicles")
	return p, histogram(p, report.FuelLevels(ds.Vehicles), gold, true)
}

func rpmDistribution(ds *models.Dataset) (*plot.Plot, error) {
	p := newPlot("Current RPM Distribution", "Current RPM", "Number of Vehicles")
	rpm := stats.Column(ds.Vehicles, func(v models.Vehicle) float64 { return v.CurrentRPM })
	return p, histogram(p, rpm, lightCoral, false)
}

// histogram adds a 15 bin histogram of vals, optionally marking the mean
// with a dashed vertical line.
func histogram(p *plot.Plot, vals []float64, fill color.Color, markMean bool) error {
	if len(vals) == 0 {
		return nil
	}

	h, err := plotter.NewHist(plotter.Values(vals), histBins)
	if err != nil {
		return errors.Wrapf(err, "%s: histogram", p.Title.Text)
	}
	h.FillColor = fill
	h.LineStyle.Color = color.Black
	h.LineStyle.Width = vg.Points(0.5)
	p.Add(h)

	if !markMean {
		return nil
	}

	top := 0.0
	for _, b := range h.Bins {
		top = math.Max(top, b.Weight)
	}
	mean, _ := stats.Mean(vals)
	line, err := plotter.NewLine(plotter.XYs{{X: mean, Y: 0}, {X: mean, Y: top}})
	if err != nil {
		return errors.Wrapf(err, "%s: mean line", p.Title.Text)
	}
	line.LineStyle.Color = red
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(line)
	p.Legend.Add("Mean", line)
	p.Legend.Top = true
	return nil
}

func severityDistribution(ds *models.Dataset) (*plot.Plot, error) {
	p := newPlot("Anomaly Severity Distribution", "Severity Level", "Number of Anomalies")

	counts := report.Anomalies(ds.Anomalies).BySeverity
	if len(counts) == 0 {
		return p, nil
	}

	var (
		ticks  []plot.Tick
		points plotter.XYs
		labels []string
	)
	for i, c := range counts {
		x := float64(c.Value)
		bar, err := plotter.NewBarChart(plotter.Values{float64(c.Count)}, vg.Points(18))
		if err != nil {
			return nil, errors.Wrap(err, "severity bar")
		}
		bar.XMin = x
		bar.Color = severityColors[i%len(severityColors)]
		bar.LineStyle.Width = 0
		p.Add(bar)

		ticks = append(ticks, plot.Tick{Value: x, Label: strconv.Itoa(c.Value)})
		points = append(points, plotter.XY{X: x, Y: float64(c.Count)})
		labels = append(labels, strconv.Itoa(c.Count))
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)

	values, err := plotter.NewLabels(plotter.XYLabels{XYs: points, Labels: labels})
	if err != nil {
		return nil, errors.Wrap(err, "severity labels")
	}
	for i := range values.TextStyle {
		values.TextStyle[i].XAlign = draw.XCenter
		values.TextStyle[i].YAlign = draw.YBottom
	}
	p.Add(values)
	return p, nil
}

func topDistance(ds *models.Dataset) (*plot.Plot, error) {
	p := newPlot("Top 10 Vehicles by Distance", "Total Distance (km)", "")

	distances := stats.Column(ds.Vehicles, func(v models.Vehicle) float64 { return v.TotalDistance })
	idx := stats.NLargest(distances, topN)
	values := make(plotter.Values, len(idx))
	names := make([]string, len(idx))
	for i, j := range idx {
		v := ds.Vehicles[j]
		values[i] = v.TotalDistance
		names[i] = fmt.Sprintf("%s\n(%s)", v.MakeModel, v.LicensePlate)
	}
	return p, horizontalBars(p, values, names)
}

func anomalyTypes(ds *models.Dataset) (*plot.Plot, error) {
	p := newPlot("Top 10 Anomaly Types", "Number of Occurrences", "")

	counts := stats.ValueCounts(report.AnomalyTypes(ds.Anomalies))
	if len(counts) > topN {
		counts = counts[:topN]
	}
	values := make(plotter.Values, len(counts))
	names := make([]string, len(counts))
	for i, c := range counts {
		values[i] = float64(c.Count)
		names[i] = c.Value
	}
	return p, horizontalBars(p, values, names)
}

// horizontalBars draws values bottom-up, the first value on the lowest row
func horizontalBars(p *plot.Plot, values plotter.Values, names []string) error {
	if len(values) == 0 {
		return nil
	}
	bars, err := plotter.NewBarChart(values, vg.Points(10))
	if err != nil {
		return errors.Wrapf(err, "%s: bars", p.Title.Text)
	}
	bars.Horizontal = true
	bars.Color = steelBlue
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(names...)
	return nil
}

func topAnomalyVehicles(ds *models.Dataset) (*plot.Plot, error) {
	p := newPlot("Top 10 Vehicles by Anomalies", "Vehicle ID", "Total Anomalies")

	counts := stats.Column(ds.Vehicles, func(v models.Vehicle) float64 { return float64(v.TotalAnomalies) })
	idx := stats.NLargest(counts, topN)
	if len(idx) == 0 {
		return p, nil
	}
	values := make(plotter.Values, len(idx))
	names := make([]string, len(idx))
	for i, j := range idx {
		values[i] = counts[j]
		names[i] = "V" + ds.Vehicles[j].ID
	}

	bars, err := plotter.NewBarChart(values, vg.Points(10))
	if err != nil {
		return nil, errors.Wrap(err, "anomaly bars")
	}
	bars.Color = steelBlue
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	return p, nil
}

func makeDistribution(ds *models.Dataset) (*plot.Plot, error) {
	p := newPlot("Vehicle Make Distribution", "", "")
	p.HideAxes()

	counts := makeCounts(ds.Vehicles)
	values := make([]float64, len(counts))
	labels := make([]string, len(counts))
	for i, c := range counts {
		values[i] = float64(c.Count)
		labels[i] = c.Value
	}

	pie, err := NewPie(p, values, labels, paletteColors(moreland.SmoothBlueTan(), len(counts)))
	if err != nil {
		return nil, err
	}
	p.Add(pie)
	return p, nil
}

// makeCounts counts vehicles per make, most common first, ignoring vehicles
// without a make
func makeCounts(vehicles []models.Vehicle) []stats.Count[string] {
	var makes []string
	for _, v := range vehicles {
		if m := v.Make(); m != "" {
			makes = append(makes, m)
		}
	}

	counts := stats.ValueCounts(makes)
	if len(counts) > topMakes {
		counts = counts[:topMakes]
	}
	return counts
}

func speedVsTemperature(ds *models.Dataset) (*plot.Plot, error) {
	p := newPlot("Speed vs Temperature", "Current Speed (km/h)", "Current Temperature (°C)")

	xys := make(plotter.XYs, len(ds.Vehicles))
	intensity := make([]float64, len(ds.Vehicles))
	for i, v := range ds.Vehicles {
		xys[i] = plotter.XY{X: v.CurrentSpeed, Y: v.CurrentTemperature}
		intensity[i] = float64(v.TotalAnomalies)
	}
	return p, colorScatter(p, xys, intensity, "Total Anomalies", moreland.SmoothBlueRed())
}

func geographicDistribution(ds *models.Dataset) (*plot.Plot, error) {
	p := newPlot("Vehicle Geographic Distribution", "Longitude", "Latitude")

	xys := make(plotter.XYs, len(ds.Vehicles))
	speed := make([]float64, len(ds.Vehicles))
	for i, v := range ds.Vehicles {
		xys[i] = plotter.XY{X: v.Longitude, Y: v.Latitude}
		speed[i] = v.CurrentSpeed
	}
	return p, colorScatter(p, xys, speed, "Current Speed (km/h)", moreland.Kindlmann())
}

// colorScatter plots xys with each point coloured by its intensity value.
// The legend shows the colours of both ends of the intensity range.
func colorScatter(p *plot.Plot, xys plotter.XYs, intensity []float64, name string, cm palette.ColorMap) error {
	if len(xys) == 0 {
		return nil
	}

	s, err := plotter.NewScatter(xys)
	if err != nil {
		return errors.Wrapf(err, "%s: scatter", p.Title.Text)
	}
	colorOf, lo, hi := colorScale(cm, intensity)
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  colorOf(intensity[i]),
			Radius: vg.Points(3),
			Shape:  draw.CircleGlyph{},
		}
	}
	p.Add(s)

	p.Legend.Add(fmt.Sprintf("%s %g", name, lo), swatch{colorOf(lo)})
	p.Legend.Add(fmt.Sprintf("%s %g", name, hi), swatch{colorOf(hi)})
	p.Legend.Top = true
	return nil
}

func harshEventsVsAnomalies(ds *models.Dataset) (*plot.Plot, error) {
	p := newPlot("Harsh Events vs Total Anomalies", "Harsh Events", "Total Anomalies")

	harsh := stats.Column(ds.Vehicles, func(v models.Vehicle) float64 { return float64(v.HarshEvents) })
	anomalies := stats.Column(ds.Vehicles, func(v models.Vehicle) float64 { return float64(v.TotalAnomalies) })

	xys := make(plotter.XYs, len(ds.Vehicles))
	for i := range xys {
		xys[i] = plotter.XY{X: harsh[i], Y: anomalies[i]}
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, errors.Wrap(err, "harsh events scatter")
	}
	s.GlyphStyle.Color = color.NRGBA{R: 31, G: 119, B: 180, A: 153}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(3)
	p.Add(s)

	p.Add(newAnnotation(p, fmt.Sprintf("Correlation: %.3f", stats.Pearson(harsh, anomalies)), 0.05, 0.95))
	return p, nil
}
