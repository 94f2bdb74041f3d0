package charts

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"

	"example.com/backstage/services/telematics/internal/models"
)

func testDataset(n int) *models.Dataset {
	states := []models.VehicleState{models.StateNormal, models.StateWarning, models.StateCritical, models.StateOffline, "RETIRED"}
	makes := []string{"Ford Transit", "Volvo FH16", "Mercedes Sprinter", "Ford Focus"}

	ds := &models.Dataset{}
	for i := 0; i < n; i++ {
		ds.Vehicles = append(ds.Vehicles, models.Vehicle{
			ID:                 fmt.Sprint(i + 1),
			MakeModel:          makes[i%len(makes)],
			LicensePlate:       fmt.Sprintf("PL-%03d", i+1),
			State:              states[i%len(states)],
			AvgSpeed:           30 + float64(i*7%50),
			TotalDistance:      float64(100 + i*37%400),
			HarshEvents:        i % 6,
			TotalAnomalies:     i * 3 % 11,
			CurrentSpeed:       float64(i * 13 % 120),
			CurrentRPM:         800 + float64(i*173%3000),
			CurrentTemperature: 80 + float64(i%30),
			CurrentFuelLevel:   float64(i * 17 % 100),
			Latitude:           40.7 + float64(i)/100,
			Longitude:          -74.0 + float64(i)/100,
		})
	}
	types := []string{"Speeding", "HardBrake", "Overheating", "LowFuel"}
	for i := 0; i < 2*n; i++ {
		ds.Anomalies = append(ds.Anomalies, models.Anomaly{
			Type:     types[i%len(types)],
			Severity: i%5 + 1,
		})
	}
	return ds
}

func TestPanels(t *testing.T) {
	plots, err := Panels(testDataset(25))
	require.NoError(t, err)
	require.Len(t, plots, Rows*Cols)

	titles := make([]string, len(plots))
	for i, p := range plots {
		titles[i] = p.Title.Text
	}
	assert.Equal(t, []string{
		"Vehicle State Distribution",
		"Average Speed Distribution",
		"Anomaly Severity Distribution",
		"Top 10 Vehicles by Distance",
		"Top 10 Anomaly Types",
		"Speed vs Temperature",
		"Current Fuel Level Distribution",
		"Harsh Events vs Total Anomalies",
		"Vehicle Make Distribution",
		"Current RPM Distribution",
		"Top 10 Vehicles by Anomalies",
		"Vehicle Geographic Distribution",
	}, titles)
}

func TestPanelsNoVehicles(t *testing.T) {
	_, err := Panels(&models.Dataset{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.png")
	opts := Options{Path: path, DPI: 20, WidthIn: 20, HeightIn: 15}

	require.NoError(t, Render(testDataset(25), opts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")))
}

func TestRenderSingleVehicleNoAnomalies(t *testing.T) {
	ds := testDataset(1)
	ds.Anomalies = nil

	path := filepath.Join(t.TempDir(), "dashboard.png")
	require.NoError(t, Render(ds, Options{Path: path, DPI: 20, WidthIn: 20, HeightIn: 15}))
	assert.FileExists(t, path)
}

func TestRenderErrors(t *testing.T) {
	dir := t.TempDir()

	err := Render(&models.Dataset{}, Options{Path: filepath.Join(dir, "a.png"), DPI: 20, WidthIn: 20, HeightIn: 15})
	assert.ErrorIs(t, err, ErrNoData)

	err = Render(testDataset(3), Options{Path: filepath.Join(dir, "b.png"), DPI: 0, WidthIn: 20, HeightIn: 15})
	assert.Error(t, err)

	err = Render(testDataset(3), Options{Path: filepath.Join(dir, "missing", "c.png"), DPI: 20, WidthIn: 20, HeightIn: 15})
	assert.Error(t, err)
}

type failingWriterTo struct{}

func (failingWriterTo) WriteTo(w io.Writer) (int64, error) {
	n, _ := w.Write([]byte("\x89PNG"))
	return int64(n), assert.AnError
}

func TestWriteFileRemovesPartialOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.png")

	err := writeFile(path, failingWriterTo{})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoFileExists(t, path)
}

func TestMakeCountsSkipsBlankMakes(t *testing.T) {
	vehicles := []models.Vehicle{
		{MakeModel: "Ford Transit"},
		{MakeModel: "  "},
		{MakeModel: ""},
		{MakeModel: "Volvo FH16"},
		{MakeModel: "Ford Focus"},
	}

	counts := makeCounts(vehicles)
	require.Len(t, counts, 2)
	assert.Equal(t, "Ford", counts[0].Value)
	assert.Equal(t, 2, counts[0].Count)
	assert.Equal(t, "Volvo", counts[1].Value)

	assert.Empty(t, makeCounts([]models.Vehicle{{MakeModel: ""}}))
}

func TestStateColor(t *testing.T) {
	assert.Equal(t, color.Color(red), stateColor(models.StateCritical))
	assert.Equal(t, color.Color(lightBlue), stateColor("RETIRED"))
}

func TestNewPie(t *testing.T) {
	p := plot.New()

	_, err := NewPie(p, []float64{1, 2}, []string{"a"}, []color.Color{red})
	assert.Error(t, err)

	_, err = NewPie(p, []float64{-1}, []string{"a"}, []color.Color{red})
	assert.Error(t, err)

	pie, err := NewPie(p, []float64{1, 3}, []string{"a", "b"}, []color.Color{red, blue})
	require.NoError(t, err)
	assert.Equal(t, 0.75, pie.Radius)
}

func TestPaletteColors(t *testing.T) {
	assert.Len(t, paletteColors(moreland.SmoothBlueTan(), 1), 1)
	assert.Len(t, paletteColors(moreland.SmoothBlueTan(), 8), 8)
	assert.Empty(t, paletteColors(moreland.SmoothBlueTan(), 0))
}

func TestColorScaleConstantValues(t *testing.T) {
	colorOf, lo, hi := colorScale(moreland.Kindlmann(), []float64{5, 5, 5})
	assert.Equal(t, 5.0, lo)
	assert.Equal(t, 6.0, hi)
	assert.NotNil(t, colorOf(5))
}
