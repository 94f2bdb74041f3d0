// Package charts renders the twelve-panel fleet dashboard image.
package charts

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"example.com/backstage/services/telematics/internal/models"
)

// Grid dimensions of the dashboard
const (
	Rows = 3
	Cols = 4
)

// ErrNoData is returned when there are no vehicles to chart
var ErrNoData = errors.New("no vehicle data to chart")

// Options controls the rendered image
type Options struct {
	Path     string
	DPI      int
	WidthIn  float64
	HeightIn float64
}

// Panels builds the twelve dashboard plots in grid order
func Panels(ds *models.Dataset) ([]*plot.Plot, error) {
	if len(ds.Vehicles) == 0 {
		return nil, ErrNoData
	}

	plots := make([]*plot.Plot, 0, len(panels))
	for i, build := range panels {
		p, err := build(ds)
		if err != nil {
			return nil, errors.Wrapf(err, "panel %d", i+1)
		}
		plots = append(plots, p)
	}
	return plots, nil
}

// Render draws the dashboard and writes it as a PNG to opts.Path
func Render(ds *models.Dataset, opts Options) error {
	if opts.DPI <= 0 || opts.WidthIn <= 0 || opts.HeightIn <= 0 {
		return errors.Errorf("invalid image geometry %gx%g in at %d dpi", opts.WidthIn, opts.HeightIn, opts.DPI)
	}

	plots, err := Panels(ds)
	if err != nil {
		return err
	}

	grid := make([][]*plot.Plot, Rows)
	for r := range grid {
		grid[r] = plots[r*Cols : (r+1)*Cols]
	}

	img := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.WidthIn)*vg.Inch, vg.Length(opts.HeightIn)*vg.Inch),
		vgimg.UseDPI(opts.DPI),
	)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      Rows,
		Cols:      Cols,
		PadX:      vg.Millimeter * 6,
		PadY:      vg.Millimeter * 6,
		PadTop:    vg.Millimeter * 3,
		PadBottom: vg.Millimeter * 3,
		PadLeft:   vg.Millimeter * 3,
		PadRight:  vg.Millimeter * 3,
	}

	canvases := plot.Align(grid, tiles, dc)
	for r := range grid {
		for c := range grid[r] {
			grid[r][c].Draw(canvases[r][c])
		}
	}

	if err := writeFile(opts.Path, vgimg.PngCanvas{Canvas: img}); err != nil {
		return err
	}

	log.Debug().Str("path", opts.Path).Int("dpi", opts.DPI).Msg("dashboard rendered")
	return nil
}

// writeFile writes src to path. A partially written file is removed.
func writeFile(path string, src io.WriterTo) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}

	if _, err := src.WriteTo(file); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return errors.Wrapf(err, "failed to close %s", path)
	}
	return nil
}
