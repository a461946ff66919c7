// Package render draws population trajectories as PNG/SVG/PDF charts.
package render

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/pthm-cable/dogpop/ensemble"
	"github.com/pthm-cable/dogpop/telemetry"
)

// Default chart size.
const (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

// headroom is the fraction added above the largest value so the early part
// of a fast-growing trajectory stays readable.
const headroom = 1.1

// SeriesChart plots one line with point markers per metric against month.
func SeriesChart(s telemetry.Series, metrics []string, title string) (*plot.Plot, error) {
	if len(metrics) == 0 {
		metrics = []string{telemetry.MetricTotal}
	}

	p := newPlot(title)
	peak := 0.0
	var lines []interface{}
	for _, name := range metrics {
		vals, err := s.Metric(name)
		if err != nil {
			return nil, err
		}
		xys := make(plotter.XYs, len(vals))
		for i, v := range vals {
			xys[i].X = float64(i)
			xys[i].Y = v
			if v > peak {
				peak = v
			}
		}
		lines = append(lines, name, xys)
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return nil, fmt.Errorf("adding lines: %w", err)
	}

	scaleY(p, peak)
	return p, nil
}

// BandsChart plots the ensemble median with a shaded p10-p90 band.
func BandsChart(bands []ensemble.Band, title string) (*plot.Plot, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("no bands to plot")
	}

	p := newPlot(title)

	var outline plotter.XYs
	median := make(plotter.XYs, len(bands))
	mean := make(plotter.XYs, len(bands))
	peak := 0.0
	for i, b := range bands {
		x := float64(b.Month)
		median[i] = plotter.XY{X: x, Y: b.P50}
		mean[i] = plotter.XY{X: x, Y: b.Mean}
		outline = append(outline, plotter.XY{X: x, Y: b.P90})
		if b.P90 > peak {
			peak = b.P90
		}
	}
	for i := len(bands) - 1; i >= 0; i-- {
		outline = append(outline, plotter.XY{X: float64(bands[i].Month), Y: bands[i].P10})
	}

	band, err := plotter.NewPolygon(outline)
	if err != nil {
		return nil, fmt.Errorf("building band: %w", err)
	}
	band.Color = color.RGBA{R: 70, G: 130, B: 180, A: 80}
	band.LineStyle.Width = 0
	p.Add(band)
	p.Legend.Add("p10-p90", band)

	if err := plotutil.AddLinePoints(p, "median", median, "mean", mean); err != nil {
		return nil, fmt.Errorf("adding lines: %w", err)
	}

	scaleY(p, peak)
	return p, nil
}

// Save writes the chart; the format follows the file extension.
func Save(p *plot.Plot, path string) error {
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("saving chart: %w", err)
	}
	return nil
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Months"
	p.Y.Label.Text = "Population"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = true
	return p
}

// scaleY pins the y axis to [0, peak*headroom]. Must run after all plotters
// are added since Add widens the axis ranges.
func scaleY(p *plot.Plot, peak float64) {
	if peak <= 0 {
		peak = 1
	}
	p.Y.Min = 0
	p.Y.Max = peak * headroom
}
