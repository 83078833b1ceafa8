// Public domain.

// Package svplot renders diagnostic figures for validation test results.
//
// Figures are supporting output, not verdict input: a failed render is
// reported but never fails a test.
package svplot

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"shevalid/svfit"
)

// ScatterFit plots data points with the fitted line overlaid and saves the
// figure as PNG.
func ScatterFit(path, title, xLabel, yLabel string, x, y []float64, fit svfit.Results) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	pts := make(plotter.XYs, 0, len(x))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("%s: %v", path, err)
	}
	sc.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(sc)

	if !fit.Degenerate() {
		line := plotter.NewFunction(func(xv float64) float64 {
			return fit.Slope*xv + fit.Intercept
		})
		line.Color = color.RGBA{R: 196, A: 255}
		p.Add(line)
		p.Title.Text = fmt.Sprintf("%s (slope=%.3g±%.3g)", title, fit.Slope, fit.SlopeErr)
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// Histogram plots a value distribution and saves the figure as PNG.
func Histogram(path, title, xLabel string, values []float64, nBins int) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "count"

	vs := make(plotter.Values, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vs = append(vs, v)
		}
	}
	if len(vs) == 0 {
		return fmt.Errorf("%s: no finite values to plot", path)
	}
	h, err := plotter.NewHist(vs, nBins)
	if err != nil {
		return fmt.Errorf("%s: %v", path, err)
	}
	p.Add(h)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
