package main

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

func newPlot(title string) *plot.Plot {
	plt := plot.New()
	plt.Title.Text = title
	plt.BackgroundColor = color.Black
	for _, elt := range []*color.Color{
		&plt.Title.TextStyle.Color,
		&plt.X.Color,
		&plt.X.Tick.Color,
		&plt.X.Tick.Label.Color,
		&plt.X.Label.TextStyle.Color,
		&plt.Y.Color,
		&plt.Y.Tick.Color,
		&plt.Y.Tick.Label.Color,
		&plt.Y.Label.TextStyle.Color,
	} {
		*elt = color.White
	}
	return plt
}

// MeanComparison plots the Laplace-Beltrami mean curvature magnitude
// of each vertex against the mean of its principal curvatures. The
// Laplacian estimate is |2H|, so a consistent mesh falls along the
// line y = 2|x|.
func (c *Curvature) MeanComparison() (*plot.Plot, error) {
	plt := newPlot("Mean curvature")
	plt.X.Label.Text = "½(κ1+κ2)"
	plt.Y.Label.Text = "|M⁻¹LV|"

	xys := make(plotter.XYs, len(c.Mean))
	lo, hi := 0.0, 0.0
	for i := range xys {
		xys[i].X = c.Mean[i]
		xys[i].Y = c.Laplace.H[i]
		if i == 0 || c.Mean[i] < lo {
			lo = c.Mean[i]
		}
		if i == 0 || c.Mean[i] > hi {
			hi = c.Mean[i]
		}
	}
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	sc.GlyphStyle.Color = dir2Color
	sc.GlyphStyle.Radius = vg.Points(1.5)
	plt.Add(sc)

	ref, err := plotter.NewLine(plotter.XYs{{X: lo, Y: 2 * math.Abs(lo)}, {X: 0, Y: 0}, {X: hi, Y: 2 * math.Abs(hi)}})
	if err != nil {
		return nil, err
	}
	ref.LineStyle.Color = color.White
	ref.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	plt.Add(ref)
	return plt, nil
}

// Histogram plots the distribution of f.
func (f Field) Histogram(bins int) (*plot.Plot, error) {
	plt := newPlot(f.Name)
	plt.X.Label.Text = f.Suffix
	h, err := plotter.NewHist(plotter.Values(f.Values), bins)
	if err != nil {
		return nil, err
	}
	h.FillColor = dir1Color
	h.LineStyle.Color = color.White
	plt.Add(h)
	return plt, nil
}

// SavePlots writes the mean curvature comparison to path and a
// histogram of f next to it.
func (c *Curvature) SavePlots(path string, f Field) ([]string, error) {
	const w, h = 20 * vg.Centimeter, 15 * vg.Centimeter
	cmp, err := c.MeanComparison()
	if err != nil {
		return nil, err
	}
	if err := cmp.Save(w, h, path); err != nil {
		return nil, err
	}
	hist, err := f.Histogram(64)
	if err != nil {
		return nil, err
	}
	ext := filepath.Ext(path)
	histPath := fmt.Sprintf("%s-%s-hist%s", strings.TrimSuffix(path, ext), f.Suffix, ext)
	if err := hist.Save(w, h, histPath); err != nil {
		return nil, err
	}
	return []string{path, histPath}, nil
}
