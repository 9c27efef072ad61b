// Package report renders the diagnostic plots written next to the pipeline
// artifacts: the singular-value spectrum and the per-fold ROC and
// reliability curves.
package report

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/davidfumo/kaggle-quora-question-pairs/internal/metrics"
)

// Plot dimensions match a wide diagnostic panel.
const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 4 * vg.Inch
)

var (
	colorTrain = color.RGBA{B: 255, A: 255}
	colorValid = color.RGBA{R: 255, A: 255}
	colorGray  = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// SaveSingularValues plots the spectrum in decreasing order to path (PNG).
func SaveSingularValues(s []float64, path string) error {
	sorted := append([]float64(nil), s...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	pts := make(plotter.XYs, len(sorted))
	for i, v := range sorted {
		pts[i].X = float64(i)
		pts[i].Y = v
	}

	p := plot.New()
	p.Title.Text = "Singular values"
	p.X.Label.Text = "component"
	p.Y.Label.Text = "value"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build spectrum plot: %w", err)
	}
	line.Color = colorTrain
	p.Add(line)

	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// SaveROC plots train and validation ROC curves with a diagonal chance line.
func SaveROC(train, valid metrics.Curve, path string) error {
	return saveComparison("ROC", "false positive rate", "true positive rate",
		train, valid, path)
}

// SaveReliability plots train and validation reliability curves with the
// perfect-calibration diagonal.
func SaveReliability(train, valid metrics.Curve, path string) error {
	return saveComparison("Reliability", "mean predicted probability", "observed positive rate",
		train, valid, path)
}

func saveComparison(title, xLabel, yLabel string, train, valid metrics.Curve, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())

	trainLine, err := plotter.NewLine(curvePoints(train))
	if err != nil {
		return fmt.Errorf("failed to build %s plot: %w", title, err)
	}
	trainLine.Color = colorTrain
	p.Add(trainLine)
	p.Legend.Add("train", trainLine)

	validLine, err := plotter.NewLine(curvePoints(valid))
	if err != nil {
		return fmt.Errorf("failed to build %s plot: %w", title, err)
	}
	validLine.Color = colorValid
	p.Add(validLine)
	p.Legend.Add("valid", validLine)

	diagonal, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return fmt.Errorf("failed to build %s plot: %w", title, err)
	}
	diagonal.Color = colorGray
	diagonal.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diagonal)

	p.Legend.Top = false
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func curvePoints(c metrics.Curve) plotter.XYs {
	pts := make(plotter.XYs, len(c.X))
	for i := range c.X {
		pts[i].X = c.X[i]
		pts[i].Y = c.Y[i]
	}
	return pts
}
