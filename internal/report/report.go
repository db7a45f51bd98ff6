// Package report renders training diagnostics.
package report

import (
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ezoic/mdsvm/pkg/errors"
)

// Chart size.
const (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

// LossPlot builds a line chart of per-epoch training loss.
func LossPlot(losses []float64, title string) (*plot.Plot, error) {
	if len(losses) == 0 {
		return nil, errors.NewModelError("report.LossPlot", "no loss values", errors.ErrEmptyData)
	}

	pts := make(plotter.XYs, len(losses))
	for i, l := range losses {
		pts[i].X = float64(i + 1)
		pts[i].Y = l
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = "Hinge loss"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create loss line")
	}
	line.Width = vg.Points(2)
	line.Color = color.RGBA{B: 200, A: 255}
	p.Add(line)
	p.Legend.Add("train", line)
	return p, nil
}

// SaveLossPlot writes the loss chart to path. The image format follows the
// file extension (png, svg, pdf, ...).
func SaveLossPlot(losses []float64, title, path string) error {
	p, err := LossPlot(losses, title)
	if err != nil {
		return err
	}
	if err := p.Save(Width, Height, path); err != nil {
		return errors.Wrap(err, "failed to save plot")
	}
	return nil
}

// WriteLossPlot writes the loss chart to w in the given format ("png",
// "svg", ...).
func WriteLossPlot(w io.Writer, losses []float64, title, format string) error {
	p, err := LossPlot(losses, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, format)
	if err != nil {
		return errors.Wrap(err, "failed to render plot")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write plot")
	}
	return nil
}
