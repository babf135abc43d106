package export

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/piwi3910/FitCheck/internal/model"
)

const plotWidth = 8 * vg.Inch

// ExportPlot renders the container and the placed (or, for an infeasible
// result, the detected) outlines to an image file. The format follows the
// file extension (png, svg, pdf, ...). The y axis is inverted to match the
// image frame.
func ExportPlot(path string, result model.PackingResult, field model.Field) error {
	p, err := layoutPlot(result, field)
	if err != nil {
		return err
	}

	height := plotWidth
	if w := field.Width(); w > 0 && field.Height() > 0 {
		height = vg.Length(float64(plotWidth) * field.Height() / w)
	}
	if err := p.Save(plotWidth, height, path); err != nil {
		return fmt.Errorf("save layout plot: %w", err)
	}
	return nil
}

func layoutPlot(result model.PackingResult, field model.Field) (*plot.Plot, error) {
	if len(result.Container.Outline) == 0 {
		return nil, fmt.Errorf("no container to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: %s", result.Container.Label, result.Reason)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.Add(plotter.NewGrid())

	if field.Width() > 0 && field.Height() > 0 {
		p.X.Min, p.X.Max = field.MinX, field.MaxX
		p.Y.Min, p.Y.Max = field.MinY, field.MaxY
	}

	container, err := plotter.NewPolygon(toXYs(result.Container.Outline))
	if err != nil {
		return nil, fmt.Errorf("container polygon: %w", err)
	}
	container.Color = color.NRGBA{R: 230, G: 230, B: 230, A: 255}
	container.LineStyle.Width = vg.Points(1.5)
	container.LineStyle.Color = color.Black
	p.Add(container)
	p.Legend.Add(result.Container.Label, container)

	outlines := layoutOutlines(result)
	colors := Palette(len(outlines))
	for i, o := range outlines {
		poly, err := plotter.NewPolygon(toXYs(o))
		if err != nil {
			return nil, fmt.Errorf("object polygon %d: %w", i+1, err)
		}
		label := result.Objects[i].Label
		if result.Feasible {
			poly.Color = withAlpha(colors[i], 200)
			poly.LineStyle.Color = color.Black
		} else {
			poly.Color = nil
			poly.LineStyle.Color = color.NRGBA{R: 120, G: 120, B: 120, A: 255}
			if label == result.FailedObject {
				poly.LineStyle.Color = color.NRGBA{R: 200, A: 255}
				poly.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			}
		}
		poly.LineStyle.Width = vg.Points(1)
		p.Add(poly)
		p.Legend.Add(label, poly)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

func toXYs(o model.Outline) plotter.XYs {
	xys := make(plotter.XYs, len(o))
	for i, pt := range o {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	return xys
}
