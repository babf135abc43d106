package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"

	"github.com/piwi3910/FitCheck/internal/model"
)

// DXF layer names used by ExportDXF.
const (
	LayerContainer = "CONTAINER"
	LayerPlaced    = "PLACED"
	LayerObjects   = "OBJECTS"
)

// ExportDXF writes the container and the placed outlines as closed
// LWPOLYLINEs on separate layers. Infeasible results carry the objects as
// detected instead. y is flipped back to the y-up drawing convention, so a
// drawing exported here imports with the same geometry.
func ExportDXF(path string, result model.PackingResult) error {
	if len(result.Container.Outline) == 0 {
		return fmt.Errorf("no container to export")
	}

	outlines := layoutOutlines(result)
	all := append(model.Outline{}, result.Container.Outline...)
	for _, o := range outlines {
		all = append(all, o...)
	}
	_, max := all.BoundingBox()

	d := dxf.NewDrawing()
	if _, err := d.AddLayer(LayerContainer, color.White, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("failed to add layer %s: %w", LayerContainer, err)
	}
	if err := addOutline(d, result.Container.Outline, max.Y); err != nil {
		return err
	}

	layer, cl := LayerPlaced, color.Green
	if !result.Feasible {
		layer, cl = LayerObjects, color.Red
	}
	if len(outlines) > 0 {
		if _, err := d.AddLayer(layer, cl, dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("failed to add layer %s: %w", layer, err)
		}
	}
	for _, o := range outlines {
		if err := addOutline(d, o, max.Y); err != nil {
			return err
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF file: %w", err)
	}
	return nil
}

func addOutline(d *drawing.Drawing, o model.Outline, top float64) error {
	vertices := make([][]float64, len(o))
	for i, p := range o {
		vertices[i] = []float64{p.X, top - p.Y}
	}
	if _, err := d.LwPolyline(true, vertices...); err != nil {
		return fmt.Errorf("failed to add polyline: %w", err)
	}
	return nil
}
