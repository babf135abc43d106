package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/piwi3910/FitCheck/internal/geometry"
	"github.com/piwi3910/FitCheck/internal/logging"
	"github.com/piwi3910/FitCheck/internal/model"
)

// Packer decides whether the objects found in a picture fit inside its
// container and produces one valid placement when they do.
type Packer struct {
	Config   model.Config
	Geometry geometry.Model
	Searcher Searcher
	Logger   *zap.Logger
}

// New returns a Packer wired with the planar geometry model and the grid
// search configured by cfg.
func New(cfg model.Config) *Packer {
	g := geometry.New(cfg)
	return &Packer{
		Config:   cfg,
		Geometry: g,
		Searcher: NewGridSearch(g, cfg.Workers),
		Logger:   logging.L(),
	}
}

// Run packs shapes within field. The container is the shape that reaches
// highest in the picture (smallest y); the remaining shapes are the objects,
// placed in the order given.
//
// Infeasibility is reported through the result. Errors are reserved for
// unusable input (ErrNoContainer, ErrDegeneratePolygon, ErrInvalidConfig)
// and for searches cut short by ctx (ErrIndeterminate).
func (p *Packer) Run(ctx context.Context, shapes []model.Shape, field model.Field) (model.PackingResult, error) {
	start := time.Now()
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if err := p.Config.Validate(); err != nil {
		return model.PackingResult{}, err
	}
	if len(shapes) == 0 {
		return model.PackingResult{}, model.ErrNoContainer
	}

	container, objects, err := p.prepare(shapes)
	if err != nil {
		return model.PackingResult{}, err
	}
	if field.Width() <= 0 || field.Height() <= 0 {
		field = model.FieldFromOutline(container.Outline)
	}

	result := model.PackingResult{
		Container:  container,
		Objects:    objects,
		Placements: []model.Placement{},
	}
	finish := func(feasible bool, reason model.Reason) model.PackingResult {
		result.Feasible = feasible
		result.Reason = reason
		if !feasible {
			result.Placements = []model.Placement{}
		}
		result.Stats.Elapsed = time.Since(start)
		log.Info("packing finished",
			zap.Bool("feasible", feasible),
			zap.String("reason", string(reason)),
			zap.Int("objects", len(objects)),
			zap.Int("placed", len(result.Placements)),
			zap.Int64("poses_tried", result.Stats.PosesTried),
			zap.Duration("elapsed", result.Stats.Elapsed),
		)
		return result
	}

	if len(objects) == 0 {
		return finish(true, model.ReasonNoObjects), nil
	}
	if reason, ok := Check(p.Config, container, objects); !ok {
		return finish(false, reason), nil
	}

	if timeout := p.Config.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	placed := make([]model.Outline, 0, len(objects))
	for i, obj := range objects {
		req := PlaceRequest{
			Container:  container.Outline,
			Object:     obj,
			Placed:     placed,
			Field:      field,
			ShiftStep:  p.Config.ShiftStep,
			RotateStep: p.Config.RotateStep,
			MinDegree:  p.Config.MinDegree,
			MaxDegree:  p.Config.MaxDegree,
		}
		out, err := p.Searcher.Place(ctx, req)
		result.Stats.PosesTried += out.PosesTried
		if err != nil {
			result.Stats.Elapsed = time.Since(start)
			return result, fmt.Errorf("placing object %d (%s): %w", i, obj.Label, err)
		}
		if !out.Found {
			log.Debug("no pose found", zap.String("object", obj.Label), zap.Int("index", i))
			result.FailedObject = obj.Label
			return finish(false, model.ReasonSearchExhausted), nil
		}
		log.Debug("object placed",
			zap.String("object", obj.Label),
			zap.Float64("dx", out.Placement.Pose.DX),
			zap.Float64("dy", out.Placement.Pose.DY),
			zap.Float64("angle", out.Placement.Pose.Angle),
		)
		placed = append(placed, out.Placement.Outline)
		result.Placements = append(result.Placements, out.Placement)
	}
	return finish(true, model.ReasonFits), nil
}

// prepare picks the container and validates every shape.
func (p *Packer) prepare(shapes []model.Shape) (model.Container, []model.Object, error) {
	ci := ContainerIndex(shapes)
	var container model.Container
	objects := make([]model.Object, 0, len(shapes)-1)
	for i, s := range shapes {
		outline, err := p.Geometry.Validate(s.Outline)
		if err != nil {
			return model.Container{}, nil, fmt.Errorf("shape %d (%s): %w", i, s.Label, err)
		}
		s.Outline = outline
		area := p.Geometry.Area(outline)
		diameter := p.Geometry.EnclosingCircleDiameter(outline)
		if i == ci {
			container = model.Container{Shape: s, Area: area, Diameter: diameter}
			continue
		}
		objects = append(objects, model.Object{Shape: s, Area: area, Diameter: diameter})
	}
	return container, objects, nil
}

// ContainerIndex returns the index of the shape with the smallest top y.
// Ties keep the earliest shape. It returns -1 for no shapes.
func ContainerIndex(shapes []model.Shape) int {
	best := -1
	for i, s := range shapes {
		if len(s.Outline) == 0 {
			continue
		}
		if best < 0 || s.Outline.Top() < shapes[best].Outline.Top() {
			best = i
		}
	}
	return best
}
