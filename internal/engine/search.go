package engine

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/piwi3910/FitCheck/internal/geometry"
	"github.com/piwi3910/FitCheck/internal/model"
)

// PlaceRequest describes one object placement attempt.
type PlaceRequest struct {
	Container model.Outline
	Object    model.Object
	Placed    []model.Outline
	Field     model.Field

	ShiftStep  float64
	RotateStep float64
	MinDegree  float64
	MaxDegree  float64
}

// Outcome is the result of a placement attempt. Placement is only set when
// Found is true.
type Outcome struct {
	Placement  model.Placement
	Found      bool
	PosesTried int64
}

// Searcher finds a pose for one object given the already placed outlines.
// Implementations must not modify the request.
type Searcher interface {
	Place(ctx context.Context, req PlaceRequest) (Outcome, error)
}

// GridSearch walks a discrete pose grid and accepts the first pose at which
// the object lies inside the container without overlapping any placed
// outline. Translations are the outer loops (dx, then dy) and rotations the
// inner loop.
type GridSearch struct {
	Geometry geometry.Model

	// Workers > 1 splits the dx columns into contiguous bands searched
	// concurrently. The accepted pose is the same as with one worker.
	Workers int
}

func NewGridSearch(g geometry.Model, workers int) *GridSearch {
	return &GridSearch{Geometry: g, Workers: workers}
}

// grid is the precomputed pose lattice for one request.
type grid struct {
	req      PlaceRequest
	centroid model.Point2D
	dxStart  float64
	dyStart  float64
	columns  int
	rows     int
	angles   []float64

	// Bounds of the container; a contained shape keeps its centroid inside.
	minX, minY, maxX, maxY float64
}

func newGrid(g geometry.Model, req PlaceRequest) grid {
	c := g.Centroid(req.Object.Outline)
	gr := grid{
		req:      req,
		centroid: c,
		dxStart:  req.Field.MinX - math.Trunc(c.X),
		dyStart:  req.Field.MinY - math.Trunc(c.Y),
	}
	gr.columns = steps(req.Field.MinX, req.Field.MaxX, req.ShiftStep)
	gr.rows = steps(req.Field.MinY, req.Field.MaxY, req.ShiftStep)
	for i := 0; ; i++ {
		a := req.MinDegree + float64(i)*req.RotateStep
		if a >= req.MaxDegree || req.RotateStep <= 0 {
			break
		}
		gr.angles = append(gr.angles, a)
	}
	if len(gr.angles) == 0 {
		gr.angles = []float64{req.MinDegree}
	}
	min, max := req.Container.BoundingBox()
	gr.minX, gr.minY, gr.maxX, gr.maxY = min.X, min.Y, max.X, max.Y
	return gr
}

// steps counts the values from, from+step, ... strictly below to.
func steps(from, to, step float64) int {
	if step <= 0 || to <= from {
		return 0
	}
	return int(math.Ceil((to - from) / step))
}

// Place implements Searcher.
func (s *GridSearch) Place(ctx context.Context, req PlaceRequest) (Outcome, error) {
	gr := newGrid(s.Geometry, req)
	if s.Workers > 1 && gr.columns > 1 {
		return s.placeBanded(ctx, gr)
	}
	var tried atomic.Int64
	p, found, err := s.scan(ctx, gr, 0, gr.columns, &tried, nil)
	if err != nil {
		return Outcome{PosesTried: tried.Load()}, err
	}
	return Outcome{Placement: p, Found: found, PosesTried: tried.Load()}, nil
}

// scan searches columns [from, to) in order. abandon, when non-nil, is
// polled per column and stops the scan early without error.
func (s *GridSearch) scan(ctx context.Context, gr grid, from, to int, tried *atomic.Int64, abandon func() bool) (model.Placement, bool, error) {
	obj := gr.req.Object
	for col := from; col < to; col++ {
		if err := ctx.Err(); err != nil {
			return model.Placement{}, false, fmt.Errorf("%w: %w", model.ErrIndeterminate, err)
		}
		if abandon != nil && abandon() {
			return model.Placement{}, false, nil
		}
		dx := gr.dxStart + float64(col)*gr.req.ShiftStep
		cx := gr.centroid.X + dx
		if cx < gr.minX || cx > gr.maxX {
			continue
		}
		for row := 0; row < gr.rows; row++ {
			dy := gr.dyStart + float64(row)*gr.req.ShiftStep
			cy := gr.centroid.Y + dy
			if cy < gr.minY || cy > gr.maxY {
				continue
			}
			for _, angle := range gr.angles {
				tried.Add(1)
				candidate := s.Geometry.Transform(obj.Outline, dx, dy, angle)
				if !s.fits(gr.req, candidate) {
					continue
				}
				return model.Placement{
					ObjectID: obj.ID,
					Label:    obj.Label,
					Pose:     model.Pose{DX: dx, DY: dy, Angle: angle},
					Outline:  candidate,
				}, true, nil
			}
		}
	}
	return model.Placement{}, false, nil
}

func (s *GridSearch) fits(req PlaceRequest, candidate model.Outline) bool {
	if !s.Geometry.Contains(req.Container, candidate) {
		return false
	}
	for _, placed := range req.Placed {
		if s.Geometry.IntersectionArea(candidate, placed) > 0 {
			return false
		}
	}
	return true
}
