// Package geometry implements the polygon operations the placement engine
// needs: measures, validity repair, rigid transforms and the containment and
// overlap predicates.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/piwi3910/FitCheck/internal/model"
)

// Model is the set of polygon operations the engine depends on.
// Implementations must not mutate their arguments.
type Model interface {
	Area(o model.Outline) float64
	Centroid(o model.Outline) model.Point2D
	EnclosingCircleDiameter(o model.Outline) float64
	Validate(o model.Outline) (model.Outline, error)
	Transform(o model.Outline, dx, dy, angleDegrees float64) model.Outline
	Contains(container, candidate model.Outline) bool
	IntersectionArea(a, b model.Outline) float64
	IsSimple(o model.Outline) bool
}

// Planar implements Model on float64 coordinates in a flat plane.
type Planar struct {
	// Epsilon is the distance below which two points or a point and an
	// edge are considered to coincide.
	Epsilon float64
}

// New returns a Planar model using the epsilon from cfg.
func New(cfg model.Config) Planar {
	return Planar{Epsilon: cfg.Epsilon}
}

var _ Model = Planar{}

func (g Planar) eps() float64 {
	if g.Epsilon <= 0 {
		return 1e-6
	}
	return g.Epsilon
}

// Area returns the enclosed area of the outline, independent of winding.
func (g Planar) Area(o model.Outline) float64 {
	if len(o) < 3 {
		return 0
	}
	return math.Abs(planar.Area(toRing(o)))
}

// Centroid returns the area centroid of the outline. Degenerate outlines
// fall back to the vertex average.
func (g Planar) Centroid(o model.Outline) model.Point2D {
	if len(o) == 0 {
		return model.Point2D{}
	}
	c, area := planar.CentroidArea(toRing(o))
	if area == 0 {
		return vertexMean(o)
	}
	return model.Point2D{X: c[0], Y: c[1]}
}

// Transform rotates the outline clockwise by angleDegrees about its own
// centroid and then translates it by (dx, dy). Clockwise is measured with
// the y axis pointing up. The input is left untouched.
func (g Planar) Transform(o model.Outline, dx, dy, angleDegrees float64) model.Outline {
	result := make(model.Outline, len(o))
	if len(o) == 0 {
		return result
	}
	if angleDegrees == 0 {
		for i, p := range o {
			result[i] = model.Point2D{X: p.X + dx, Y: p.Y + dy}
		}
		return result
	}
	c := g.Centroid(o)
	pivot := r2.Vec{X: c.X, Y: c.Y}
	alpha := -angleDegrees * math.Pi / 180
	for i, p := range o {
		v := r2.Rotate(r2.Vec{X: p.X, Y: p.Y}, alpha, pivot)
		result[i] = model.Point2D{X: v.X + dx, Y: v.Y + dy}
	}
	return result
}

func toRing(o model.Outline) orb.Ring {
	ring := make(orb.Ring, 0, len(o)+1)
	for _, p := range o {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	if len(o) > 0 && o[0] != o[len(o)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

func bound(o model.Outline) orb.Bound {
	min, max := o.BoundingBox()
	return orb.Bound{Min: orb.Point{min.X, min.Y}, Max: orb.Point{max.X, max.Y}}
}

func vertexMean(o model.Outline) model.Point2D {
	var sx, sy float64
	for _, p := range o {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(o))
	return model.Point2D{X: sx / n, Y: sy / n}
}

func vec(p model.Point2D) r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

func point(v r2.Vec) model.Point2D { return model.Point2D{X: v.X, Y: v.Y} }

// signedArea is positive for counter-clockwise rings in a y-up frame.
func signedArea(o model.Outline) float64 {
	var s float64
	for i := range o {
		a := o[i]
		b := o[(i+1)%len(o)]
		s += a.X*b.Y - b.X*a.Y
	}
	return s / 2
}
