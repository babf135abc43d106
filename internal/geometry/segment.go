package geometry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/piwi3910/FitCheck/internal/model"
)

// cross returns the z component of (b-a) x (c-a).
func cross(a, b, c model.Point2D) float64 {
	return r2.Cross(r2.Sub(vec(b), vec(a)), r2.Sub(vec(c), vec(a)))
}

func dist(a, b model.Point2D) float64 {
	return r2.Norm(r2.Sub(vec(b), vec(a)))
}

// distToSegment returns the distance from p to the segment ab and the
// parameter of the closest point along ab in [0,1].
func distToSegment(p, a, b model.Point2D) (float64, float64) {
	ab := r2.Sub(vec(b), vec(a))
	l2 := r2.Norm2(ab)
	if l2 == 0 {
		return dist(p, a), 0
	}
	t := r2.Dot(r2.Sub(vec(p), vec(a)), ab) / l2
	t = math.Max(0, math.Min(1, t))
	closest := r2.Add(vec(a), r2.Scale(t, ab))
	return r2.Norm(r2.Sub(vec(p), closest)), t
}

func (g Planar) onSegment(p, a, b model.Point2D) bool {
	d, _ := distToSegment(p, a, b)
	return d <= g.eps()
}

// side classifies c against the directed line ab: +1 left, -1 right, 0 when
// c lies within epsilon of the line.
func (g Planar) side(a, b, c model.Point2D) int {
	l := dist(a, b)
	cr := cross(a, b, c)
	if math.Abs(cr) <= g.eps()*math.Max(l, 1) {
		return 0
	}
	if cr > 0 {
		return 1
	}
	return -1
}

// crossesProperly reports whether segments pq and rs cross at a single
// interior point of both.
func (g Planar) crossesProperly(p, q, r, s model.Point2D) bool {
	d1 := g.side(r, s, p)
	d2 := g.side(r, s, q)
	d3 := g.side(p, q, r)
	d4 := g.side(p, q, s)
	return d1*d2 < 0 && d3*d4 < 0
}

// intersection returns a point shared by segments pq and rs, if any.
// Proper crossings return the crossing point; touching and collinear
// overlaps return one of the touching endpoints.
func (g Planar) intersection(p, q, r, s model.Point2D) (model.Point2D, bool) {
	d1 := g.side(r, s, p)
	d2 := g.side(r, s, q)
	d3 := g.side(p, q, r)
	d4 := g.side(p, q, s)
	if d1*d2 < 0 && d3*d4 < 0 {
		c1 := cross(r, s, p)
		c2 := cross(r, s, q)
		t := c1 / (c1 - c2)
		return point(r2.Add(vec(p), r2.Scale(t, r2.Sub(vec(q), vec(p))))), true
	}
	switch {
	case d1 == 0 && g.onSegment(p, r, s):
		return p, true
	case d2 == 0 && g.onSegment(q, r, s):
		return q, true
	case d3 == 0 && g.onSegment(r, p, q):
		return r, true
	case d4 == 0 && g.onSegment(s, p, q):
		return s, true
	}
	return model.Point2D{}, false
}

// splitParams returns the sorted parameters along ab at which the boundary
// of ring touches or crosses ab, including 0 and 1.
func (g Planar) splitParams(a, b model.Point2D, ring model.Outline) []float64 {
	ts := []float64{0, 1}
	ab := r2.Sub(vec(b), vec(a))
	l2 := r2.Norm2(ab)
	if l2 == 0 {
		return ts
	}
	param := func(p model.Point2D) float64 {
		return r2.Dot(r2.Sub(vec(p), vec(a)), ab) / l2
	}
	n := len(ring)
	for i := 0; i < n; i++ {
		r := ring[i]
		s := ring[(i+1)%n]
		if g.onSegment(r, a, b) {
			ts = append(ts, param(r))
		}
		if g.onSegment(s, a, b) {
			ts = append(ts, param(s))
		}
		if g.crossesProperly(a, b, r, s) {
			if p, ok := g.intersection(a, b, r, s); ok {
				ts = append(ts, param(p))
			}
		}
	}
	sort.Float64s(ts)
	return ts
}
