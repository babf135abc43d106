package geometry

import (
	"fmt"

	"github.com/piwi3910/FitCheck/internal/model"
)

// Validate returns a simple version of o. Repeated and collinear vertices
// are dropped; a self-intersecting ring is cut at each crossing into simple
// loops and the loop with the greatest area is kept. ErrDegeneratePolygon is
// returned when no loop with positive area remains.
func (g Planar) Validate(o model.Outline) (model.Outline, error) {
	if len(o) < 3 {
		return nil, fmt.Errorf("%w: %d vertices", model.ErrDegeneratePolygon, len(o))
	}
	var best model.Outline
	var bestArea float64
	for _, loop := range g.splitLoops(o) {
		if a := g.Area(loop); a > bestArea {
			best, bestArea = loop, a
		}
	}
	if best == nil || bestArea <= g.eps()*g.eps() {
		return nil, fmt.Errorf("%w: zero area", model.ErrDegeneratePolygon)
	}
	return best, nil
}

// IsSimple reports whether o encloses a positive area and no two
// non-adjacent edges touch or cross.
func (g Planar) IsSimple(o model.Outline) bool {
	c := g.clean(o)
	if len(c) < 3 || g.Area(c) <= g.eps()*g.eps() {
		return false
	}
	_, _, _, found := g.firstSelfIntersection(c)
	return !found
}

// clean drops repeated vertices and vertices lying on the line through
// their neighbours, until none are left.
func (g Planar) clean(o model.Outline) model.Outline {
	pts := o.Clone()
	for changed := true; changed && len(pts) >= 3; {
		changed = false
		out := make(model.Outline, 0, len(pts))
		for _, p := range pts {
			if len(out) > 0 && dist(out[len(out)-1], p) <= g.eps() {
				changed = true
				continue
			}
			out = append(out, p)
		}
		for len(out) > 1 && dist(out[0], out[len(out)-1]) <= g.eps() {
			out = out[:len(out)-1]
			changed = true
		}
		pts = out
		if len(pts) < 3 {
			break
		}
		n := len(pts)
		for i := 0; i < n; i++ {
			prev := pts[(i+n-1)%n]
			next := pts[(i+1)%n]
			if g.side(prev, next, pts[i]) == 0 {
				pts = append(pts[:i:i], pts[i+1:]...)
				changed = true
				break
			}
		}
	}
	return pts
}

// firstSelfIntersection finds the first pair of non-adjacent edges (i, j)
// with i < j that share a point.
func (g Planar) firstSelfIntersection(o model.Outline) (int, int, model.Point2D, bool) {
	n := len(o)
	for i := 0; i < n; i++ {
		a, b := o[i], o[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if p, ok := g.intersection(a, b, o[j], o[(j+1)%n]); ok {
				return i, j, p, true
			}
		}
	}
	return 0, 0, model.Point2D{}, false
}

// splitLoops cuts o at its self-intersections and returns the simple loops.
// Every cut yields two loops each shorter than o, so recursion terminates.
func (g Planar) splitLoops(o model.Outline) []model.Outline {
	c := g.clean(o)
	if len(c) < 3 {
		return nil
	}
	i, j, p, found := g.firstSelfIntersection(c)
	if !found {
		return []model.Outline{c}
	}
	first := model.Outline{p}
	first = append(first, c[i+1:j+1]...)

	second := model.Outline{p}
	second = append(second, c[j+1:]...)
	second = append(second, c[:i+1]...)

	loops := g.splitLoops(first)
	return append(loops, g.splitLoops(second)...)
}
