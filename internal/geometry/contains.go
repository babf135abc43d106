package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/piwi3910/FitCheck/internal/model"
)

// Contains reports whether every point of candidate lies inside container
// or on its boundary. Shared edges and touching vertices count as inside.
func (g Planar) Contains(container, candidate model.Outline) bool {
	if len(container) < 3 || len(candidate) == 0 {
		return false
	}
	outer := bound(container).Pad(g.eps())
	inner := bound(candidate)
	if !outer.Contains(inner.Min) || !outer.Contains(inner.Max) {
		return false
	}

	ring := toRing(container)
	for _, p := range candidate {
		if !g.insideOrOn(ring, container, p) {
			return false
		}
	}

	// Vertices alone miss edges that leave through a reflex corner, so each
	// candidate edge is cut wherever it meets the container boundary and
	// every piece is probed at its midpoint.
	n := len(candidate)
	for i := 0; i < n; i++ {
		a, b := candidate[i], candidate[(i+1)%n]
		for k := 0; k < len(container); k++ {
			r, s := container[k], container[(k+1)%len(container)]
			if g.crossesProperly(a, b, r, s) {
				return false
			}
		}
		ts := g.splitParams(a, b, container)
		for k := 1; k < len(ts); k++ {
			if ts[k]-ts[k-1] <= 1e-12 {
				continue
			}
			t := (ts[k] + ts[k-1]) / 2
			mid := model.Point2D{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}
			if !g.insideOrOn(ring, container, mid) {
				return false
			}
		}
	}
	return true
}

func (g Planar) insideOrOn(ring orb.Ring, o model.Outline, p model.Point2D) bool {
	if planar.RingContains(ring, orb.Point{p.X, p.Y}) {
		return true
	}
	n := len(o)
	for i := 0; i < n; i++ {
		if g.onSegment(p, o[i], o[(i+1)%n]) {
			return true
		}
	}
	return false
}
