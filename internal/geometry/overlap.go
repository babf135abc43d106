package geometry

import (
	"math"

	"github.com/piwi3910/FitCheck/internal/model"
)

type triangle struct {
	pts  [3]model.Point2D // counter-clockwise
	sign float64          // orientation of the triangle in its fan
}

// IntersectionArea returns the area of a ∩ b. Polygons that only share
// boundary points give zero.
//
// Both polygons are split into fans of signed triangles around their first
// vertex. The signed areas of all pairwise triangle intersections add up to
// the exact overlap, and every pairwise intersection is a convex clip, so
// collinear and coincident edges need no special casing.
func (g Planar) IntersectionArea(a, b model.Outline) float64 {
	if len(a) < 3 || len(b) < 3 {
		return 0
	}
	ba, bb := bound(a), bound(b)
	if ba.Min[0] >= bb.Max[0] || bb.Min[0] >= ba.Max[0] ||
		ba.Min[1] >= bb.Max[1] || bb.Min[1] >= ba.Max[1] {
		return 0
	}

	ta := fan(a)
	tb := fan(b)
	var total float64
	for _, t := range ta {
		tMin, tMax := triBounds(t)
		for _, u := range tb {
			uMin, uMax := triBounds(u)
			if tMin.X >= uMax.X || uMin.X >= tMax.X || tMin.Y >= uMax.Y || uMin.Y >= tMax.Y {
				continue
			}
			clipped := clipConvex(t.pts[:], u.pts[:])
			if len(clipped) < 3 {
				continue
			}
			total += t.sign * u.sign * math.Abs(signedArea(clipped))
		}
	}
	total = math.Abs(total)

	// Cancellation between fan triangles leaves rounding noise on touching
	// inputs; anything at that scale is no overlap.
	if total <= g.eps()*math.Max(1, math.Min(g.Area(a), g.Area(b))) {
		return 0
	}
	return total
}

func fan(o model.Outline) []triangle {
	tris := make([]triangle, 0, len(o)-2)
	for i := 1; i+1 < len(o); i++ {
		p := [3]model.Point2D{o[0], o[i], o[i+1]}
		s := cross(p[0], p[1], p[2])
		switch {
		case s > 0:
			tris = append(tris, triangle{pts: p, sign: 1})
		case s < 0:
			p[1], p[2] = p[2], p[1]
			tris = append(tris, triangle{pts: p, sign: -1})
		}
	}
	return tris
}

func triBounds(t triangle) (min, max model.Point2D) {
	return model.Outline(t.pts[:]).BoundingBox()
}

// clipConvex clips subject against the convex counter-clockwise polygon
// clip (Sutherland-Hodgman).
func clipConvex(subject, clip []model.Point2D) []model.Point2D {
	out := append([]model.Point2D(nil), subject...)
	for i := range clip {
		if len(out) == 0 {
			break
		}
		e0, e1 := clip[i], clip[(i+1)%len(clip)]
		in := out
		out = make([]model.Point2D, 0, len(in)+1)
		for k := range in {
			cur := in[k]
			prev := in[(k+len(in)-1)%len(in)]
			curIn := cross(e0, e1, cur) >= 0
			prevIn := cross(e0, e1, prev) >= 0
			if curIn {
				if !prevIn {
					out = append(out, lineIntersect(prev, cur, e0, e1))
				}
				out = append(out, cur)
			} else if prevIn {
				out = append(out, lineIntersect(prev, cur, e0, e1))
			}
		}
	}
	return out
}

// lineIntersect returns where segment pq meets the infinite line through
// e0 and e1. Callers guarantee p and q lie on opposite sides.
func lineIntersect(p, q, e0, e1 model.Point2D) model.Point2D {
	cp := cross(e0, e1, p)
	cq := cross(e0, e1, q)
	t := cp / (cp - cq)
	return model.Point2D{X: p.X + t*(q.X-p.X), Y: p.Y + t*(q.Y-p.Y)}
}
