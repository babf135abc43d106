package geometry

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/piwi3910/FitCheck/internal/model"
)

type circle struct {
	center r2.Vec
	radius float64
}

func (c circle) contains(p r2.Vec) bool {
	return r2.Norm(r2.Sub(p, c.center)) <= c.radius*(1+1e-12)+1e-9
}

// EnclosingCircleDiameter returns twice the radius of the smallest circle
// containing every vertex of o.
func (g Planar) EnclosingCircleDiameter(o model.Outline) float64 {
	return 2 * minEnclosingCircle(o).radius
}

// minEnclosingCircle runs Welzl's incremental algorithm. Points are visited
// in a shuffled order from a fixed seed so the result and the running time
// do not depend on how the outline was traced.
func minEnclosingCircle(o model.Outline) circle {
	if len(o) == 0 {
		return circle{}
	}
	pts := make([]r2.Vec, len(o))
	for i, p := range o {
		pts[i] = vec(p)
	}
	rng := rand.New(rand.NewPCG(1, uint64(len(pts))))
	rng.Shuffle(len(pts), func(i, j int) { pts[i], pts[j] = pts[j], pts[i] })

	c := circle{center: pts[0]}
	for i := 1; i < len(pts); i++ {
		if c.contains(pts[i]) {
			continue
		}
		c = circle{center: pts[i]}
		for j := 0; j < i; j++ {
			if c.contains(pts[j]) {
				continue
			}
			c = diametral(pts[i], pts[j])
			for k := 0; k < j; k++ {
				if c.contains(pts[k]) {
					continue
				}
				c = circumscribed(pts[i], pts[j], pts[k])
			}
		}
	}
	return c
}

func diametral(a, b r2.Vec) circle {
	return circle{
		center: r2.Scale(0.5, r2.Add(a, b)),
		radius: r2.Norm(r2.Sub(a, b)) / 2,
	}
}

// circumscribed returns the circle through a, b and c. Collinear points get
// the circle spanning the farthest pair.
func circumscribed(a, b, c r2.Vec) circle {
	ab := r2.Sub(b, a)
	ac := r2.Sub(c, a)
	d := 2 * r2.Cross(ab, ac)
	if math.Abs(d) < 1e-12 {
		best := diametral(a, b)
		for _, cand := range []circle{diametral(a, c), diametral(b, c)} {
			if cand.radius > best.radius {
				best = cand
			}
		}
		return best
	}
	abn := r2.Norm2(ab)
	acn := r2.Norm2(ac)
	offset := r2.Vec{
		X: (ac.Y*abn - ab.Y*acn) / d,
		Y: (ab.X*acn - ac.X*abn) / d,
	}
	return circle{center: r2.Add(a, offset), radius: r2.Norm(offset)}
}
