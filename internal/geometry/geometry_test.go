package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/FitCheck/internal/model"
)

func square(x, y, size float64) model.Outline {
	return model.Outline{
		{X: x, Y: y},
		{X: x + size, Y: y},
		{X: x + size, Y: y + size},
		{X: x, Y: y + size},
	}
}

func regularPolygon(cx, cy, r float64, n int) model.Outline {
	o := make(model.Outline, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		o[i] = model.Point2D{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return o
}

func newPlanar() Planar {
	return New(model.DefaultConfig())
}

func TestAreaIgnoresWinding(t *testing.T) {
	g := newPlanar()
	sq := square(0, 0, 100)
	assert.InDelta(t, 10000.0, g.Area(sq), 1e-9)

	reversed := make(model.Outline, len(sq))
	for i := range sq {
		reversed[i] = sq[len(sq)-1-i]
	}
	assert.InDelta(t, 10000.0, g.Area(reversed), 1e-9)
	assert.Equal(t, 0.0, g.Area(model.Outline{{X: 0, Y: 0}, {X: 1, Y: 1}}))
}

func TestCentroid(t *testing.T) {
	g := newPlanar()
	c := g.Centroid(square(10, 20, 40))
	assert.InDelta(t, 30.0, c.X, 1e-9)
	assert.InDelta(t, 40.0, c.Y, 1e-9)
}

func TestEnclosingCircleDiameter(t *testing.T) {
	g := newPlanar()

	tests := []struct {
		name    string
		outline model.Outline
		want    float64
	}{
		{"square", square(0, 0, 100), 100 * math.Sqrt2},
		{"regular 64-gon", regularPolygon(50, 50, 30, 64), 60},
		{"obtuse triangle", model.Outline{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 1}}, 10},
		{"single point", model.Outline{{X: 3, Y: 3}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, g.EnclosingCircleDiameter(tt.outline), 1e-6)
		})
	}
}

func TestEnclosingCircleIsDeterministic(t *testing.T) {
	g := newPlanar()
	o := regularPolygon(0, 0, 17, 200)
	first := g.EnclosingCircleDiameter(o)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, g.EnclosingCircleDiameter(o))
	}
}

func TestTransformIdentity(t *testing.T) {
	g := newPlanar()
	o := regularPolygon(12, 34, 10, 7)
	got := g.Transform(o, 0, 0, 0)
	require.Len(t, got, len(o))
	for i := range o {
		assert.InDelta(t, o[i].X, got[i].X, 1e-9)
		assert.InDelta(t, o[i].Y, got[i].Y, 1e-9)
	}
}

func TestTransformFullTurnIsIdentity(t *testing.T) {
	g := newPlanar()
	o := model.Outline{{X: 0, Y: 0}, {X: 30, Y: 0}, {X: 0, Y: 10}}
	got := g.Transform(o, 0, 0, 360)
	for i := range o {
		assert.InDelta(t, o[i].X, got[i].X, 1e-9)
		assert.InDelta(t, o[i].Y, got[i].Y, 1e-9)
	}
}

func TestTransformRotatesAboutCentroidThenTranslates(t *testing.T) {
	g := newPlanar()
	// A 20x2 bar centred on (10, 1).
	bar := model.Outline{{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 2}, {X: 0, Y: 2}}
	got := g.Transform(bar, 5, 5, 90)

	min, max := got.BoundingBox()
	assert.InDelta(t, 14.0, min.X, 1e-9)
	assert.InDelta(t, 16.0, max.X, 1e-9)
	assert.InDelta(t, -4.0, min.Y, 1e-9)
	assert.InDelta(t, 16.0, max.Y, 1e-9)

	c := g.Centroid(got)
	assert.InDelta(t, 15.0, c.X, 1e-9)
	assert.InDelta(t, 6.0, c.Y, 1e-9)
	assert.InDelta(t, g.Area(bar), g.Area(got), 1e-9)

	// Input untouched.
	assert.Equal(t, model.Point2D{X: 0, Y: 0}, bar[0])
}

func TestTransformRotationDirection(t *testing.T) {
	g := newPlanar()
	// Rotating a right-pointing arrow clockwise by 90 degrees (y up) makes
	// it point towards negative y.
	arrow := model.Outline{{X: -1, Y: -1}, {X: 3, Y: 0}, {X: -1, Y: 1}}
	c := g.Centroid(arrow)
	got := g.Transform(arrow, 0, 0, 90)
	tip := got[1]
	assert.InDelta(t, c.X, tip.X, 1e-9)
	assert.Less(t, tip.Y, c.Y)
}

func TestContains(t *testing.T) {
	g := newPlanar()
	container := square(0, 0, 100)

	tests := []struct {
		name      string
		candidate model.Outline
		want      bool
	}{
		{"strictly inside", square(10, 10, 20), true},
		{"identical", square(0, 0, 100), true},
		{"sharing two edges", square(0, 0, 40), true},
		{"vertex outside", square(90, 90, 20), false},
		{"fully outside", square(200, 200, 10), false},
		{"touching from outside", square(100, 0, 10), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Contains(container, tt.candidate))
		})
	}
}

func TestContainsRejectsEdgeThroughNotch(t *testing.T) {
	g := newPlanar()
	// L shape: the 50x50 top-right quadrant of the 100 square is cut away.
	lshape := model.Outline{
		{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 50, Y: 50}, {X: 100, Y: 50},
		{X: 100, Y: 100}, {X: 0, Y: 100},
	}
	// Every vertex sits inside the L, but the long edge cuts across the
	// missing quadrant.
	tri := model.Outline{{X: 10, Y: 10}, {X: 90, Y: 60}, {X: 10, Y: 60}}
	ring := toRing(lshape)
	for _, p := range tri {
		require.True(t, g.insideOrOn(ring, lshape, p), "vertex %v should be inside", p)
	}
	assert.False(t, g.Contains(lshape, tri))

	// A triangle hugging the reflex corner stays inside.
	hug := model.Outline{{X: 10, Y: 10}, {X: 50, Y: 50}, {X: 10, Y: 50}}
	assert.True(t, g.Contains(lshape, hug))
}

func TestIntersectionArea(t *testing.T) {
	g := newPlanar()

	tests := []struct {
		name string
		a, b model.Outline
		want float64
	}{
		{"disjoint", square(0, 0, 10), square(50, 50, 10), 0},
		{"sharing an edge", square(0, 0, 10), square(10, 0, 10), 0},
		{"sharing a corner", square(0, 0, 10), square(10, 10, 10), 0},
		{"quarter overlap", square(0, 0, 10), square(5, 5, 10), 25},
		{"identical", square(0, 0, 10), square(0, 0, 10), 100},
		{"nested", square(0, 0, 100), square(20, 20, 10), 100},
		{"collinear strip", square(0, 0, 10), square(0, 8, 10), 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, g.IntersectionArea(tt.a, tt.b), 1e-6)
			assert.InDelta(t, tt.want, g.IntersectionArea(tt.b, tt.a), 1e-6)
		})
	}
}

func TestIntersectionAreaConcave(t *testing.T) {
	g := newPlanar()
	// U shape opening upwards (y down): the gap is x in [30,70], y in [0,70].
	u := model.Outline{
		{X: 0, Y: 0}, {X: 30, Y: 0}, {X: 30, Y: 70}, {X: 70, Y: 70},
		{X: 70, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
	}
	// Block sitting in the gap touches three sides and overlaps nothing.
	assert.Equal(t, 0.0, g.IntersectionArea(u, square(30, 30, 40)))
	// Block straddling the bottom of the gap: y in [70,80] is solid.
	assert.InDelta(t, 200.0, g.IntersectionArea(u, square(40, 60, 20)), 1e-6)
	// Rotated square against an axis-aligned one.
	diamond := model.Outline{{X: 5, Y: 0}, {X: 10, Y: 5}, {X: 5, Y: 10}, {X: 0, Y: 5}}
	assert.InDelta(t, 50.0, g.IntersectionArea(diamond, square(0, 0, 10)), 1e-6)
}

func TestValidateKeepsValidPolygon(t *testing.T) {
	g := newPlanar()
	o := regularPolygon(0, 0, 20, 12)
	got, err := g.Validate(o)
	require.NoError(t, err)
	assert.True(t, g.IsSimple(got))
	assert.InDelta(t, g.Area(o), g.Area(got), 1e-9)
}

func TestValidateDropsDuplicateAndCollinearVertices(t *testing.T) {
	g := newPlanar()
	o := model.Outline{
		{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0},
		{X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0},
	}
	got, err := g.Validate(o)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.InDelta(t, 100.0, g.Area(got), 1e-9)
}

func TestValidateSplitsBowtie(t *testing.T) {
	g := newPlanar()
	bowtie := model.Outline{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 10}}
	require.False(t, g.IsSimple(bowtie))

	got, err := g.Validate(bowtie)
	require.NoError(t, err)
	assert.True(t, g.IsSimple(got))
	assert.InDelta(t, 25.0, g.Area(got), 1e-9)
	// The kept lobe is never larger than what the input encloses.
	assert.LessOrEqual(t, g.Area(got), 50.0)
}

func TestValidateKeepsLargestLobe(t *testing.T) {
	g := newPlanar()
	// Figure eight with a big lobe on the left and a small one on the right,
	// crossing at (20, 10).
	eight := model.Outline{
		{X: 0, Y: 0}, {X: 30, Y: 15}, {X: 30, Y: 5}, {X: 0, Y: 20},
	}
	got, err := g.Validate(eight)
	require.NoError(t, err)
	assert.True(t, g.IsSimple(got))
	// Left lobe: triangle (0,0), (20,10), (0,20) = 200.
	assert.InDelta(t, 200.0, g.Area(got), 1e-6)
}

func TestValidateDegenerate(t *testing.T) {
	g := newPlanar()
	tests := []struct {
		name    string
		outline model.Outline
	}{
		{"empty", model.Outline{}},
		{"two points", model.Outline{{X: 0, Y: 0}, {X: 1, Y: 1}}},
		{"collinear", model.Outline{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 10, Y: 10}}},
		{"repeated point", model.Outline{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Validate(tt.outline)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrDegeneratePolygon))
		})
	}
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	g := newPlanar()
	o := model.Outline{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	before := o.Clone()
	_, err := g.Validate(o)
	require.NoError(t, err)
	assert.Equal(t, before, o)
}

func TestIsSimple(t *testing.T) {
	g := newPlanar()
	if !g.IsSimple(square(0, 0, 1)) {
		t.Error("square should be simple")
	}
	if g.IsSimple(model.Outline{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 10}}) {
		t.Error("bowtie should not be simple")
	}
	if g.IsSimple(model.Outline{{X: 0, Y: 0}, {X: 1, Y: 0}}) {
		t.Error("segment should not be simple")
	}
}
