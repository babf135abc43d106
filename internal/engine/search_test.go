package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/FitCheck/internal/geometry"
	"github.com/piwi3910/FitCheck/internal/model"
)

func request(obj model.Outline, placed ...model.Outline) PlaceRequest {
	return PlaceRequest{
		Container:  square(0, 0, 100),
		Object:     model.Object{Shape: model.Shape{ID: "obj", Label: "obj", Outline: obj}},
		Placed:     placed,
		Field:      model.Field{MaxX: 100, MaxY: 100},
		ShiftStep:  10,
		RotateStep: 5,
		MinDegree:  0,
		MaxDegree:  180,
	}
}

func TestStepsCountsHalfOpenRange(t *testing.T) {
	assert.Equal(t, 10, steps(0, 100, 10))
	assert.Equal(t, 11, steps(0, 101, 10))
	assert.Equal(t, 0, steps(5, 5, 10))
	assert.Equal(t, 0, steps(0, 100, 0))
}

func TestGridAngles(t *testing.T) {
	g := geometry.New(model.DefaultConfig())
	gr := newGrid(g, request(square(0, 0, 10)))
	require.Len(t, gr.angles, 36)
	assert.Equal(t, 0.0, gr.angles[0])
	assert.Equal(t, 175.0, gr.angles[35])
}

func TestGridSearchAvoidsPlaced(t *testing.T) {
	g := geometry.New(model.DefaultConfig())
	s := NewGridSearch(g, 1)

	occupied := square(0, 0, 50)
	out, err := s.Place(context.Background(), request(square(200, 200, 30), occupied))
	require.NoError(t, err)
	require.True(t, out.Found)

	assert.Equal(t, 0.0, g.IntersectionArea(out.Placement.Outline, occupied))
	assert.True(t, g.Contains(square(0, 0, 100), out.Placement.Outline))
	assert.Equal(t, "obj", out.Placement.ObjectID)
}

func TestGridSearchRotatesWhenNeeded(t *testing.T) {
	g := geometry.New(model.DefaultConfig())
	s := NewGridSearch(g, 1)

	// A 12 wide slot only admits a 90x10 bar standing upright.
	container := model.Outline{{X: 4, Y: 0}, {X: 16, Y: 0}, {X: 16, Y: 100}, {X: 4, Y: 100}}
	bar := model.Outline{{X: 0, Y: 0}, {X: 90, Y: 0}, {X: 90, Y: 10}, {X: 0, Y: 10}}
	req := request(bar)
	req.Container = container
	req.Field = model.Field{MaxX: 20, MaxY: 100}

	out, err := s.Place(context.Background(), req)
	require.NoError(t, err)
	require.True(t, out.Found)
	assert.Equal(t, 90.0, out.Placement.Pose.Angle)
	assert.True(t, g.Contains(container, out.Placement.Outline))
}

func TestGridSearchReportsExhaustion(t *testing.T) {
	g := geometry.New(model.DefaultConfig())
	s := NewGridSearch(g, 1)

	out, err := s.Place(context.Background(), request(square(0, 0, 60), square(0, 0, 60)))
	require.NoError(t, err)
	assert.False(t, out.Found)
	assert.Greater(t, out.PosesTried, int64(0))
}

func TestGridSearchDoesNotMutateRequest(t *testing.T) {
	g := geometry.New(model.DefaultConfig())
	s := NewGridSearch(g, 4)

	obj := square(200, 200, 30)
	placed := []model.Outline{square(0, 0, 50)}
	req := request(obj, placed...)
	before := obj.Clone()

	_, err := s.Place(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, before, obj)
	assert.Len(t, req.Placed, 1)
}

func TestBandedSearchMatchesSequential(t *testing.T) {
	g := geometry.New(model.DefaultConfig())
	occupied := []model.Outline{square(0, 0, 50), square(50, 50, 50)}
	req := request(square(300, 300, 35), occupied...)

	seq, err := NewGridSearch(g, 1).Place(context.Background(), req)
	require.NoError(t, err)
	require.True(t, seq.Found)

	for _, workers := range []int{2, 5, 10, 100} {
		par, err := NewGridSearch(g, workers).Place(context.Background(), req)
		require.NoError(t, err)
		require.True(t, par.Found, "workers=%d", workers)
		assert.Equal(t, seq.Placement.Pose, par.Placement.Pose, "workers=%d", workers)
	}
}
