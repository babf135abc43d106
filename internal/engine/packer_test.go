package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/piwi3910/FitCheck/internal/geometry"
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

// scene returns a 100x100 container at the origin followed by square
// objects of the given sizes, laid out below it like they would be in a
// photo.
func scene(sizes ...float64) []model.Shape {
	shapes := []model.Shape{model.NewShape("container", square(0, 0, 100))}
	x := 0.0
	for i, s := range sizes {
		shapes = append(shapes, model.NewShape(
			"object-"+string(rune('a'+i)),
			square(x, 150, s),
		))
		x += s + 20
	}
	return shapes
}

type failingSearcher struct{ t *testing.T }

func (f failingSearcher) Place(context.Context, PlaceRequest) (Outcome, error) {
	f.t.Fatal("search must not run")
	return Outcome{}, nil
}

func assertValidPlacement(t *testing.T, result model.PackingResult) {
	t.Helper()
	g := geometry.New(model.DefaultConfig())
	for i, p := range result.Placements {
		assert.True(t, g.Contains(result.Container.Outline, p.Outline), "placement %d escapes the container", i)
		for j := i + 1; j < len(result.Placements); j++ {
			assert.Equal(t, 0.0, g.IntersectionArea(p.Outline, result.Placements[j].Outline),
				"placements %d and %d overlap", i, j)
		}
	}
}

func TestRunSmallSquareFits(t *testing.T) {
	packer := New(model.DefaultConfig())
	result, err := packer.Run(context.Background(), scene(40), model.Field{})
	require.NoError(t, err)

	assert.True(t, result.Feasible)
	assert.Equal(t, model.ReasonFits, result.Reason)
	require.Len(t, result.Placements, 1)

	min, max := result.Placements[0].Outline.BoundingBox()
	assert.GreaterOrEqual(t, min.X, -1e-6)
	assert.GreaterOrEqual(t, min.Y, -1e-6)
	assert.LessOrEqual(t, max.X, 100+1e-6)
	assert.LessOrEqual(t, max.Y, 100+1e-6)
	assertValidPlacement(t, result)
}

func TestRunFirstFitPose(t *testing.T) {
	packer := New(model.DefaultConfig())
	result, err := packer.Run(context.Background(), scene(40), model.Field{})
	require.NoError(t, err)
	require.Len(t, result.Placements, 1)

	// Object centroid is (20, 170); the first grid point that holds a 40
	// square puts its centroid at (20, 20) without rotation.
	want := model.Pose{DX: 0, DY: -150, Angle: 0}
	if diff := cmp.Diff(want, result.Placements[0].Pose); diff != "" {
		t.Errorf("pose mismatch (-want +got):\n%s", diff)
	}
}

func TestRunOversizedObjectFailsDiameterCheck(t *testing.T) {
	packer := New(model.DefaultConfig())
	packer.Searcher = failingSearcher{t: t}

	result, err := packer.Run(context.Background(), scene(150), model.Field{})
	require.NoError(t, err)
	assert.False(t, result.Feasible)
	assert.Equal(t, model.ReasonDiameter, result.Reason)
	assert.Empty(t, result.Placements)
}

func TestRunTwoLargeSquaresExhaustSearch(t *testing.T) {
	packer := New(model.DefaultConfig())
	result, err := packer.Run(context.Background(), scene(60, 60), model.Field{})
	require.NoError(t, err)

	assert.False(t, result.Feasible)
	assert.Equal(t, model.ReasonSearchExhausted, result.Reason)
	assert.Equal(t, "object-b", result.FailedObject)
	assert.Empty(t, result.Placements, "partial placements must be discarded")
	assert.Greater(t, result.Stats.PosesTried, int64(0))
}

func TestRunTwoSmallSquaresFit(t *testing.T) {
	packer := New(model.DefaultConfig())
	result, err := packer.Run(context.Background(), scene(30, 30), model.Field{})
	require.NoError(t, err)

	assert.True(t, result.Feasible)
	require.Len(t, result.Placements, 2)
	assert.Equal(t, "object-a", result.Placements[0].Label)
	assert.Equal(t, "object-b", result.Placements[1].Label)
	assertValidPlacement(t, result)
}

func TestRunIsRepeatable(t *testing.T) {
	shapes := scene(30, 30, 20)
	first, err := New(model.DefaultConfig()).Run(context.Background(), shapes, model.Field{})
	require.NoError(t, err)
	second, err := New(model.DefaultConfig()).Run(context.Background(), shapes, model.Field{})
	require.NoError(t, err)

	assert.Equal(t, first.Feasible, second.Feasible)
	if diff := cmp.Diff(first.Placements, second.Placements); diff != "" {
		t.Errorf("placements differ between runs (-first +second):\n%s", diff)
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	shapes := scene(30, 30, 20)

	seq, err := New(model.DefaultConfig()).Run(context.Background(), shapes, model.Field{})
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 8, 64} {
		cfg := model.DefaultConfig()
		cfg.Workers = workers
		par, err := New(cfg).Run(context.Background(), shapes, model.Field{})
		require.NoError(t, err)

		assert.Equal(t, seq.Feasible, par.Feasible, "workers=%d", workers)
		if diff := cmp.Diff(seq.Placements, par.Placements); diff != "" {
			t.Errorf("workers=%d placements differ (-seq +par):\n%s", workers, diff)
		}
	}
}

func TestRunCancelledIsIndeterminate(t *testing.T) {
	for _, workers := range []int{1, 4} {
		cfg := model.DefaultConfig()
		cfg.Workers = workers
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(cfg).Run(ctx, scene(30, 30), model.Field{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrIndeterminate), "workers=%d: %v", workers, err)
		assert.True(t, errors.Is(err, context.Canceled))
	}
}

func TestRunNoShapes(t *testing.T) {
	_, err := New(model.DefaultConfig()).Run(context.Background(), nil, model.Field{})
	assert.True(t, errors.Is(err, model.ErrNoContainer))
}

func TestRunContainerOnly(t *testing.T) {
	result, err := New(model.DefaultConfig()).Run(context.Background(), scene(), model.Field{})
	require.NoError(t, err)
	assert.True(t, result.Feasible)
	assert.Equal(t, model.ReasonNoObjects, result.Reason)
	assert.Empty(t, result.Placements)
}

func TestRunDegenerateObject(t *testing.T) {
	shapes := scene(30)
	shapes = append(shapes, model.NewShape("line", model.Outline{{X: 0, Y: 300}, {X: 10, Y: 310}, {X: 20, Y: 320}}))

	_, err := New(model.DefaultConfig()).Run(context.Background(), shapes, model.Field{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrDegeneratePolygon))
	assert.Contains(t, err.Error(), "line")
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.ShiftStep = 0
	_, err := New(cfg).Run(context.Background(), scene(30), model.Field{})
	assert.True(t, errors.Is(err, model.ErrInvalidConfig))
}

func TestRunAreaPrefilter(t *testing.T) {
	// Three 90 squares pass the diameter test but cover 2.43x the container.
	shapes := scene(90, 90, 90)

	packer := New(model.DefaultConfig())
	packer.Searcher = failingSearcher{t: t}
	result, err := packer.Run(context.Background(), shapes, model.Field{})
	require.NoError(t, err)
	assert.False(t, result.Feasible)
	assert.Equal(t, model.ReasonArea, result.Reason)

	cfg := model.DefaultConfig()
	cfg.AreaPrefilter = false
	result, err = New(cfg).Run(context.Background(), shapes, model.Field{})
	require.NoError(t, err)
	assert.False(t, result.Feasible)
	assert.Equal(t, model.ReasonSearchExhausted, result.Reason)
}

func TestRunPicksTopmostShapeAsContainer(t *testing.T) {
	// The container is listed last but reaches highest in the picture.
	shapes := []model.Shape{
		model.NewShape("object", square(300, 300, 20)),
		model.NewShape("container", square(0, 0, 100)),
	}
	result, err := New(model.DefaultConfig()).Run(context.Background(), shapes, model.Field{})
	require.NoError(t, err)
	assert.Equal(t, "container", result.Container.Label)
	require.Len(t, result.Objects, 1)
	assert.Equal(t, "object", result.Objects[0].Label)
	assert.True(t, result.Feasible)
}

func TestRunUsesImageField(t *testing.T) {
	shapes := []model.Shape{
		model.NewShape("container", square(200, 10, 100)),
		model.NewShape("object", square(10, 200, 40)),
	}
	result, err := New(model.DefaultConfig()).Run(context.Background(), shapes, model.FieldFromImage(400, 300))
	require.NoError(t, err)
	assert.True(t, result.Feasible)
	assertValidPlacement(t, result)
}

func TestRunContainerAwayFromOrigin(t *testing.T) {
	tests := []struct {
		name      string
		container model.Outline
		object    model.Outline
	}{
		{"negative quadrant", square(-100, -100, 100), square(-100, 50, 20)},
		{"offset right and up", square(50, -100, 100), square(0, 50, 20)},
		{"far from origin", square(1000, 2000, 100), square(1000, 2200, 40)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shapes := []model.Shape{
				model.NewShape("container", tt.container),
				model.NewShape("object", tt.object),
			}
			result, err := New(model.DefaultConfig()).Run(context.Background(), shapes, model.Field{})
			require.NoError(t, err)
			assert.True(t, result.Feasible, "reason %s", result.Reason)
			assert.Equal(t, model.ReasonFits, result.Reason)
			assert.Greater(t, result.Stats.PosesTried, int64(0))
			assertValidPlacement(t, result)
		})
	}
}

func TestRunLogsSummary(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	packer := New(model.DefaultConfig())
	packer.Logger = zap.New(core)

	_, err := packer.Run(context.Background(), scene(30), model.Field{})
	require.NoError(t, err)

	entries := logs.FilterMessage("packing finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, true, entries[0].ContextMap()["feasible"])
}

func TestContainerIndexTiesKeepEarliest(t *testing.T) {
	shapes := []model.Shape{
		{Label: "a", Outline: square(0, 10, 5)},
		{Label: "b", Outline: square(50, 5, 5)},
		{Label: "c", Outline: square(90, 5, 5)},
	}
	assert.Equal(t, 1, ContainerIndex(shapes))
	assert.Equal(t, -1, ContainerIndex(nil))
}
