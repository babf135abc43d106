package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/FitCheck/internal/model"
)

func TestSaveAndLoadProject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "scene.fitcheck.json")

	proj := model.NewProject()
	proj.Name = "desk"
	proj.Source = "desk.jpg"
	proj.Field = model.FieldFromImage(640, 480)
	proj.Shapes = []model.Shape{
		model.NewShape("shape-1", model.Outline{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}),
		model.NewShape("shape-2", model.Outline{{X: 0, Y: 150}, {X: 30, Y: 150}, {X: 30, Y: 180}}),
	}
	proj.Config.RotateStep = 10
	proj.Result = &model.PackingResult{Feasible: true, Reason: model.ReasonFits}

	if err := SaveProject(path, proj); err != nil {
		t.Fatalf("SaveProject failed: %v", err)
	}

	snap, err := LoadProject(path)
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}

	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.NotEmpty(t, snap.CreatedAt)
	if diff := cmp.Diff(proj, snap.Project); diff != "" {
		t.Errorf("project mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadProjectMissingFile(t *testing.T) {
	_, err := LoadProject(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadProjectInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json}"), 0644))

	_, err := LoadProject(path)
	assert.Error(t, err)
}

func TestLoadProjectMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noversion.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"project":{"name":"x"}}`), 0644))

	_, err := LoadProject(path)
	assert.Error(t, err)
}

func TestLoadProjectPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	data := []byte(`{"version":"1.0.0","project":{"name":"x","config":{"shift_step":3}}}`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	snap, err := LoadProject(path)
	require.NoError(t, err)
	assert.Equal(t, "x", snap.Project.Name)
	assert.Equal(t, 3.0, snap.Project.Config.ShiftStep)
	assert.Equal(t, 5.0, snap.Project.Config.RotateStep)
	assert.NotNil(t, snap.Project.Shapes)
}
