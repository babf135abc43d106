package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/FitCheck/internal/model"
)

func TestExportLabels_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")

	err := ExportLabels(path, buildFeasibleResult())
	if err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	assertNonEmptyFile(t, path)
}

func TestExportLabels_Infeasible(t *testing.T) {
	path := filepath.Join(t.TempDir(), "infeasible.pdf")

	err := ExportLabels(path, buildInfeasibleResult())
	if err == nil {
		t.Fatal("expected error for infeasible result, got nil")
	}
}

func TestExportLabels_ManyObjects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "many_labels.pdf")

	// More than one page of labels.
	r := buildFeasibleResult()
	r.Objects = nil
	r.Placements = nil
	for i := 0; i < 35; i++ {
		id := fmt.Sprintf("o%02d", i)
		r.Objects = append(r.Objects, model.Object{Shape: model.Shape{ID: id, Label: "Object " + id, Outline: square(0, 0, 2)}, Area: 4})
		r.Placements = append(r.Placements, model.Placement{ObjectID: id, Label: "Object " + id, Outline: square(float64(i%10)*3, float64(i/10)*3, 2)})
	}

	require.NoError(t, ExportLabels(path, r))
	assertNonEmptyFile(t, path)
}

func TestCollectLabelInfos(t *testing.T) {
	labels := CollectLabelInfos(buildFeasibleResult())

	if len(labels) != 2 {
		t.Fatalf("expected 2 labels, got %d", len(labels))
	}
	assert.Equal(t, LabelInfo{ObjectID: "o1", Label: "coaster", Index: 1, DX: 0, DY: -150, Area: 900}, labels[0])
	assert.Equal(t, 90.0, labels[1].Angle)
	assert.Equal(t, 2, labels[1].Index)

	assert.Empty(t, CollectLabelInfos(buildInfeasibleResult()))
}

func TestLabelInfo_JSONKeys(t *testing.T) {
	data, err := json.Marshal(LabelInfo{ObjectID: "ab12cd34", Label: "coaster", Index: 1, Angle: 45})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "ab12cd34", decoded["id"])
	assert.Equal(t, 45.0, decoded["angle_deg"])
}
