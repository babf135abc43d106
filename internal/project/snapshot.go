package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/FitCheck/internal/model"
)

// SnapshotVersion is written into every saved project.
const SnapshotVersion = "1.0.0"

// Snapshot is the on-disk form of a project: the shapes, the settings they
// were checked with and the last verdict.
type Snapshot struct {
	Version   string        `json:"version"`
	CreatedAt string        `json:"created_at"`
	Project   model.Project `json:"project"`
}

// SaveProject writes the project as an indented JSON snapshot.
func SaveProject(path string, proj model.Project) error {
	snap := Snapshot{
		Version:   SnapshotVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Project:   proj,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write project file: %w", err)
	}
	return nil
}

// LoadProject reads a snapshot written by SaveProject. Settings missing
// from the file keep their defaults.
func LoadProject(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read project file: %w", err)
	}
	snap := Snapshot{Project: model.NewProject()}
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse project file: %w", err)
	}
	if snap.Version == "" {
		return Snapshot{}, fmt.Errorf("invalid project file: missing version field")
	}
	if snap.Project.Shapes == nil {
		snap.Project.Shapes = []model.Shape{}
	}
	return snap, nil
}
