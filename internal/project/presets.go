package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/piwi3910/FitCheck/internal/model"
)

// DefaultPresetsPath returns the default file path for custom presets.
func DefaultPresetsPath() string {
	return filepath.Join(DefaultConfigDir(), "presets.yaml")
}

// SaveCustomPresets writes custom presets to path, YAML or JSON by extension.
func SaveCustomPresets(path string, presets []model.Preset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(presets)
	} else {
		data, err = json.MarshalIndent(presets, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCustomPresets loads custom presets from path.
// Returns an empty slice if the file does not exist.
func LoadCustomPresets(path string) ([]model.Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Preset{}, nil
		}
		return nil, err
	}

	var raw []presetFile
	if isYAML(path) {
		err = yaml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse presets %s: %w", path, err)
	}

	presets := make([]model.Preset, 0, len(raw))
	for i, r := range raw {
		p, err := r.preset()
		if err != nil {
			return nil, fmt.Errorf("preset %d in %s: %w", i+1, path, err)
		}
		presets = append(presets, p)
	}
	return presets, nil
}

// ExportPreset writes a single preset to a file for sharing.
func ExportPreset(path string, preset model.Preset) error {
	preset.IsBuiltIn = false
	return SaveCustomPresets(path, []model.Preset{preset})
}

// ImportPreset reads the first preset from a file written by ExportPreset.
func ImportPreset(path string) (model.Preset, error) {
	presets, err := LoadCustomPresets(path)
	if err != nil {
		return model.Preset{}, err
	}
	if len(presets) == 0 {
		return model.Preset{}, fmt.Errorf("%s holds no preset", path)
	}
	return presets[0], nil
}

// presetFile is the on-disk form. Config fields left out of the file keep
// their defaults.
type presetFile struct {
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Config      json.RawMessage `json:"config" yaml:"-"`
	YAMLConfig  yaml.Node       `json:"-" yaml:"config"`
}

func (r presetFile) preset() (model.Preset, error) {
	if r.Name == "" {
		return model.Preset{}, errors.New("preset has no name")
	}
	cfg := model.DefaultConfig()
	switch {
	case len(r.Config) > 0:
		if err := json.Unmarshal(r.Config, &cfg); err != nil {
			return model.Preset{}, err
		}
	case !r.YAMLConfig.IsZero():
		if err := r.YAMLConfig.Decode(&cfg); err != nil {
			return model.Preset{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return model.Preset{}, fmt.Errorf("preset %q: %w", r.Name, err)
	}
	// Loaded presets are never built-in.
	return model.Preset{Name: r.Name, Description: r.Description, Config: cfg}, nil
}
