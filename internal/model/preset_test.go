package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInPresetsAreValid(t *testing.T) {
	presets := BuiltInPresets()
	require.NotEmpty(t, presets)
	assert.Equal(t, "default", presets[0].Name)
	assert.Equal(t, DefaultConfig(), presets[0].Config)

	seen := map[string]bool{}
	for _, p := range presets {
		assert.True(t, p.IsBuiltIn, p.Name)
		assert.NoError(t, p.Config.Validate(), p.Name)
		assert.False(t, seen[p.Name], "duplicate preset %s", p.Name)
		seen[p.Name] = true
	}
}

func TestFindPreset(t *testing.T) {
	p, ok := FindPreset("FULL-TURN", nil)
	require.True(t, ok)
	assert.Equal(t, 360.0, p.Config.MaxDegree)

	_, ok = FindPreset("unknown", nil)
	assert.False(t, ok)

	custom := DefaultConfig()
	custom.ShiftStep = 1
	p, ok = FindPreset("fast", []Preset{{Name: "fast", Config: custom}})
	require.True(t, ok)
	assert.False(t, p.IsBuiltIn)
	assert.Equal(t, 1.0, p.Config.ShiftStep)
}

func TestPresetNames(t *testing.T) {
	names := PresetNames([]Preset{{Name: "mine"}})
	assert.Equal(t, "default", names[0])
	assert.Equal(t, "mine", names[len(names)-1])
}
