package model

import "strings"

// Preset is a named set of detection and search settings.
type Preset struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	IsBuiltIn   bool   `json:"is_built_in" yaml:"is_built_in"`
	Config      Config `json:"config" yaml:"config"`
}

// BuiltInPresets returns the presets shipped with the tool. "default" is
// always first.
func BuiltInPresets() []Preset {
	def := DefaultConfig()

	fast := def
	fast.ShiftStep = 20
	fast.RotateStep = 15

	fine := def
	fine.ShiftStep = 5
	fine.RotateStep = 2

	fullTurn := def
	fullTurn.MaxDegree = 360

	paper := def
	paper.CropSheet = true

	return []Preset{
		{Name: "default", Description: "Documented detection and search defaults", IsBuiltIn: true, Config: def},
		{Name: "fast", Description: "Coarse grid for a quick first answer", IsBuiltIn: true, Config: fast},
		{Name: "fine", Description: "Fine grid for tight fits", IsBuiltIn: true, Config: fine},
		{Name: "full-turn", Description: "Rotations over a full turn for asymmetric objects", IsBuiltIn: true, Config: fullTurn},
		{Name: "paper", Description: "Crop the photo to the sheet of paper before detection", IsBuiltIn: true, Config: paper},
	}
}

// FindPreset looks a preset up by name, case-insensitively. Custom presets
// shadow built-in ones with the same name.
func FindPreset(name string, custom []Preset) (Preset, bool) {
	for _, p := range custom {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	for _, p := range BuiltInPresets() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}

// PresetNames lists the built-in names followed by the custom ones.
func PresetNames(custom []Preset) []string {
	var names []string
	for _, p := range BuiltInPresets() {
		names = append(names, p.Name)
	}
	for _, p := range custom {
		names = append(names, p.Name)
	}
	return names
}
