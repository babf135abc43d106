package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/piwi3910/FitCheck/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name   string
	Config model.Config
}

// ComparisonResult holds the packing result and summary numbers for a
// single scenario. Err is set when the scenario could not be decided.
type ComparisonResult struct {
	Scenario      ComparisonScenario
	Result        model.PackingResult
	Err           error
	Placed        int
	PosesTried    int64
	Indeterminate bool
}

// CompareScenarios runs the packer once per scenario on the same shapes and
// returns the results in scenario order. Input errors (no container,
// degenerate shapes) do not depend on the scenario and abort the comparison.
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, shapes []model.Shape, field model.Field) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		packer := New(scenario.Config)
		result, err := packer.Run(ctx, shapes, field)
		if err != nil && !errors.Is(err, model.ErrIndeterminate) && !errors.Is(err, model.ErrInvalidConfig) {
			return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}

		results = append(results, ComparisonResult{
			Scenario:      scenario,
			Result:        result,
			Err:           err,
			Placed:        len(result.Placements),
			PosesTried:    result.Stats.PosesTried,
			Indeterminate: errors.Is(err, model.ErrIndeterminate),
		})
	}

	return results, nil
}

// BuildDefaultScenarios generates what-if variations of the base config:
// a finer translation grid, finer rotation, a full turn of rotation and no
// area pre-filter.
func BuildDefaultScenarios(base model.Config) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:   "Current Settings",
			Config: base,
		},
	}

	if base.ShiftStep > 1 {
		fine := base
		fine.ShiftStep = base.ShiftStep / 2
		scenarios = append(scenarios, ComparisonScenario{
			Name:   fmt.Sprintf("Shift step %.1f (half)", fine.ShiftStep),
			Config: fine,
		})
	}

	if base.RotateStep > 1 {
		fine := base
		fine.RotateStep = base.RotateStep / 2
		scenarios = append(scenarios, ComparisonScenario{
			Name:   fmt.Sprintf("Rotate step %.1f° (half)", fine.RotateStep),
			Config: fine,
		})
	}

	if base.MaxDegree-base.MinDegree < 360 {
		full := base
		full.MinDegree = 0
		full.MaxDegree = 360
		scenarios = append(scenarios, ComparisonScenario{
			Name:   "Full 360° rotation",
			Config: full,
		})
	}

	if base.AreaPrefilter {
		noFilter := base
		noFilter.AreaPrefilter = false
		scenarios = append(scenarios, ComparisonScenario{
			Name:   "No area pre-filter",
			Config: noFilter,
		})
	}

	return scenarios
}
