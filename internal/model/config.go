package model

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Config holds every tunable of the segmentation pipeline and the placement
// engine.
type Config struct {
	// Segmentation
	EdgeThresholdLow       float64 `json:"edge_threshold_low" yaml:"edge_threshold_low"`
	EdgeThresholdHigh      float64 `json:"edge_threshold_high" yaml:"edge_threshold_high"`
	BlurSigma              float64 `json:"blur_sigma" yaml:"blur_sigma"`     // 0 = no blur
	CloseKernel            int     `json:"close_kernel" yaml:"close_kernel"` // side of the square closing kernel, pixels
	MinContourArea         float64 `json:"min_contour_area" yaml:"min_contour_area"`
	ApproximationTolerance float64 `json:"approximation_tolerance" yaml:"approximation_tolerance"` // fraction of the contour perimeter
	CropSheet              bool    `json:"crop_sheet" yaml:"crop_sheet"`
	SheetSlack             int     `json:"sheet_slack" yaml:"sheet_slack"`
	SheetInset             int     `json:"sheet_inset" yaml:"sheet_inset"`

	// Placement search
	ShiftStep  float64 `json:"shift_step" yaml:"shift_step"`
	RotateStep float64 `json:"rotate_step" yaml:"rotate_step"`
	MinDegree  float64 `json:"min_degree" yaml:"min_degree"`
	MaxDegree  float64 `json:"max_degree" yaml:"max_degree"`

	// Necessary-condition checks
	AreaPrefilter bool    `json:"area_prefilter" yaml:"area_prefilter"`
	AreaFactor    float64 `json:"area_factor" yaml:"area_factor"`

	Workers        int     `json:"workers" yaml:"workers"`
	TimeoutSeconds float64 `json:"timeout_seconds" yaml:"timeout_seconds"` // 0 = no deadline
	Epsilon        float64 `json:"epsilon" yaml:"epsilon"`
}

// DefaultConfig returns a Config populated with the detection and search
// defaults.
func DefaultConfig() Config {
	return Config{
		EdgeThresholdLow:       100,
		EdgeThresholdHigh:      400,
		BlurSigma:              0,
		CloseKernel:            7,
		MinContourArea:         1000,
		ApproximationTolerance: 0.000001,
		CropSheet:              false,
		SheetSlack:             200,
		SheetInset:             50,
		ShiftStep:              10,
		RotateStep:             5,
		MinDegree:              0,
		MaxDegree:              180,
		AreaPrefilter:          true,
		AreaFactor:             2,
		Workers:                1,
		TimeoutSeconds:         0,
		Epsilon:                1e-6,
	}
}

// Timeout returns the search deadline as a duration. Zero means none.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

// Validate reports every invalid field at once. The returned error wraps
// ErrInvalidConfig.
func (c Config) Validate() error {
	var err error
	if c.EdgeThresholdLow < 0 {
		err = multierr.Append(err, fmt.Errorf("edge_threshold_low must be >= 0, got %g", c.EdgeThresholdLow))
	}
	if c.EdgeThresholdHigh < c.EdgeThresholdLow {
		err = multierr.Append(err, fmt.Errorf("edge_threshold_high (%g) must be >= edge_threshold_low (%g)", c.EdgeThresholdHigh, c.EdgeThresholdLow))
	}
	if c.BlurSigma < 0 {
		err = multierr.Append(err, fmt.Errorf("blur_sigma must be >= 0, got %g", c.BlurSigma))
	}
	if c.CloseKernel < 0 {
		err = multierr.Append(err, fmt.Errorf("close_kernel must be >= 0, got %d", c.CloseKernel))
	}
	if c.MinContourArea < 0 {
		err = multierr.Append(err, fmt.Errorf("min_contour_area must be >= 0, got %g", c.MinContourArea))
	}
	if c.ApproximationTolerance < 0 {
		err = multierr.Append(err, fmt.Errorf("approximation_tolerance must be >= 0, got %g", c.ApproximationTolerance))
	}
	if c.SheetSlack < 0 || c.SheetInset < 0 {
		err = multierr.Append(err, fmt.Errorf("sheet_slack and sheet_inset must be >= 0"))
	}
	if c.ShiftStep <= 0 {
		err = multierr.Append(err, fmt.Errorf("shift_step must be > 0, got %g", c.ShiftStep))
	}
	if c.RotateStep <= 0 {
		err = multierr.Append(err, fmt.Errorf("rotate_step must be > 0, got %g", c.RotateStep))
	}
	if c.MaxDegree <= c.MinDegree {
		err = multierr.Append(err, fmt.Errorf("max_degree (%g) must be > min_degree (%g)", c.MaxDegree, c.MinDegree))
	}
	if c.AreaPrefilter && c.AreaFactor <= 0 {
		err = multierr.Append(err, fmt.Errorf("area_factor must be > 0 when area_prefilter is on, got %g", c.AreaFactor))
	}
	if c.Workers < 1 {
		err = multierr.Append(err, fmt.Errorf("workers must be >= 1, got %d", c.Workers))
	}
	if c.TimeoutSeconds < 0 {
		err = multierr.Append(err, fmt.Errorf("timeout_seconds must be >= 0, got %g", c.TimeoutSeconds))
	}
	if c.Epsilon <= 0 {
		err = multierr.Append(err, fmt.Errorf("epsilon must be > 0, got %g", c.Epsilon))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
