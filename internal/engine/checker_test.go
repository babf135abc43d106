package engine

import (
	"testing"

	"github.com/piwi3910/FitCheck/internal/model"
)

func TestCheck(t *testing.T) {
	container := model.Container{Area: 10000, Diameter: 141.42}

	tests := []struct {
		name       string
		prefilter  bool
		objects    []model.Object
		wantOK     bool
		wantReason model.Reason
	}{
		{"fits", true, []model.Object{{Area: 1600, Diameter: 56.6}}, true, ""},
		{"too wide", true, []model.Object{{Area: 100, Diameter: 200}}, false, model.ReasonDiameter},
		{"equal diameter passes", true, []model.Object{{Area: 100, Diameter: 141.42}}, true, ""},
		{"too much area", true, []model.Object{{Area: 12000, Diameter: 100}, {Area: 8000, Diameter: 100}}, false, model.ReasonArea},
		{"area check disabled", false, []model.Object{{Area: 12000, Diameter: 100}, {Area: 8000, Diameter: 100}}, true, ""},
		{"diameter wins over area", true, []model.Object{{Area: 30000, Diameter: 300}}, false, model.ReasonDiameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := model.DefaultConfig()
			cfg.AreaPrefilter = tt.prefilter
			reason, ok := Check(cfg, container, tt.objects)
			if ok != tt.wantOK {
				t.Errorf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if reason != tt.wantReason {
				t.Errorf("expected reason %q, got %q", tt.wantReason, reason)
			}
		})
	}
}
