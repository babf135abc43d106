package engine

import (
	"github.com/piwi3910/FitCheck/internal/model"
)

// Check runs the necessary conditions for feasibility before any search.
// It returns ok=false with the failing reason when the input can be rejected
// outright.
//
// The diameter test is exact: an object whose enclosing circle is wider
// than the container's cannot fit at any pose. The area test is a coarse
// heuristic kept from the detection tooling: it only rejects when the
// objects cover at least AreaFactor times the container, so it never turns
// a feasible input into an infeasible one for AreaFactor >= 1.
func Check(cfg model.Config, container model.Container, objects []model.Object) (model.Reason, bool) {
	for _, o := range objects {
		if o.Diameter > container.Diameter {
			return model.ReasonDiameter, false
		}
	}
	if cfg.AreaPrefilter {
		var total float64
		for _, o := range objects {
			total += o.Area
		}
		if total >= cfg.AreaFactor*container.Area {
			return model.ReasonArea, false
		}
	}
	return "", true
}
