package analytics

import (
	"fmt"
	"maps"
	"slices"

	"github.com/signalnine/studyscope/internal/trial"
)

// IntermediateCurves returns one curve per completed trial, even when the
// trial reported nothing.
func IntermediateCurves(study *trial.Study) []Series {
	completed := Completed(study.Trials)
	curves := make([]Series, 0, len(completed))
	for _, t := range completed {
		steps := slices.Sorted(maps.Keys(t.IntermediateValues))
		curve := newSeries(fmt.Sprintf("%s%d", trialNamePrefix, t.Number), len(steps))
		for _, step := range steps {
			curve.add(float64(step), t.IntermediateValues[step])
		}
		curves = append(curves, curve)
	}
	return curves
}
