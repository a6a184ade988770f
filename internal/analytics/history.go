package analytics

import (
	"math"

	"github.com/signalnine/studyscope/internal/trial"
)

// bestOf picks the comparator for the running best.
func bestOf(d trial.Direction) func(a, b float64) float64 {
	if d == trial.Maximize {
		return math.Max
	}
	return math.Min
}

func OptimizationHistory(study *trial.Study) History {
	completed := Completed(study.Trials)
	h := History{
		Raw:         newSeries(ObjectiveLabel, len(completed)),
		RunningBest: newSeries(BestValueLabel, len(completed)),
	}
	better := bestOf(study.Direction)
	var best float64
	for i, t := range completed {
		v := *t.Value
		if i == 0 {
			best = v
		} else {
			best = better(best, v)
		}
		x := float64(t.Number)
		h.Raw.add(x, v)
		h.RunningBest.add(x, best)
	}
	return h
}
