package analytics

import "github.com/signalnine/studyscope/internal/trial"

// ParallelCoordinateData returns the objective dimension followed by one
// dimension per selected parameter. Parameter dimensions only carry values
// from trials that define them, so they may be shorter than the objective.
func ParallelCoordinateData(study *trial.Study, params ...string) []Dimension {
	completed := Completed(study.Trials)
	if len(completed) == 0 {
		return []Dimension{}
	}
	selected := selectParams(completed, params)

	dims := make([]Dimension, 0, len(selected)+1)
	objective := make([]float64, 0, len(completed))
	for _, t := range completed {
		objective = append(objective, *t.Value)
	}
	dims = append(dims, Dimension{Label: ObjectiveLabel, Range: rangeOf(objective), Values: objective})

	for _, name := range selected {
		values := make([]float64, 0, len(completed))
		for _, t := range completed {
			if v, ok := t.Params[name]; ok {
				values = append(values, v)
			}
		}
		dims = append(dims, Dimension{Label: name, Range: rangeOf(values), Values: values})
	}
	return dims
}
