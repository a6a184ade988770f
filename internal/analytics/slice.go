package analytics

import "github.com/signalnine/studyscope/internal/trial"

func SliceData(study *trial.Study, params ...string) []SliceSubplot {
	completed := Completed(study.Trials)
	if len(completed) == 0 {
		return []SliceSubplot{}
	}
	selected := selectParams(completed, params)

	subplots := make([]SliceSubplot, 0, len(selected))
	for _, name := range selected {
		points := newSeries(name, len(completed))
		for _, t := range completed {
			if v, ok := t.Params[name]; ok {
				points.add(v, *t.Value)
			}
		}
		subplots = append(subplots, SliceSubplot{
			Param:    name,
			LogScale: isLogScale(completed, name),
			Points:   points,
		})
	}
	return subplots
}
