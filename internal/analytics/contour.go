package analytics

import (
	"slices"

	"github.com/signalnine/studyscope/internal/trial"
)

// ContourData returns one entry per unordered pair (params[i], params[j]), i < j,
// of distinct names. Repeats in params keep their first position.
// Each axis domain is resolved on its own, so it may include trials that
// lack the other parameter; the observed points only use trials that define both.
func ContourData(study *trial.Study, params ...string) []ContourPair {
	completed := Completed(study.Trials)
	if len(completed) == 0 {
		return []ContourPair{}
	}
	selected := distinct(selectParams(completed, params))
	if len(selected) < 2 {
		return []ContourPair{}
	}

	pairs := make([]ContourPair, 0, len(selected)*(len(selected)-1)/2)
	for i := 0; i < len(selected); i++ {
		for j := i + 1; j < len(selected); j++ {
			pairs = append(pairs, contourPair(completed, selected[i], selected[j]))
		}
	}
	return pairs
}

func contourPair(completed []trial.Trial, xParam, yParam string) ContourPair {
	xs := Domain(completed, xParam)
	ys := Domain(completed, yParam)

	z := make([][]*float64, len(ys))
	for i := range z {
		z[i] = make([]*float64, len(xs))
	}
	observed := newSeries(ObservedLabel, len(completed))
	for _, t := range completed {
		x, okX := t.Params[xParam]
		y, okY := t.Params[yParam]
		if !okX || !okY {
			continue
		}
		observed.add(x, y)
		xi, _ := slices.BinarySearch(xs, x)
		yi, _ := slices.BinarySearch(ys, y)
		v := *t.Value
		z[yi][xi] = &v
	}

	return ContourPair{
		X:        Axis{Param: xParam, Range: rangeOf(xs), LogScale: isLogScale(completed, xParam)},
		Y:        Axis{Param: yParam, Range: rangeOf(ys), LogScale: isLogScale(completed, yParam)},
		Grid:     ContourGrid{X: xs, Y: ys, Z: z},
		Observed: observed,
	}
}

func distinct(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
