package analytics

import (
	"slices"

	"github.com/signalnine/studyscope/internal/trial"
)

// Completed returns the COMPLETE trials in their original order.
func Completed(trials []trial.Trial) []trial.Trial {
	out := make([]trial.Trial, 0, len(trials))
	for _, t := range trials {
		if t.State == trial.StateComplete {
			out = append(out, t)
		}
	}
	return out
}

// Domain returns the ascending distinct values of param across the given
// trials that define it. Callers pass already-completed trials.
func Domain(trials []trial.Trial, param string) []float64 {
	values := make([]float64, 0, len(trials))
	for _, t := range trials {
		if v, ok := t.Params[param]; ok {
			values = append(values, v)
		}
	}
	slices.Sort(values)
	return slices.Compact(values)
}

func DomainRange(trials []trial.Trial, param string) *Range {
	return rangeOf(Domain(trials, param))
}

// ParamNames is the default parameter selection: every name seen, sorted.
func ParamNames(trials []trial.Trial) []string {
	seen := map[string]struct{}{}
	for _, t := range trials {
		for name := range t.Params {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func selectParams(trials []trial.Trial, params []string) []string {
	if len(params) == 0 {
		return ParamNames(trials)
	}
	return params
}

// UnknownParams returns the requested names no completed trial defines.
func UnknownParams(study *trial.Study, params []string) []string {
	known := ParamNames(Completed(study.Trials))
	var unknown []string
	for _, p := range params {
		if _, found := slices.BinarySearch(known, p); !found {
			unknown = append(unknown, p)
		}
	}
	return unknown
}

// rangeOf is nil for an empty sequence.
func rangeOf(values []float64) *Range {
	if len(values) == 0 {
		return nil
	}
	return &Range{Min: slices.Min(values), Max: slices.Max(values)}
}

// isLogScale is true when every trial defining param drew it log-uniformly.
func isLogScale(trials []trial.Trial, param string) bool {
	found := false
	for _, t := range trials {
		if _, ok := t.Params[param]; !ok {
			continue
		}
		if t.Distributions[param].Kind != trial.LogUniform {
			return false
		}
		found = true
	}
	return found
}
