package report

import (
	"context"
	"fmt"

	"github.com/signalnine/studyscope/internal/analytics"
	"github.com/signalnine/studyscope/internal/storage"
	"github.com/signalnine/studyscope/internal/trial"
)

type Summary struct {
	Name      string          `json:"name"`
	Direction trial.Direction `json:"direction"`
	Trials    int             `json:"trials"`
	Completed int             `json:"completed"`
	Params    []string        `json:"params"`
	BestValue *float64        `json:"best_value,omitempty"`
}

func Summarize(study *trial.Study) Summary {
	completed := analytics.Completed(study.Trials)
	s := Summary{
		Name:      study.Name,
		Direction: study.Direction,
		Trials:    len(study.Trials),
		Completed: len(completed),
		Params:    analytics.ParamNames(completed),
	}
	if best := analytics.OptimizationHistory(study).RunningBest; best.Len() > 0 {
		s.BestValue = trial.Float64(best.Y[best.Len()-1])
	}
	return s
}

// SummarizeAll snapshots every study in name order.
func SummarizeAll(ctx context.Context, store storage.Store) ([]Summary, error) {
	names, err := store.ListStudies(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing studies: %w", err)
	}
	out := make([]Summary, 0, len(names))
	for _, name := range names {
		study, err := store.Snapshot(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", name, err)
		}
		out = append(out, Summarize(study))
	}
	return out, nil
}
