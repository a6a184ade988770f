package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/signalnine/studyscope/internal/analytics"
	"github.com/signalnine/studyscope/internal/storage"
	"github.com/signalnine/studyscope/internal/trial"
	"github.com/signalnine/studyscope/internal/workpool"
)

type Projection string

const (
	History            Projection = "history"
	Intermediate       Projection = "intermediate"
	Contour            Projection = "contour"
	ParallelCoordinate Projection = "parallel-coordinate"
	Slice              Projection = "slice"
)

var AllProjections = []Projection{History, Intermediate, Contour, ParallelCoordinate, Slice}

// ParseProjections accepts projection names; "all" or no names selects every projection.
func ParseProjections(names []string) ([]Projection, error) {
	if len(names) == 0 {
		return AllProjections, nil
	}
	var out []Projection
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "all" {
			return AllProjections, nil
		}
		found := false
		for _, p := range AllProjections {
			if string(p) == n {
				out = append(out, p)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown projection %q", n)
		}
	}
	return out, nil
}

type Options struct {
	Format      string
	Params      []string
	Projections []Projection
}

func (o Options) wants(p Projection) bool {
	if len(o.Projections) == 0 {
		return true
	}
	for _, q := range o.Projections {
		if q == p {
			return true
		}
	}
	return false
}

// StudyReport bundles the requested projections of one study snapshot.
// Projections that were not requested stay nil.
type StudyReport struct {
	Study              string                   `json:"study"`
	Direction          trial.Direction          `json:"direction"`
	Trials             int                      `json:"trials"`
	Completed          int                      `json:"completed"`
	History            *analytics.History       `json:"history"`
	Intermediate       []analytics.Series       `json:"intermediate"`
	Contour            []analytics.ContourPair  `json:"contour"`
	ParallelCoordinate []analytics.Dimension    `json:"parallel_coordinate"`
	Slice              []analytics.SliceSubplot `json:"slice"`
}

func Build(study *trial.Study, opts Options) *StudyReport {
	r := &StudyReport{
		Study:     study.Name,
		Direction: study.Direction,
		Trials:    len(study.Trials),
		Completed: len(analytics.Completed(study.Trials)),
	}
	if opts.wants(History) {
		h := analytics.OptimizationHistory(study)
		r.History = &h
	}
	if opts.wants(Intermediate) {
		r.Intermediate = analytics.IntermediateCurves(study)
	}
	if opts.wants(Contour) {
		r.Contour = analytics.ContourData(study, opts.Params...)
	}
	if opts.wants(ParallelCoordinate) {
		r.ParallelCoordinate = analytics.ParallelCoordinateData(study, opts.Params...)
	}
	if opts.wants(Slice) {
		r.Slice = analytics.SliceData(study, opts.Params...)
	}
	return r
}

// Generate renders the projections of one study.
func Generate(study *trial.Study, opts Options, w io.Writer) error {
	return write([]*StudyReport{Build(study, opts)}, false, opts, w)
}

// GenerateAll snapshots and projects every study in the store, at most
// parallel at a time, and writes them in study-name order.
func GenerateAll(ctx context.Context, store storage.Store, opts Options, parallel int, w io.Writer) error {
	names, err := store.ListStudies(ctx)
	if err != nil {
		return err
	}
	reports := make([]*StudyReport, len(names))
	jobs := make([]workpool.Job, len(names))
	for i, name := range names {
		jobs[i] = func(ctx context.Context) error {
			study, err := store.Snapshot(ctx, name)
			if err != nil {
				return fmt.Errorf("snapshot %s: %w", name, err)
			}
			reports[i] = Build(study, opts)
			return nil
		}
	}
	if err := workpool.FirstError(workpool.Run(ctx, parallel, jobs)); err != nil {
		return err
	}
	return write(reports, true, opts, w)
}

// write renders reports; list makes the json format an array even for one report.
func write(reports []*StudyReport, list bool, opts Options, w io.Writer) error {
	switch opts.Format {
	case "json":
		if list {
			return writeJSON(reports, w)
		}
		return writeJSON(reports[0], w)
	case "markdown":
		for _, r := range reports {
			if err := writeMarkdown(r, w); err != nil {
				return err
			}
		}
		return nil
	case "", "table":
		for _, r := range reports {
			if err := writeTable(r, w); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown report format %q", opts.Format)
}

func writeJSON(v any, w io.Writer) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
