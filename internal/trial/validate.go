package trial

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrTrialOrder           = errors.New("trial numbers must be unique and strictly increasing")
	ErrTrialValue           = errors.New("trial value must be present iff state is COMPLETE")
	ErrTrialValueNotFinite  = errors.New("trial values must be finite")
	ErrTrialState           = errors.New("unknown trial state")
	ErrDistributionMismatch = errors.New("distribution keys must match param keys")
	ErrParamOutOfRange      = errors.New("param value outside its distribution")
	ErrDirection            = errors.New("unknown optimization direction")
)

// Validate checks the study invariants. Violations are programming errors in
// whatever produced the snapshot; projections assume a valid study.
func (s *Study) Validate() error {
	if !s.Direction.Valid() {
		return fmt.Errorf("study %q: %w: %q", s.Name, ErrDirection, s.Direction)
	}
	for i := range s.Trials {
		t := &s.Trials[i]
		if t.Number < 0 || (i > 0 && t.Number <= s.Trials[i-1].Number) {
			return fmt.Errorf("study %q trial index %d (number %d): %w", s.Name, i, t.Number, ErrTrialOrder)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("study %q: %w", s.Name, err)
		}
	}
	return nil
}

func (t *Trial) Validate() error {
	if !t.State.Valid() {
		return fmt.Errorf("trial %d: %w: %q", t.Number, ErrTrialState, t.State)
	}
	if (t.State == StateComplete) != (t.Value != nil) {
		return fmt.Errorf("trial %d (%s): %w", t.Number, t.State, ErrTrialValue)
	}
	if err := t.CheckFinite(); err != nil {
		return err
	}
	if len(t.Params) != len(t.Distributions) {
		return fmt.Errorf("trial %d: %w", t.Number, ErrDistributionMismatch)
	}
	for name, v := range t.Params {
		d, ok := t.Distributions[name]
		if !ok {
			return fmt.Errorf("trial %d param %q: %w", t.Number, name, ErrDistributionMismatch)
		}
		if !d.Contains(v) {
			return fmt.Errorf("trial %d param %q=%v: %w", t.Number, name, v, ErrParamOutOfRange)
		}
	}
	return nil
}

// CheckFinite rejects NaN and infinite objective or intermediate values.
// Stores call it on append since not every backend can persist them.
func (t *Trial) CheckFinite() error {
	if t.Value != nil && !isFinite(*t.Value) {
		return fmt.Errorf("trial %d value %v: %w", t.Number, *t.Value, ErrTrialValueNotFinite)
	}
	for step, v := range t.IntermediateValues {
		if !isFinite(v) {
			return fmt.Errorf("trial %d step %d value %v: %w", t.Number, step, v, ErrTrialValueNotFinite)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
