// Package storage defines how trial history is persisted and read back as
// immutable point-in-time study snapshots.
package storage

import (
	"context"
	"errors"

	"github.com/signalnine/studyscope/internal/trial"
)

var (
	// ErrStudyNotFound is returned when a study name is not in the store.
	ErrStudyNotFound = errors.New("study not found")

	// ErrStudyExists is returned by CreateStudy for a name already in use.
	ErrStudyExists = errors.New("study already exists")
)

// Store persists studies and their trials.
type Store interface {
	// CreateStudy registers an empty study with a fixed direction.
	CreateStudy(ctx context.Context, name string, direction trial.Direction) error

	// AppendTrial stores t as the next trial of the study and returns the
	// number it was assigned. Numbers start at 0 and ignore t.Number.
	AppendTrial(ctx context.Context, study string, t trial.Trial) (int, error)

	// Snapshot returns a copy of the study that later appends do not affect.
	// Returns ErrStudyNotFound if the study does not exist.
	Snapshot(ctx context.Context, study string) (*trial.Study, error)

	// ListStudies returns study names in ascending order.
	ListStudies(ctx context.Context) ([]string, error)

	Close() error
}

// BatchAppender is implemented by stores that can append several trials
// atomically: on error none of them is stored.
type BatchAppender interface {
	AppendTrials(ctx context.Context, study string, trials []trial.Trial) ([]int, error)
}
