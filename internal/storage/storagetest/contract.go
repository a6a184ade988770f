// Package storagetest holds the behaviour every storage.Store must share.
package storagetest

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/signalnine/studyscope/internal/storage"
	"github.com/signalnine/studyscope/internal/trial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs the shared suite against store.
func RunStoreContract(t *testing.T, store storage.Store) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")

	t.Run("Create and Snapshot empty", func(t *testing.T) {
		name := prefix + "-empty"
		require.NoError(t, store.CreateStudy(ctx, name, trial.Maximize))

		s, err := store.Snapshot(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name)
		assert.Equal(t, trial.Maximize, s.Direction)
		assert.Empty(t, s.Trials)
	})

	t.Run("Create duplicate", func(t *testing.T) {
		name := prefix + "-dup"
		require.NoError(t, store.CreateStudy(ctx, name, trial.Minimize))
		err := store.CreateStudy(ctx, name, trial.Minimize)
		assert.ErrorIs(t, err, storage.ErrStudyExists)
	})

	t.Run("Snapshot missing", func(t *testing.T) {
		_, err := store.Snapshot(ctx, prefix+"-missing")
		assert.ErrorIs(t, err, storage.ErrStudyNotFound)
	})

	t.Run("Append to missing", func(t *testing.T) {
		_, err := store.AppendTrial(ctx, prefix+"-missing", trial.Trial{State: trial.StateFail})
		assert.ErrorIs(t, err, storage.ErrStudyNotFound)
	})

	t.Run("Append round trip", func(t *testing.T) {
		name := prefix + "-trials"
		require.NoError(t, store.CreateStudy(ctx, name, trial.Minimize))

		trials := []trial.Trial{
			{
				Number:             42, // ignored, the store numbers trials
				State:              trial.StateComplete,
				Value:              trial.Float64(0.25),
				Params:             map[string]float64{"a": 1.0, "layer": 1},
				Distributions:      map[string]trial.Distribution{"a": trial.UniformDist(0, 3), "layer": trial.CategoricalDist("relu", "tanh")},
				IntermediateValues: map[int]float64{0: 1.5, 3: 0.5},
			},
			{State: trial.StateFail},
			{
				State:         trial.StateComplete,
				Value:         trial.Float64(-2),
				Params:        map[string]float64{"lr": 0.01},
				Distributions: map[string]trial.Distribution{"lr": trial.LogUniformDist(1e-4, 1)},
			},
		}
		for i, tr := range trials {
			n, err := store.AppendTrial(ctx, name, tr)
			require.NoError(t, err)
			assert.Equal(t, i, n)
		}

		s, err := store.Snapshot(ctx, name)
		require.NoError(t, err)
		require.Len(t, s.Trials, 3)
		for i, got := range s.Trials {
			assert.Equal(t, i, got.Number)
			assert.Equal(t, trials[i].State, got.State)
		}
		require.NotNil(t, s.Trials[0].Value)
		assert.Equal(t, 0.25, *s.Trials[0].Value)
		assert.Equal(t, map[string]float64{"a": 1.0, "layer": 1}, s.Trials[0].Params)
		assert.Equal(t, trial.Uniform, s.Trials[0].Distributions["a"].Kind)
		assert.Equal(t, 3.0, s.Trials[0].Distributions["a"].High)
		assert.Equal(t, []any{"relu", "tanh"}, s.Trials[0].Distributions["layer"].Choices)
		assert.Equal(t, map[int]float64{0: 1.5, 3: 0.5}, s.Trials[0].IntermediateValues)
		assert.Nil(t, s.Trials[1].Value)
		assert.Empty(t, s.Trials[1].Params)
		assert.Equal(t, trial.LogUniform, s.Trials[2].Distributions["lr"].Kind)
		assert.NoError(t, s.Validate())
	})

	t.Run("Complete trials keep their value", func(t *testing.T) {
		name := prefix + "-values"
		require.NoError(t, store.CreateStudy(ctx, name, trial.Minimize))
		values := []float64{0, -1e300, 1e-300}
		for _, v := range values {
			_, err := store.AppendTrial(ctx, name, trial.Trial{State: trial.StateComplete, Value: trial.Float64(v)})
			require.NoError(t, err)
		}

		s, err := store.Snapshot(ctx, name)
		require.NoError(t, err)
		require.Len(t, s.Trials, len(values))
		for i, got := range s.Trials {
			require.NotNil(t, got.Value, "trial %d", i)
			assert.Equal(t, values[i], *got.Value)
		}
	})

	t.Run("Append rejects non-finite values", func(t *testing.T) {
		name := prefix + "-nonfinite"
		require.NoError(t, store.CreateStudy(ctx, name, trial.Minimize))
		bad := []trial.Trial{
			{State: trial.StateComplete, Value: trial.Float64(math.NaN())},
			{State: trial.StateComplete, Value: trial.Float64(math.Inf(1))},
			{State: trial.StatePruned, IntermediateValues: map[int]float64{0: math.Inf(-1)}},
		}
		for _, tr := range bad {
			_, err := store.AppendTrial(ctx, name, tr)
			assert.ErrorIs(t, err, trial.ErrTrialValueNotFinite)
		}

		s, err := store.Snapshot(ctx, name)
		require.NoError(t, err)
		assert.Empty(t, s.Trials)
	})

	t.Run("Snapshot is isolated", func(t *testing.T) {
		name := prefix + "-isolated"
		require.NoError(t, store.CreateStudy(ctx, name, trial.Minimize))
		_, err := store.AppendTrial(ctx, name, trial.Trial{
			State: trial.StateComplete, Value: trial.Float64(1),
			Params:        map[string]float64{"x": 1},
			Distributions: map[string]trial.Distribution{"x": trial.UniformDist(0, 3)},
		})
		require.NoError(t, err)

		first, err := store.Snapshot(ctx, name)
		require.NoError(t, err)
		first.Trials[0].Params["x"] = 2

		_, err = store.AppendTrial(ctx, name, trial.Trial{State: trial.StateFail})
		require.NoError(t, err)
		assert.Len(t, first.Trials, 1)

		second, err := store.Snapshot(ctx, name)
		require.NoError(t, err)
		assert.Len(t, second.Trials, 2)
		assert.Equal(t, 1.0, second.Trials[0].Params["x"])
	})

	t.Run("Concurrent appends get unique numbers", func(t *testing.T) {
		name := prefix + "-concurrent"
		require.NoError(t, store.CreateStudy(ctx, name, trial.Minimize))

		const n = 8
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.AppendTrial(ctx, name, trial.Trial{State: trial.StateFail}); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		s, err := store.Snapshot(ctx, name)
		require.NoError(t, err)
		require.Len(t, s.Trials, n)
		for i, tr := range s.Trials {
			assert.Equal(t, i, tr.Number, fmt.Sprintf("trial index %d", i))
		}
	})

	if batch, ok := store.(storage.BatchAppender); ok {
		t.Run("Batch append", func(t *testing.T) {
			name := prefix + "-batch"
			require.NoError(t, store.CreateStudy(ctx, name, trial.Minimize))
			_, err := store.AppendTrial(ctx, name, trial.Trial{State: trial.StateFail})
			require.NoError(t, err)

			numbers, err := batch.AppendTrials(ctx, name, []trial.Trial{
				{State: trial.StateComplete, Value: trial.Float64(1)},
				{State: trial.StatePruned},
			})
			require.NoError(t, err)
			assert.Equal(t, []int{1, 2}, numbers)

			_, err = batch.AppendTrials(ctx, name, []trial.Trial{
				{State: trial.StateComplete, Value: trial.Float64(2)},
				{State: trial.StateComplete, Value: trial.Float64(math.NaN())},
			})
			assert.ErrorIs(t, err, trial.ErrTrialValueNotFinite)

			s, err := store.Snapshot(ctx, name)
			require.NoError(t, err)
			assert.Len(t, s.Trials, 3, "a failed batch writes nothing")

			_, err = batch.AppendTrials(ctx, prefix+"-missing", []trial.Trial{{State: trial.StateFail}})
			assert.ErrorIs(t, err, storage.ErrStudyNotFound)
		})
	}

	t.Run("List", func(t *testing.T) {
		names, err := store.ListStudies(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, prefix+"-empty")
		assert.Contains(t, names, prefix+"-trials")
		assert.IsNonDecreasing(t, names)
	})
}
