package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/signalnine/studyscope/internal/storage/storagetest"
	"github.com/signalnine/studyscope/internal/trial"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "studies.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestSQLiteStore_Contract(t *testing.T) {
	storagetest.RunStoreContract(t, openTempStore(t))
}

func TestReopenKeepsTrials(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "studies.db")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.CreateStudy(ctx, "persisted", trial.Maximize); err != nil {
		t.Fatalf("create study: %v", err)
	}
	if _, err := store.AppendTrial(ctx, "persisted", trial.Trial{State: trial.StateComplete, Value: trial.Float64(3)}); err != nil {
		t.Fatalf("append trial: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Reopening must not re-run applied migrations.
	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()

	s, err := store.Snapshot(ctx, "persisted")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if s.Direction != trial.Maximize {
		t.Fatalf("direction = %q, want %q", s.Direction, trial.Maximize)
	}
	if len(s.Trials) != 1 || s.Trials[0].Value == nil || *s.Trials[0].Value != 3 {
		t.Fatalf("unexpected trials after reopen: %+v", s.Trials)
	}
}

func TestExtractUp(t *testing.T) {
	t.Parallel()

	got := extractUp("-- +migrate Up\nCREATE TABLE a (x INT);\n-- +migrate Down\nDROP TABLE a;\n")
	if got != "\nCREATE TABLE a (x INT);\n" {
		t.Fatalf("extractUp = %q", got)
	}
	if got := extractUp("SELECT 1;"); got != "SELECT 1;" {
		t.Fatalf("extractUp without markers = %q", got)
	}
}

func TestAppendTrialsRollsBack(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.CreateStudy(ctx, "s", trial.Minimize); err != nil {
		t.Fatalf("CreateStudy: %v", err)
	}

	// The second trial's distribution cannot be encoded, so the insert
	// fails after the first trial is already in the transaction.
	unencodable := trial.Distribution{Kind: trial.Categorical, Choices: []any{func() {}}}
	_, err := store.AppendTrials(ctx, "s", []trial.Trial{
		{State: trial.StateComplete, Value: trial.Float64(1)},
		{
			State:         trial.StateComplete,
			Value:         trial.Float64(2),
			Params:        map[string]float64{"c": 0},
			Distributions: map[string]trial.Distribution{"c": unencodable},
		},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	s, err := store.Snapshot(ctx, "s")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(s.Trials) != 0 {
		t.Fatalf("expected no trials after rollback, got %d", len(s.Trials))
	}
	n, err := store.AppendTrial(ctx, "s", trial.Trial{State: trial.StateFail})
	if err != nil {
		t.Fatalf("AppendTrial: %v", err)
	}
	if n != 0 {
		t.Errorf("number after rollback = %d, want 0", n)
	}
}
