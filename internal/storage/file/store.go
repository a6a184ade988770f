package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/signalnine/studyscope/internal/storage"
	"github.com/signalnine/studyscope/internal/trial"
)

// Store keeps one directory per study:
//
//	<base>/studies/<name>/study.json
//	<base>/studies/<name>/trials/trial-<n>/meta.json
type Store struct {
	baseDir string
	mu      sync.Mutex
}

type studyMeta struct {
	Name      string          `json:"name"`
	Direction trial.Direction `json:"direction"`
}

func New(baseDir string) (*Store, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving base dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(abs, "studies"), 0o755); err != nil {
		return nil, fmt.Errorf("creating studies dir: %w", err)
	}
	return &Store{baseDir: abs}, nil
}

func (s *Store) StudyDir(name string) string {
	return filepath.Join(s.baseDir, "studies", name)
}

func (s *Store) TrialDir(study string, number int) string {
	return filepath.Join(s.StudyDir(study), "trials", fmt.Sprintf("trial-%d", number))
}

func (s *Store) CreateStudy(ctx context.Context, name string, direction trial.Direction) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid study name %q", name)
	}
	dir := s.StudyDir(name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return storage.ErrStudyExists
		}
		return fmt.Errorf("creating study dir: %w", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "trials"), 0o755); err != nil {
		return fmt.Errorf("creating trials dir: %w", err)
	}
	return writeJSON(filepath.Join(dir, "study.json"), studyMeta{Name: name, Direction: direction})
}

// AppendTrial claims the next trial directory with Mkdir, which fails if
// another writer got there first, then writes meta.json atomically.
func (s *Store) AppendTrial(ctx context.Context, study string, t trial.Trial) (int, error) {
	if err := t.CheckFinite(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.readStudyMeta(study); err != nil {
		return 0, err
	}
	numbers, err := s.trialNumbers(study)
	if err != nil {
		return 0, err
	}
	next := 0
	if len(numbers) > 0 {
		next = numbers[len(numbers)-1] + 1
	}
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		err := os.Mkdir(s.TrialDir(study, next), 0o755)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return 0, fmt.Errorf("creating trial dir: %w", err)
		}
		next++
	}
	t.Number = next
	if err := writeJSON(filepath.Join(s.TrialDir(study, next), "meta.json"), t); err != nil {
		return 0, err
	}
	return next, nil
}

// Snapshot skips claimed trial directories whose meta.json is not written yet.
func (s *Store) Snapshot(ctx context.Context, study string) (*trial.Study, error) {
	meta, err := s.readStudyMeta(study)
	if err != nil {
		return nil, err
	}
	numbers, err := s.trialNumbers(study)
	if err != nil {
		return nil, err
	}
	out := &trial.Study{Name: meta.Name, Direction: meta.Direction, Trials: make([]trial.Trial, 0, len(numbers))}
	for _, n := range numbers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := readTrial(filepath.Join(s.TrialDir(study, n), "meta.json"))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		t.Number = n
		out.Trials = append(out.Trials, *t)
	}
	return out, nil
}

func (s *Store) ListStudies(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.baseDir, "studies"))
	if err != nil {
		return nil, fmt.Errorf("reading studies dir: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.StudyDir(e.Name()), "study.json")); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) readStudyMeta(name string) (*studyMeta, error) {
	data, err := os.ReadFile(filepath.Join(s.StudyDir(name), "study.json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrStudyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading study meta: %w", err)
	}
	var meta studyMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing study meta: %w", err)
	}
	return &meta, nil
}

// trialNumbers lists claimed trial numbers in ascending order.
func (s *Store) trialNumbers(study string) ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(s.StudyDir(study), "trials"))
	if err != nil {
		return nil, fmt.Errorf("reading trials dir: %w", err)
	}
	var numbers []int
	for _, e := range entries {
		suffix, ok := strings.CutPrefix(e.Name(), "trial-")
		if !e.IsDir() || !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers, nil
}

func readTrial(path string) (*trial.Trial, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}
	var t trial.Trial
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing meta %s: %w", path, err)
	}
	return &t, nil
}

// writeJSON writes through a temp file and rename so readers never see a partial file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}
