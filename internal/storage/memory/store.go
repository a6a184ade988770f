package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/signalnine/studyscope/internal/storage"
	"github.com/signalnine/studyscope/internal/trial"
)

// Store implements storage.Store in memory.
// Safe for concurrent use.
type Store struct {
	studies map[string]*trial.Study
	mu      sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		studies: make(map[string]*trial.Study),
	}
}

func (s *Store) CreateStudy(ctx context.Context, name string, direction trial.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.studies[name]; ok {
		return storage.ErrStudyExists
	}
	s.studies[name] = &trial.Study{Name: name, Direction: direction, Trials: []trial.Trial{}}
	return nil
}

// AppendTrial copies t on the way in so the caller keeps no alias into the store.
func (s *Store) AppendTrial(ctx context.Context, study string, t trial.Trial) (int, error) {
	if err := t.CheckFinite(); err != nil {
		return 0, err
	}
	copied := t.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.studies[study]
	if !ok {
		return 0, storage.ErrStudyNotFound
	}
	copied.Number = len(st.Trials)
	st.Trials = append(st.Trials, copied)
	return copied.Number, nil
}

func (s *Store) AppendTrials(ctx context.Context, study string, trials []trial.Trial) ([]int, error) {
	copied := make([]trial.Trial, len(trials))
	for i := range trials {
		if err := trials[i].CheckFinite(); err != nil {
			return nil, err
		}
		copied[i] = trials[i].Clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.studies[study]
	if !ok {
		return nil, storage.ErrStudyNotFound
	}
	numbers := make([]int, len(copied))
	for i := range copied {
		copied[i].Number = len(st.Trials)
		numbers[i] = copied[i].Number
		st.Trials = append(st.Trials, copied[i])
	}
	return numbers, nil
}

func (s *Store) Snapshot(ctx context.Context, study string) (*trial.Study, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.studies[study]
	if !ok {
		return nil, storage.ErrStudyNotFound
	}
	return st.Clone(), nil
}

func (s *Store) ListStudies(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.studies))
	for name := range s.studies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Close() error {
	return nil
}
