package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"
	"github.com/signalnine/studyscope/internal/storage"
	"github.com/signalnine/studyscope/internal/trial"
)

// Store implements storage.Store using Redis.
// Each study is a hash holding its direction plus a list of JSON trials;
// a trial's list index is its number.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix for studies.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "studyscope:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) studyKey(name string) string {
	return s.prefix + "study:" + name
}

func (s *Store) trialsKey(name string) string {
	return s.prefix + "trials:" + name
}

func (s *Store) indexKey() string {
	return s.prefix + "studies"
}

func (s *Store) CreateStudy(ctx context.Context, name string, direction trial.Direction) error {
	created, err := s.client.HSetNX(ctx, s.studyKey(name), "direction", string(direction)).Result()
	if err != nil {
		return fmt.Errorf("failed to create study: %w", err)
	}
	if !created {
		return storage.ErrStudyExists
	}
	// Equal scores make ZRANGE return members in lexical order.
	if err := s.client.ZAdd(ctx, s.indexKey(), backend.Z{Score: 0, Member: name}).Err(); err != nil {
		return fmt.Errorf("failed to index study: %w", err)
	}
	return nil
}

// AppendTrial relies on RPUSH being atomic: the returned length fixes the number.
func (s *Store) AppendTrial(ctx context.Context, study string, t trial.Trial) (int, error) {
	if err := t.CheckFinite(); err != nil {
		return 0, err
	}
	exists, err := s.client.Exists(ctx, s.studyKey(study)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to look up study: %w", err)
	}
	if exists == 0 {
		return 0, storage.ErrStudyNotFound
	}

	t.Number = 0
	data, err := json.Marshal(t)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal trial: %w", err)
	}
	length, err := s.client.RPush(ctx, s.trialsKey(study), data).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to append trial: %w", err)
	}
	return int(length - 1), nil
}

// Snapshot reads direction and trials in one MULTI so both come from the same point in time.
func (s *Store) Snapshot(ctx context.Context, study string) (*trial.Study, error) {
	var (
		dirCmd    *backend.StringCmd
		trialsCmd *backend.StringSliceCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		dirCmd = pipe.HGet(ctx, s.studyKey(study), "direction")
		trialsCmd = pipe.LRange(ctx, s.trialsKey(study), 0, -1)
		return nil
	})
	if err != nil && !errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("failed to read study: %w", err)
	}

	direction, err := dirCmd.Result()
	if errors.Is(err, backend.Nil) {
		return nil, storage.ErrStudyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read direction: %w", err)
	}
	raw, err := trialsCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read trials: %w", err)
	}

	out := &trial.Study{Name: study, Direction: trial.Direction(direction), Trials: make([]trial.Trial, 0, len(raw))}
	for i, val := range raw {
		var t trial.Trial
		if err := json.Unmarshal([]byte(val), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trial %d: %w", i, err)
		}
		t.Number = i
		out.Trials = append(out.Trials, t)
	}
	return out, nil
}

func (s *Store) ListStudies(ctx context.Context) ([]string, error) {
	names, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list studies: %w", err)
	}
	return names, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
