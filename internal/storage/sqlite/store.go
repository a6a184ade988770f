// Package sqlite provides a SQLite-backed study storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/signalnine/studyscope/internal/storage"
	"github.com/signalnine/studyscope/internal/storage/sqlite/migrations"
	"github.com/signalnine/studyscope/internal/trial"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists studies in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite study store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection serializes writers; trial numbering relies on it.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) CreateStudy(ctx context.Context, name string, direction trial.Direction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("study name is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO studies (name, direction) VALUES (?, ?)`, name, string(direction))
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrStudyExists
		}
		return fmt.Errorf("create study: %w", err)
	}
	return nil
}

func (s *Store) AppendTrial(ctx context.Context, study string, t trial.Trial) (int, error) {
	numbers, err := s.AppendTrials(ctx, study, []trial.Trial{t})
	if err != nil {
		return 0, err
	}
	return numbers[0], nil
}

// AppendTrials stores trials in one transaction: either all of them get
// consecutive numbers or none is written.
func (s *Store) AppendTrials(ctx context.Context, study string, trials []trial.Trial) ([]int, error) {
	for i := range trials {
		if err := trials[i].CheckFinite(); err != nil {
			return nil, err
		}
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	studyID, _, err := lookupStudy(ctx, tx, study)
	if err != nil {
		return nil, err
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(number) + 1, 0) FROM trials WHERE study_id = ?`, studyID,
	).Scan(&next); err != nil {
		return nil, fmt.Errorf("next trial number: %w", err)
	}

	numbers := make([]int, len(trials))
	for i, t := range trials {
		numbers[i] = next + i
		if err := insertTrial(ctx, tx, studyID, numbers[i], t); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return numbers, nil
}

func insertTrial(ctx context.Context, tx *sql.Tx, studyID int64, number int, t trial.Trial) error {
	var value sql.NullFloat64
	if t.Value != nil {
		value = sql.NullFloat64{Float64: *t.Value, Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO trials (study_id, number, state, value) VALUES (?, ?, ?, ?)`,
		studyID, number, string(t.State), value,
	); err != nil {
		return fmt.Errorf("insert trial %d: %w", number, err)
	}

	for name, v := range t.Params {
		dist, err := json.Marshal(t.Distributions[name])
		if err != nil {
			return fmt.Errorf("marshaling distribution %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trial_params (study_id, number, name, value, distribution) VALUES (?, ?, ?, ?, ?)`,
			studyID, number, name, v, string(dist),
		); err != nil {
			return fmt.Errorf("insert param %q: %w", name, err)
		}
	}
	for step, v := range t.IntermediateValues {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trial_intermediate_values (study_id, number, step, value) VALUES (?, ?, ?, ?)`,
			studyID, number, step, v,
		); err != nil {
			return fmt.Errorf("insert intermediate value %d: %w", step, err)
		}
	}
	return nil
}

// Snapshot reads the whole study inside one transaction.
func (s *Store) Snapshot(ctx context.Context, study string) (*trial.Study, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	studyID, direction, err := lookupStudy(ctx, tx, study)
	if err != nil {
		return nil, err
	}
	out := &trial.Study{Name: study, Direction: direction, Trials: []trial.Trial{}}
	index := map[int]int{}

	rows, err := tx.QueryContext(ctx,
		`SELECT number, state, value FROM trials WHERE study_id = ? ORDER BY number`, studyID)
	if err != nil {
		return nil, fmt.Errorf("query trials: %w", err)
	}
	for rows.Next() {
		var (
			t     trial.Trial
			state string
			value sql.NullFloat64
		)
		if err := rows.Scan(&t.Number, &state, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan trial: %w", err)
		}
		t.State = trial.State(state)
		if value.Valid {
			t.Value = trial.Float64(value.Float64)
		}
		index[t.Number] = len(out.Trials)
		out.Trials = append(out.Trials, t)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("query trials: %w", err)
	}

	rows, err = tx.QueryContext(ctx,
		`SELECT number, name, value, distribution FROM trial_params WHERE study_id = ?`, studyID)
	if err != nil {
		return nil, fmt.Errorf("query params: %w", err)
	}
	for rows.Next() {
		var (
			number   int
			name     string
			value    float64
			distJSON string
			dist     trial.Distribution
		)
		if err := rows.Scan(&number, &name, &value, &distJSON); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan param: %w", err)
		}
		if err := json.Unmarshal([]byte(distJSON), &dist); err != nil {
			rows.Close()
			return nil, fmt.Errorf("parsing distribution of trial %d param %q: %w", number, name, err)
		}
		t := &out.Trials[index[number]]
		if t.Params == nil {
			t.Params = map[string]float64{}
			t.Distributions = map[string]trial.Distribution{}
		}
		t.Params[name] = value
		t.Distributions[name] = dist
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("query params: %w", err)
	}

	rows, err = tx.QueryContext(ctx,
		`SELECT number, step, value FROM trial_intermediate_values WHERE study_id = ?`, studyID)
	if err != nil {
		return nil, fmt.Errorf("query intermediate values: %w", err)
	}
	for rows.Next() {
		var (
			number, step int
			value        float64
		)
		if err := rows.Scan(&number, &step, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan intermediate value: %w", err)
		}
		t := &out.Trials[index[number]]
		if t.IntermediateValues == nil {
			t.IntermediateValues = map[int]float64{}
		}
		t.IntermediateValues[step] = value
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("query intermediate values: %w", err)
	}

	return out, nil
}

func (s *Store) ListStudies(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT name FROM studies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list studies: %w", err)
	}
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan study: %w", err)
		}
		names = append(names, name)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("list studies: %w", err)
	}
	return names, nil
}

func lookupStudy(ctx context.Context, tx *sql.Tx, name string) (int64, trial.Direction, error) {
	var (
		id        int64
		direction string
	)
	err := tx.QueryRowContext(ctx, `SELECT id, direction FROM studies WHERE name = ?`, name).Scan(&id, &direction)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", storage.ErrStudyNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("lookup study %q: %w", name, err)
	}
	return id, trial.Direction(direction), nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
