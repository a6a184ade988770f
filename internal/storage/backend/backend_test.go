package backend_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/signalnine/studyscope/internal/config"
	"github.com/signalnine/studyscope/internal/storage/backend"
	"github.com/signalnine/studyscope/internal/trial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.Storage
	}{
		{"memory", config.Storage{Backend: config.BackendMemory}},
		{"sqlite", config.Storage{Backend: config.BackendSQLite, Path: filepath.Join(dir, "s.db")}},
		{"file", config.Storage{Backend: config.BackendFile, Path: filepath.Join(dir, "files")}},
		{"redis", config.Storage{Backend: config.BackendRedis, Redis: config.Redis{Addr: mr.Addr(), Prefix: "t:"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := backend.Open(tt.cfg)
			require.NoError(t, err)
			defer store.Close()

			ctx := context.Background()
			require.NoError(t, store.CreateStudy(ctx, "opened", trial.Minimize))
			names, err := store.ListStudies(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"opened"}, names)
		})
	}
}

func TestOpenUnknown(t *testing.T) {
	_, err := backend.Open(config.Storage{Backend: "postgres"})
	assert.Error(t, err)
}
