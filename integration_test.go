//go:build integration

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalnine/studyscope/internal/analytics"
	"github.com/signalnine/studyscope/internal/config"
	"github.com/signalnine/studyscope/internal/logging"
	"github.com/signalnine/studyscope/internal/server"
	"github.com/signalnine/studyscope/internal/storage"
	"github.com/signalnine/studyscope/internal/storage/backend"
	"github.com/signalnine/studyscope/internal/trial"
)

// importStudy loads the fixture study into store the way `studyscope import` does.
func importStudy(t *testing.T, ctx context.Context, store storage.Store) *trial.Study {
	t.Helper()
	study, err := trial.LoadStudy(filepath.Join("cmd", "testdata", "study.yaml"))
	if err != nil {
		t.Fatalf("LoadStudy: %v", err)
	}
	if err := store.CreateStudy(ctx, study.Name, study.Direction); err != nil {
		t.Fatalf("CreateStudy: %v", err)
	}
	for _, tr := range study.Trials {
		if _, err := store.AppendTrial(ctx, study.Name, tr); err != nil {
			t.Fatalf("AppendTrial: %v", err)
		}
	}
	return study
}

func checkServedHistory(t *testing.T, store storage.Store, study string) {
	t.Helper()
	ts := httptest.NewServer(server.New(store, logging.NewNop()).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/studies/" + study + "/history")
	if err != nil {
		t.Fatalf("GET history: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	var h analytics.History
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(h.Raw.X) != 2 || h.RunningBest.Y[1] != 1 {
		t.Errorf("unexpected history: %+v", h)
	}
}

func TestBackendsEndToEnd(t *testing.T) {
	backends := []config.Storage{
		{Backend: config.BackendMemory},
		{Backend: config.BackendSQLite, Path: filepath.Join(t.TempDir(), "studies.db")},
		{Backend: config.BackendFile, Path: filepath.Join(t.TempDir(), "studies")},
	}
	if addr := os.Getenv("STUDYSCOPE_TEST_REDIS_ADDR"); addr != "" {
		backends = append(backends, config.Storage{
			Backend: config.BackendRedis,
			Redis:   config.Redis{Addr: addr, Prefix: "studyscope-it:" + time.Now().Format("150405.000") + ":"},
		})
	}

	for _, cfg := range backends {
		t.Run(cfg.Backend, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			store, err := backend.Open(cfg)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer store.Close()

			want := importStudy(t, ctx, store)
			got, err := store.Snapshot(ctx, want.Name)
			if err != nil {
				t.Fatalf("Snapshot: %v", err)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("stored study invalid: %v", err)
			}
			if len(got.Trials) != len(want.Trials) {
				t.Fatalf("trials: got %d, want %d", len(got.Trials), len(want.Trials))
			}
			checkServedHistory(t, store, want.Name)
		})
	}
}
