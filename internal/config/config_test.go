package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/signalnine/studyscope/internal/config"
)

func TestLoadMinimal(t *testing.T) {
	cfg, err := config.Load("testdata/minimal.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Backend != config.BackendMemory {
		t.Errorf("expected memory backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.Server.Addr)
	}
	if cfg.Report.Format != "table" {
		t.Errorf("expected default report format table, got %q", cfg.Report.Format)
	}
	if cfg.Report.Parallel != 4 {
		t.Errorf("expected default parallel 4, got %d", cfg.Report.Parallel)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("unexpected log defaults: %+v", cfg.Log)
	}
}

func TestLoadFull(t *testing.T) {
	cfg, err := config.Load("testdata/full.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Redis.Addr != "redis.internal:6380" {
		t.Errorf("redis addr: got %q", cfg.Storage.Redis.Addr)
	}
	if cfg.Storage.Redis.DB != 2 || cfg.Storage.Redis.Prefix != "optim:" {
		t.Errorf("unexpected redis config: %+v", cfg.Storage.Redis)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("read timeout: got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Report.Format != "markdown" || cfg.Report.Parallel != 8 {
		t.Errorf("unexpected report config: %+v", cfg.Report)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Backend != config.BackendSQLite {
		t.Errorf("expected sqlite backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != "studyscope.db" {
		t.Errorf("expected default path, got %q", cfg.Storage.Path)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STUDYSCOPE_STORAGE_BACKEND", "file")
	t.Setenv("STUDYSCOPE_STORAGE_PATH", "/tmp/studies")
	t.Setenv("STUDYSCOPE_SERVER_ADDR", ":9999")
	t.Setenv("STUDYSCOPE_STORAGE_REDIS_DB", "5")

	cfg, err := config.Load("testdata/minimal.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Backend != config.BackendFile {
		t.Errorf("backend: got %q, want file", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != "/tmp/studies" {
		t.Errorf("path: got %q", cfg.Storage.Path)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("addr: got %q", cfg.Server.Addr)
	}
	if cfg.Storage.Redis.DB != 5 {
		t.Errorf("redis db: got %d", cfg.Storage.Redis.DB)
	}
}

func TestLoadEnvParseError(t *testing.T) {
	t.Setenv("STUDYSCOPE_REPORT_PARALLEL", "many")

	_, err := config.Load("")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := config.Load("nonexistent.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"malformed yaml", "testdata/invalid.yaml"},
		{"unknown backend", "testdata/unknown_backend.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := config.Load(tt.path); err == nil {
				t.Errorf("expected error for %s", tt.path)
			}
		})
	}
}
