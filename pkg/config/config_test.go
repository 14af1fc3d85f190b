package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "params:\n  backend: yaml\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTP.ListenAddr != "0.0.0.0" || cfg.HTTP.Port != 8080 {
		t.Errorf("HTTP defaults not applied: %+v", cfg.HTTP)
	}
	if cfg.Model.IntervalMinutes != 10 || cfg.Model.InterEventGapMinutes != 30 ||
		cfg.Model.IntraEventGapMinutes != 15 || cfg.Model.DisaggIntervalMinutes != 10 {
		t.Errorf("model defaults not applied: %+v", cfg.Model)
	}
	if cfg.Params.Path != "params.yaml" {
		t.Errorf("params path default not applied: %q", cfg.Params.Path)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
http:
  listen_addr: 127.0.0.1
  port: 9090
storage:
  postgres:
    connection_string: host=localhost dbname=lildrip
params:
  backend: sqlite
  path: /var/lib/lildrip/params.db
model:
  interval_minutes: 5
  inter_event_gap_minutes: 60
  intra_event_gap_minutes: 20
  disagg_interval_minutes: 5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTP.Port != 9090 || cfg.HTTP.ListenAddr != "127.0.0.1" {
		t.Errorf("HTTP config: %+v", cfg.HTTP)
	}
	if cfg.Storage.Postgres == nil || cfg.Storage.Postgres.ConnectionString != "host=localhost dbname=lildrip" {
		t.Errorf("storage config: %+v", cfg.Storage)
	}
	if cfg.Params.Backend != "sqlite" {
		t.Errorf("params backend: %q", cfg.Params.Backend)
	}
	if cfg.Model.InterEventGapMinutes != 60 {
		t.Errorf("model config: %+v", cfg.Model)
	}
}

func TestLoadRejectsBadBackend(t *testing.T) {
	path := writeConfig(t, "params:\n  backend: redis\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for unsupported backend")
	}
}

func TestLoadRejectsNegativeInterval(t *testing.T) {
	path := writeConfig(t, "model:\n  interval_minutes: -10\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for negative interval")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
