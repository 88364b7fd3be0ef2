package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

const sampleConfig = `
[timer]
event = "222"
cube = 3

[stats]
last = 30
window = 5
since = "2024-01-01"

[ranking]
offline = true
timeout-seconds = 3

[server]
addr = "127.0.0.1:9000"

[log]
level = "debug"
`

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Timer.Event != nil || cfg.Server.Addr != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Timer.Event == nil || *cfg.Timer.Event != "222" {
		t.Fatalf("expected timer event 222, got %v", cfg.Timer.Event)
	}
	if cfg.Timer.Cube == nil || *cfg.Timer.Cube != 3 {
		t.Fatalf("expected cube 3, got %v", cfg.Timer.Cube)
	}
	if cfg.Stats.Last == nil || *cfg.Stats.Last != 30 || cfg.Stats.Window == nil || *cfg.Stats.Window != 5 {
		t.Fatalf("unexpected stats config: %+v", cfg.Stats)
	}
	if cfg.Ranking.Offline == nil || !*cfg.Ranking.Offline || *cfg.Ranking.TimeoutSeconds != 3 {
		t.Fatalf("unexpected ranking config: %+v", cfg.Ranking)
	}
	if cfg.Ranking.URL != nil {
		t.Fatalf("expected ranking url unset")
	}
	if *cfg.Server.Addr != "127.0.0.1:9000" || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected server/log config")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[timer]\nevnt = \"333\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CUBELOG_DB", "/tmp/solves.db")
	t.Setenv("CUBELOG_LOG_LEVEL", "warn")
	t.Setenv("CUBELOG_OFFLINE", "false")
	t.Setenv("CUBELOG_RANKING_URL", "http://mirror.local/api")
	t.Setenv("CUBELOG_ADDR", ":8081")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *cfg.Storage.Path != "/tmp/solves.db" || *cfg.Log.Level != "warn" || *cfg.Server.Addr != ":8081" {
		t.Fatalf("expected env overrides, got %+v", cfg)
	}
	if *cfg.Ranking.URL != "http://mirror.local/api" || *cfg.Ranking.Offline {
		t.Fatalf("expected ranking overrides, got %+v", cfg.Ranking)
	}
	if *cfg.Timer.Event != "222" {
		t.Fatalf("expected file values to survive, got %v", *cfg.Timer.Event)
	}
}

func TestEnvRejectsBadBool(t *testing.T) {
	t.Setenv("CUBELOG_OFFLINE", "maybe")
	if _, err := LoadEnv(); err == nil {
		t.Fatalf("expected error for bad bool")
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "cfg"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	if got := DefaultConfigPath(); got != filepath.Join(dir, "cfg", "cubelog", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join(dir, "data", "cubelog", "cubelog.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultRankingCacheDir(); got != filepath.Join(dir, "cache", "cubelog", "ranking") {
		t.Fatalf("unexpected cache dir %q", got)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[ranking]\noffline = false\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan FileConfig, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, log.New(io.Discard), func(cfg FileConfig) {
			changes <- cfg
		})
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case cfg := <-changes:
			if cfg.Ranking.Offline != nil && *cfg.Ranking.Offline {
				cancel()
				if err := <-done; err != nil {
					t.Fatalf("Watch returned error: %v", err)
				}
				return
			}
		case <-tick.C:
			// Rewrite until the watcher has been registered and notices the change.
			if err := os.WriteFile(path, []byte("[ranking]\noffline = true\n"), 0o644); err != nil {
				t.Fatalf("rewrite config: %v", err)
			}
		case <-deadline:
			t.Fatalf("timed out waiting for config reload")
		}
	}
}
