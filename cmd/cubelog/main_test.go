package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cubelog/cubelog/internal/config"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("CUBELOG_DB", "")
	t.Setenv("CUBELOG_LOG_LEVEL", "error")
	t.Setenv("CUBELOG_OFFLINE", "true")
	t.Setenv("CUBELOG_RANKING_URL", "")
	t.Setenv("CUBELOG_ADDR", "")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("cubelog %s failed: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestSessionAndSolveCommands(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "session", "new", "--date", "2024-03-09", "--notes", "morning")
	if !strings.Contains(out, "Created session 1 (333, 2024-03-09)") {
		t.Fatalf("unexpected output: %q", out)
	}
	for _, tm := range []string{"18.50", "21.30", "19.80", "20.10", "22.40"} {
		mustRun(t, "solve", "add", "1", tm)
	}

	out = mustRun(t, "session", "show", "1")
	for _, want := range []string{"Solves: 5", "Best: 18.50", "Mean: 20.42", "Ao5: 20.40", "Notes: morning"} {
		if !strings.Contains(out, want) {
			t.Fatalf("session show missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "solve", "edit", "1", "--penalty", "DNF")
	if !strings.Contains(out, "DNF") || !strings.Contains(out, "Best 19.80") {
		t.Fatalf("unexpected edit output: %q", out)
	}

	out = mustRun(t, "solve", "delete", "2")
	if !strings.Contains(out, "Solves 4") || !strings.Contains(out, "Ao5 -") {
		t.Fatalf("unexpected delete output: %q", out)
	}

	out = mustRun(t, "session", "recompute", "--all")
	if !strings.Contains(out, "Recomputed 1 sessions") {
		t.Fatalf("unexpected recompute output: %q", out)
	}

	out = mustRun(t, "session", "list")
	if !strings.Contains(out, "2024-03-09") {
		t.Fatalf("unexpected session list: %q", out)
	}

	if _, err := run(t, "session", "show", "99"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
	if _, err := run(t, "solve", "add", "1", "fast"); err == nil {
		t.Fatalf("expected a parse error")
	}
	if _, err := run(t, "solve", "edit", "3"); err == nil {
		t.Fatalf("expected an empty edit to fail")
	}
}

func TestStatsPlainAndExport(t *testing.T) {
	setupEnv(t)
	mustRun(t, "session", "new", "--date", "2024-03-09")
	for _, tm := range []string{"18.50", "21.30", "19.80", "20.10", "22.40"} {
		mustRun(t, "solve", "add", "1", tm)
	}

	out := mustRun(t, "stats", "--plain")
	for _, want := range []string{"Summary", "Sessions: 1", "Best single: 18.50", "Best ao5: 20.40"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stats missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "export", "--format", "yaml")
	if !strings.Contains(out, "event_id: \"333\"") || !strings.Contains(out, "time_ms: 18500") {
		t.Fatalf("unexpected export:\n%s", out)
	}

	path := filepath.Join(t.TempDir(), "out", "dump.json")
	mustRun(t, "export", "--output", path)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), `"ao5": 20400`) {
		t.Fatalf("unexpected JSON export: %s", data)
	}

	if _, err := run(t, "export", "--format", "xml"); err == nil {
		t.Fatalf("expected unknown format to fail")
	}
}

func TestRankOffline(t *testing.T) {
	setupEnv(t)
	out := mustRun(t, "rank", "12.00")
	if !strings.Contains(out, "333 single 12.00") || !strings.Contains(out, "Approximate statistical estimate") {
		t.Fatalf("unexpected rank output:\n%s", out)
	}
	out = mustRun(t, "rank")
	if !strings.Contains(out, "No 333 solves yet.") {
		t.Fatalf("unexpected rank output without solves: %q", out)
	}
	if _, err := run(t, "rank", "DNF"); err == nil {
		t.Fatalf("expected DNF to be rejected")
	}
}

func TestImportCommand(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "log.txt")
	if err := os.WriteFile(path, []byte("1. 18.50\n2. DNF(20.00)\n3. 19.00+\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out := mustRun(t, "import", "--preview", path)
	if !strings.Contains(out, "solves    3") {
		t.Fatalf("unexpected preview: %q", out)
	}
	if out := mustRun(t, "session", "list"); !strings.Contains(out, "No sessions found.") {
		t.Fatalf("preview must not write, got %q", out)
	}

	out = mustRun(t, "import", "--event", "222", path)
	if !strings.Contains(out, "Imported 3 solves into 1 sessions") {
		t.Fatalf("unexpected import output: %q", out)
	}
}

func TestCubeCommands(t *testing.T) {
	setupEnv(t)
	out := mustRun(t, "cube", "add", "--brand", "GAN", "--model", "12")
	if !strings.Contains(out, "Added cube 1: GAN 12 (3x3)") {
		t.Fatalf("unexpected add output: %q", out)
	}
	mustRun(t, "cube", "retire", "1")
	if out := mustRun(t, "cube", "list"); !strings.Contains(out, "No cubes found.") {
		t.Fatalf("expected retired cube hidden, got %q", out)
	}
	if out := mustRun(t, "cube", "list", "--all"); !strings.Contains(out, "(retired)") {
		t.Fatalf("expected retired cube listed, got %q", out)
	}
	if _, err := run(t, "cube", "edit", "1"); err == nil {
		t.Fatalf("expected an empty cube edit to fail")
	}
}

func TestSettingsShowWithoutLink(t *testing.T) {
	setupEnv(t)
	out := mustRun(t, "settings", "show")
	if !strings.Contains(out, "No WCA ID linked") {
		t.Fatalf("unexpected settings output: %q", out)
	}
	if _, err := run(t, "settings", "set-wca-id", "not-an-id"); err == nil {
		t.Fatalf("expected a malformed WCA ID to fail")
	}
	mustRun(t, "settings", "clear")
}

func TestConfigTemplateIsValid(t *testing.T) {
	setupEnv(t)
	out := mustRun(t, "config", "--no-edit")
	path := strings.TrimSpace(out)
	if path != config.DefaultConfigPath() {
		t.Fatalf("expected %s, got %s", config.DefaultConfigPath(), path)
	}
	if _, err := config.LoadConfig(path); err != nil {
		t.Fatalf("template does not load: %v", err)
	}

	var uncommented []string
	for _, line := range strings.Split(defaultConfigTemplate(), "\n") {
		if strings.HasPrefix(line, "# ") && strings.Contains(line, " = ") {
			line = strings.TrimPrefix(line, "# ")
			if i := strings.Index(line, "  #"); i >= 0 {
				line = line[:i]
			}
		}
		uncommented = append(uncommented, line)
	}
	full := filepath.Join(t.TempDir(), "full.toml")
	if err := os.WriteFile(full, []byte(strings.Join(uncommented, "\n")), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.LoadConfig(full)
	if err != nil {
		t.Fatalf("uncommented template does not load: %v", err)
	}
	if cfg.Stats.Window == nil || *cfg.Stats.Window != defaultCurveWindow || cfg.Log.Level == nil {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
