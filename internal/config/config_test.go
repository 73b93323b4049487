package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Scheduler.Location().String() != "America/Sao_Paulo" {
		t.Fatalf("unexpected timezone: %s", cfg.Scheduler.Location())
	}
	if cfg.Scheduler.WakeHour() != 7 || cfg.Scheduler.WakeMinute() != 30 {
		t.Fatalf("unexpected wake time: %02d:%02d", cfg.Scheduler.WakeHour(), cfg.Scheduler.WakeMinute())
	}
	if cfg.Pipeline.MaxPerBatch != 2 {
		t.Fatalf("unexpected batch cap: %d", cfg.Pipeline.MaxPerBatch)
	}
	if len(cfg.Themes) != 7 {
		t.Fatalf("expected 7 weekday themes, got %d", len(cfg.Themes))
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PERPLEXITY_API_KEY", "pk-env")
	t.Setenv("GEMINI_API_KEY", "gk-env")
	t.Setenv("INGEST_API_KEY", "ik-env")
	t.Setenv("DEDUP_DB_PATH", "/var/lib/monkherald/history.db")

	cfg := Load()

	if cfg.Perplexity.APIKey != "pk-env" {
		t.Fatalf("perplexity key not overridden: %q", cfg.Perplexity.APIKey)
	}
	if cfg.Gemini.APIKey != "gk-env" {
		t.Fatalf("gemini key not overridden: %q", cfg.Gemini.APIKey)
	}
	if cfg.Ingest.APIKey != "ik-env" {
		t.Fatalf("ingest key not overridden: %q", cfg.Ingest.APIKey)
	}
	if cfg.Storage.DedupPath != "/var/lib/monkherald/history.db" {
		t.Fatalf("dedup path not overridden: %q", cfg.Storage.DedupPath)
	}
}

func TestConfigFileMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
scheduler:
  timezone: UTC
  wakeTime: "06:15"
pipeline:
  maxPerBatch: 3
themes:
  wednesday:
    label: Only Wednesdays
    strategy: rss
    feeds:
      - https://example.org/feed
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("MONKHERALD_CONFIG", path)

	cfg := Load()

	if cfg.Scheduler.Location() != time.UTC {
		t.Fatalf("timezone not merged: %s", cfg.Scheduler.Location())
	}
	if cfg.Scheduler.WakeHour() != 6 || cfg.Scheduler.WakeMinute() != 15 {
		t.Fatalf("wake time not merged: %02d:%02d", cfg.Scheduler.WakeHour(), cfg.Scheduler.WakeMinute())
	}
	if cfg.Pipeline.MaxPerBatch != 3 {
		t.Fatalf("batch cap not merged: %d", cfg.Pipeline.MaxPerBatch)
	}
	if cfg.ThemeFor(time.Wednesday).Label != "Only Wednesdays" {
		t.Fatalf("themes not merged: %+v", cfg.ThemeFor(time.Wednesday))
	}
	// Defaults for untouched fields survive the merge.
	if cfg.Perplexity.Endpoint == "" {
		t.Fatal("perplexity endpoint default lost in merge")
	}
}

func TestInvalidWakeTimeFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("scheduler:\n  wakeTime: \"25:99\"\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("MONKHERALD_CONFIG", path)

	cfg := Load()
	if cfg.Scheduler.WakeHour() != 7 || cfg.Scheduler.WakeMinute() != 30 {
		t.Fatalf("invalid wake time did not fall back: %02d:%02d", cfg.Scheduler.WakeHour(), cfg.Scheduler.WakeMinute())
	}
}

func TestThemeForEveryWeekday(t *testing.T) {
	cfg := Load()

	days := []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}
	for _, day := range days {
		theme := cfg.ThemeFor(day)
		if theme.Label == "" || theme.Strategy == "" || len(theme.Feeds) == 0 {
			t.Fatalf("incomplete theme for %s: %+v", day, theme)
		}
	}

	if cfg.ThemeFor(time.Wednesday).Label != "AI & Hard Tech" {
		t.Fatalf("unexpected Wednesday theme: %s", cfg.ThemeFor(time.Wednesday).Label)
	}
}
