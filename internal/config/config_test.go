package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.WatchSchedule != "@hourly" {
		t.Errorf("WatchSchedule = %q", cfg.WatchSchedule)
	}
	if cfg.HistoryDB != filepath.Join(dir, "flowlens.db") {
		t.Errorf("HistoryDB = %q", cfg.HistoryDB)
	}
	if err := cfg.Categories.Validate(); err != nil {
		t.Errorf("Default categories invalid: %v", err)
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		t.Errorf("Default thresholds invalid: %v", err)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)

	yaml := `
source: /data/export.json
watch_schedule: "@daily"
report:
  period_days: 14
  business_days: true
forecast:
  trials: 5000
  seed: 7
thresholds:
  lead_time_days:
    excellent: 5
    good: 10
    concerning: 20
`
	if err := os.WriteFile(filepath.Join(dir, "flowlens.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Source != "/data/export.json" {
		t.Errorf("Source = %q", cfg.Source)
	}
	if cfg.WatchSchedule != "@daily" {
		t.Errorf("WatchSchedule = %q", cfg.WatchSchedule)
	}
	if cfg.Forecast.Trials != 5000 || cfg.Forecast.Seed != 7 {
		t.Errorf("Forecast overlay mismatch: %+v", cfg.Forecast)
	}
	if cfg.Thresholds.LeadTimeDays.Good != 10 {
		t.Errorf("Threshold overlay mismatch: %+v", cfg.Thresholds.LeadTimeDays)
	}

	opts := cfg.ReportOptions()
	if opts.PeriodDays != 14 || !opts.Metrics.BusinessDays {
		t.Errorf("ReportOptions mismatch: %+v", opts)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("FLOWLENS_TRIALS", "777")

	yaml := "forecast:\n  trials: 5000\n"
	if err := os.WriteFile(filepath.Join(dir, "flowlens.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Forecast.Trials != 777 {
		t.Errorf("Trials = %d, env must win over YAML", cfg.Forecast.Trials)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)

	if err := os.WriteFile(filepath.Join(dir, "flowlens.yaml"), []byte("categories: [broken"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for malformed YAML")
	}
}

func TestLoadRejectsInvalidCategories(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)

	yaml := `
categories:
  categories:
    - name: only
      patterns: []
  default: missing
`
	if err := os.WriteFile(filepath.Join(dir, "flowlens.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("Expected validation error for invalid category overlay")
	}
}

func TestGodotenvQuoting(t *testing.T) {
	content := `TEST_VAR='value with "double quotes"'`
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("Error reading env: %v", err)
	}

	expected := `value with "double quotes"`
	if env["TEST_VAR"] != expected {
		t.Errorf("Expected %s, got %s", expected, env["TEST_VAR"])
	}
}
