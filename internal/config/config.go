package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"flowlens/internal/flow"
	"flowlens/internal/insights"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	// Source is the default export file analyzed when none is given.
	Source string `yaml:"source"`
	// HistoryDB is the snapshot database path.
	HistoryDB string `yaml:"history_db"`
	// WatchSchedule is the cron expression for the watch command.
	WatchSchedule string `yaml:"watch_schedule"`

	DataPath string `yaml:"-"`
	LogDir   string `yaml:"-"`

	Report     ReportConfig        `yaml:"report"`
	Forecast   ForecastConfig      `yaml:"forecast"`
	Categories flow.CategoryConfig `yaml:"categories"`
	Thresholds insights.Thresholds `yaml:"thresholds"`
}

// ReportConfig mirrors the tunable report options.
type ReportConfig struct {
	PeriodDays      int  `yaml:"period_days"`
	WindowDays      int  `yaml:"window_days"`
	TrendWindowDays int  `yaml:"trend_window_days"`
	HistoryWeeks    int  `yaml:"history_weeks"`
	DwellMinSamples int  `yaml:"dwell_min_samples"`
	BusinessDays    bool `yaml:"business_days"`
}

// ForecastConfig mirrors the tunable simulation options.
type ForecastConfig struct {
	Trials int   `yaml:"trials"`
	Seed   int64 `yaml:"seed"`
}

// Load loads configuration from .env files, an optional YAML file, and
// environment variables, in increasing priority.
func Load() (*AppConfig, error) {
	// 1. Try to load .env from the executable's directory first.
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve data paths.
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}
	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	cfg := &AppConfig{
		Source:        getEnv("FLOWLENS_SOURCE", ""),
		HistoryDB:     getEnv("FLOWLENS_HISTORY_DB", filepath.Join(dataPath, "flowlens.db")),
		WatchSchedule: getEnv("FLOWLENS_WATCH_SCHEDULE", "@hourly"),
		DataPath:      dataPath,
		LogDir:        logDir,
		Categories:    flow.DefaultCategoryConfig(),
		Thresholds:    insights.DefaultThresholds(),
	}

	// 4. Optional YAML overlay for categories, thresholds and tunables.
	yamlPath := getEnv("FLOWLENS_CONFIG", filepath.Join(dataPath, "flowlens.yaml"))
	if err := cfg.loadYAML(yamlPath); err != nil {
		return nil, err
	}

	// 5. Environment variables win over the YAML file.
	if v, err := strconv.Atoi(getEnv("FLOWLENS_TRIALS", "")); err == nil && v > 0 {
		cfg.Forecast.Trials = v
	}
	if v, err := strconv.ParseInt(getEnv("FLOWLENS_SEED", ""), 10, 64); err == nil {
		cfg.Forecast.Seed = v
	}
	if v, err := strconv.Atoi(getEnv("FLOWLENS_PERIOD_DAYS", "")); err == nil && v > 0 {
		cfg.Report.PeriodDays = v
	}

	if err := cfg.Categories.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// loadYAML overlays settings from path onto cfg. A missing file is fine;
// a malformed one aborts the run.
func (cfg *AppConfig) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	log.Debug().Str("path", path).Msg("Loaded YAML configuration")
	return nil
}

// ReportOptions converts the configured tunables into report options.
func (cfg *AppConfig) ReportOptions() flow.ReportOptions {
	return flow.ReportOptions{
		PeriodDays:      cfg.Report.PeriodDays,
		WindowDays:      cfg.Report.WindowDays,
		TrendWindowDays: cfg.Report.TrendWindowDays,
		HistoryWeeks:    cfg.Report.HistoryWeeks,
		DwellMinSamples: cfg.Report.DwellMinSamples,
		Metrics:         flow.MetricsOptions{BusinessDays: cfg.Report.BusinessDays},
		Tiers:           cfg.Thresholds.Variability,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
