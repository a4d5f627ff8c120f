package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gridcast/gridcast/pkg/scoring"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultParallelThreshold = scoring.DefaultParallelThreshold
	DefaultNoiseStdDev       = 0.003
	DefaultNoiseSeed         = 42
	DefaultLogLevel          = "info"
)

// Config is the top-level evaluator configuration.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	// Weights are the five component weights. Omitted weights keep their
	// recommended defaults; a set that no longer sums to 1 is normalised by
	// the engine, not rejected.
	Weights scoring.LossWeights `yaml:"weights"`

	// Thresholds are the peak percentile, in (0, 100], and the jump threshold.
	// A value of 0 selects the default. Re-derive them
	// when the dataset is not normalised to [0, 1].
	Thresholds scoring.Thresholds `yaml:"thresholds"`

	Engine  EngineConfig  `yaml:"engine"`
	Dataset DatasetConfig `yaml:"dataset"`
	Noise   NoiseConfig   `yaml:"noise"`
	Output  OutputConfig  `yaml:"output"`
	Alerts  AlertsConfig  `yaml:"alerts"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`
}

// EngineConfig tunes the scoring engine.
type EngineConfig struct {
	// ParallelThreshold is the batch size from which sub-metrics are computed
	// concurrently. Negative disables concurrency.
	ParallelThreshold int `yaml:"parallel_threshold"`
}

// DatasetConfig locates the batch to evaluate.
type DatasetConfig struct {
	// Path is the ML-ready JSON dataset file.
	Path string `yaml:"path"`

	// UseHistory attaches each record's input sequence so the trend metric
	// compares per-sample changes.
	UseHistory bool `yaml:"use_history"`

	// UseTemporal attaches hour/day metadata so the cyclical metric can key
	// on the hour of day instead of degrading to MAE.
	UseTemporal bool `yaml:"use_temporal"`
}

// NoiseConfig controls the optional, explicitly seeded perturbation applied
// to predictions before they reach the engine.
type NoiseConfig struct {
	Enabled bool    `yaml:"enabled"`
	Seed    uint64  `yaml:"seed"`
	StdDev  float64 `yaml:"stddev"`
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	// MetricsFile is the Prometheus textfile written after each evaluation.
	// Empty disables the file.
	MetricsFile string `yaml:"metrics_file"`
}

// AlertsConfig holds threshold rules evaluated against every breakdown.
type AlertsConfig struct {
	Rules []AlertRule `yaml:"rules"`
}

// AlertRule defines a threshold condition on a breakdown field.
type AlertRule struct {
	// Name is the human-readable alert identifier.
	Name string `yaml:"name"`

	// Condition is an expression like "total > 0.05" or "direction_mismatch_rate >= 0.5".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values map to Info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EngineOptions returns the scoring.Options described by the config.
func (c *Config) EngineOptions(logger *slog.Logger) scoring.Options {
	return scoring.Options{
		Thresholds:        c.Thresholds,
		ParallelThreshold: c.Engine.ParallelThreshold,
		Logger:            logger,
	}
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Weights:    scoring.DefaultWeights(),
		Thresholds: scoring.DefaultThresholds(),
		Engine:     EngineConfig{ParallelThreshold: DefaultParallelThreshold},
		Dataset:    DatasetConfig{UseHistory: true, UseTemporal: true},
		Noise:      NoiseConfig{Seed: DefaultNoiseSeed, StdDev: DefaultNoiseStdDev},
		LogLevel:   DefaultLogLevel,
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Dataset.Path == "" {
		return fmt.Errorf("dataset.path is required")
	}

	w := cfg.Weights
	for name, v := range map[string]float64{
		"base_error":           w.BaseError,
		"peak_penalty":         w.PeakPenalty,
		"trend_consistency":    w.TrendConsistency,
		"cyclical_consistency": w.CyclicalConsistency,
		"stability":            w.Stability,
	} {
		if v < 0 {
			return fmt.Errorf("weights.%s must not be negative", name)
		}
	}
	if w.Sum() == 0 {
		return fmt.Errorf("weights: at least one weight must be positive")
	}

	// Same rule as scoring.NewEngine: an explicit 0 selects the default.
	cfg.Thresholds = cfg.Thresholds.WithDefaults()
	if err := cfg.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}

	if cfg.Noise.StdDev < 0 {
		return fmt.Errorf("noise.stddev must not be negative")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
	}

	for i, r := range cfg.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d]: name is required", i)
		}
		if r.Condition == "" {
			return fmt.Errorf("alerts.rules[%d] %q: condition is required", i, r.Name)
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("alerts.rules[%d] %q: unknown severity %q", i, r.Name, r.Severity)
		}
	}
	return nil
}
