package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gridcast/gridcast/evaluator/internal/alerts"
	"github.com/gridcast/gridcast/evaluator/internal/config"
	"github.com/gridcast/gridcast/evaluator/internal/dataset"
	"github.com/gridcast/gridcast/evaluator/internal/exporter"
	"github.com/gridcast/gridcast/evaluator/internal/noise"
	"github.com/gridcast/gridcast/evaluator/internal/report"
	"github.com/gridcast/gridcast/evaluator/internal/tracker"
	"github.com/gridcast/gridcast/pkg/scoring"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	watch := flag.Bool("watch", false, "re-evaluate whenever the config file changes")
	label := flag.String("label", "", "evaluation label (default: dataset file name)")
	flag.Parse()

	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	slog.Info("forecast-evaluator starting", "config", *configPath, "watch", *watch)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.SlogLevel())

	if err := alerts.CheckRules(cfg.Alerts.Rules); err != nil {
		slog.Error("invalid alert rules", "err", err)
		os.Exit(1)
	}

	r := &runner{
		label:   *label,
		alerts:  alerts.New(cfg.Alerts.Rules),
		tracker: tracker.New(),
	}
	if err := r.evaluate(cfg, time.Now()); err != nil {
		slog.Error("evaluation failed", "err", err)
		if !*watch {
			os.Exit(1)
		}
	}
	if !*watch {
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Each accepted reload re-runs the whole evaluation with the new weights.
	err = config.Watch(ctx, *configPath, func(updated *config.Config) {
		if err := alerts.CheckRules(updated.Alerts.Rules); err != nil {
			slog.Error("reload rejected: invalid alert rules", "err", err)
			return
		}
		level.Set(updated.SlogLevel())
		r.alerts.SetRules(updated.Alerts.Rules)
		if err := r.evaluate(updated, time.Now()); err != nil {
			slog.Error("evaluation failed", "err", err)
		}
	})
	if err != nil {
		slog.Error("config watcher stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("forecast-evaluator shutting down")
}

// runner carries state that outlives a single evaluation.
type runner struct {
	label   string
	alerts  *alerts.Engine
	tracker *tracker.Tracker
}

// evaluate loads the dataset described by cfg, scores it and publishes the
// result and its accuracy summary to the log, the alert engine, the tracker
// and the metrics file.
func (r *runner) evaluate(cfg *config.Config, now time.Time) error {
	ds, err := dataset.Load(cfg.Dataset.Path, dataset.Options{
		History:  cfg.Dataset.UseHistory,
		Temporal: cfg.Dataset.UseTemporal,
	})
	if err != nil {
		return err
	}
	batch := ds.Batch

	if cfg.Noise.Enabled {
		batch.Prediction = noise.New(cfg.Noise.Seed).Perturb(batch.Prediction, cfg.Noise.StdDev)
		slog.Info("noise applied", "seed", cfg.Noise.Seed, "stddev", cfg.Noise.StdDev)
	}

	engine, err := scoring.NewEngine(cfg.EngineOptions(slog.Default()))
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	out, err := engine.Evaluate(batch, cfg.Weights)
	if err != nil {
		return fmt.Errorf("score batch: %w", err)
	}

	label := r.labelFor(cfg)
	slog.Info("forecast scored",
		"label", label,
		"samples", batch.Len(),
		"total", out.Total,
		"base_error", out.BaseError,
		"peak_penalty", out.PeakPenalty,
		"trend_consistency", out.TrendConsistency,
		"cyclical_consistency", out.CyclicalConsistency,
		"stability", out.Stability,
		"trend_mode", out.Details.Trend.Mode,
		"cyclical_degraded", out.Details.Cyclical.Degraded,
		"weights_normalized", out.WeightsNormalized,
	)

	summary := report.Summarize(batch, out)
	slog.Info("forecast accuracy", append([]any{"label", label}, summary.LogAttrs()...)...)

	for _, a := range r.alerts.Evaluate(label, out, now) {
		slog.Debug("alert transition", "rule", a.RuleName, "state", a.State, "message", a.Message)
	}

	res := r.tracker.Record(label, out, now)
	slog.Info("score history",
		"label", label,
		"best", res.Best,
		"improved", res.Improved,
		"delta", res.Delta,
		"rolling_mean", res.RollingMean,
		"runs", res.Runs,
	)

	if path := cfg.Output.MetricsFile; path != "" {
		labels := map[string]string{"dataset": label}
		families := append(exporter.Families(out, labels), exporter.SummaryFamilies(summary, labels)...)
		if err := exporter.WriteFile(path, families); err != nil {
			return err
		}
		slog.Debug("metrics written", "path", path)
	}
	return nil
}

func (r *runner) labelFor(cfg *config.Config) string {
	if r.label != "" {
		return r.label
	}
	base := filepath.Base(cfg.Dataset.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
