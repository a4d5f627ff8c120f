package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/gridcast/gridcast/evaluator/internal/report"
	"github.com/gridcast/gridcast/pkg/scoring"
)

// Metric family names.
const (
	MetricTotal             = "forecast_score_total"
	MetricComponent         = "forecast_score_component"
	MetricWeight            = "forecast_score_weight"
	MetricWeightsNormalized = "forecast_score_weights_normalized"
	MetricPeakThreshold     = "forecast_score_peak_threshold"
	MetricPeakSamples       = "forecast_score_peak_samples"
	MetricDirectionMismatch = "forecast_score_direction_mismatch_rate"
	MetricJumpPenalty       = "forecast_score_jump_penalty"
	MetricCyclicalDegraded  = "forecast_score_cyclical_degraded"

	MetricContributionRatio = "forecast_score_contribution_ratio"
	MetricMAE               = "forecast_mae"
	MetricRMSE              = "forecast_rmse"
	MetricAccuracy          = "forecast_accuracy_pct"
	MetricPeakAccuracy      = "forecast_peak_accuracy_pct"
)

// componentLabel is the label distinguishing the five sub-metrics.
const componentLabel = "component"

// Families converts b into gauge metric families sorted by name.
// constLabels (e.g. {"dataset": "test"}) are attached to every sample.
func Families(b *scoring.ScoreBreakdown, constLabels map[string]string) []*dto.MetricFamily {
	base := labelPairs(constLabels)

	values := []struct {
		component     string
		value, weight float64
	}{
		{report.ComponentBaseError, b.BaseError, b.AppliedWeights.BaseError},
		{report.ComponentPeakPenalty, b.PeakPenalty, b.AppliedWeights.PeakPenalty},
		{report.ComponentTrendConsistency, b.TrendConsistency, b.AppliedWeights.TrendConsistency},
		{report.ComponentCyclicalConsistency, b.CyclicalConsistency, b.AppliedWeights.CyclicalConsistency},
		{report.ComponentStability, b.Stability, b.AppliedWeights.Stability},
	}
	components := make([]*dto.Metric, 0, len(values))
	weights := make([]*dto.Metric, 0, len(values))
	for _, v := range values {
		labels := withLabel(base, componentLabel, v.component)
		components = append(components, sample(v.value, labels))
		weights = append(weights, sample(v.weight, labels))
	}

	families := []*dto.MetricFamily{
		gauge(MetricTotal, "Weighted forecast score (lower is better).", sample(b.Total, base)),
		gauge(MetricComponent, "Unweighted sub-metric value.", components...),
		gauge(MetricWeight, "Weight applied to each sub-metric after normalisation.", weights...),
		gauge(MetricWeightsNormalized, "1 if the configured weights did not sum to 1 and were normalised.",
			sample(boolValue(b.WeightsNormalized), base)),
		gauge(MetricPeakThreshold, "Percentile value of truth above which samples count as peaks.",
			sample(b.Details.Peak.Threshold, base)),
		gauge(MetricPeakSamples, "Number of samples in the peak set.",
			sample(float64(b.Details.Peak.Count), base)),
		gauge(MetricDirectionMismatch, "Share of trend pairs whose direction was predicted wrongly.",
			sample(b.Details.Trend.DirectionMismatchRate, base)),
		gauge(MetricJumpPenalty, "Jump term of the stability metric.",
			sample(b.Details.Stability.JumpPenalty, base)),
		gauge(MetricCyclicalDegraded, "1 if no temporal metadata was available and cyclical fell back to MAE.",
			sample(boolValue(b.Details.Cyclical.Degraded), base)),
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	return families
}

// SummaryFamilies converts an accuracy summary into gauge metric families
// sorted by name.
func SummaryFamilies(s report.Summary, constLabels map[string]string) []*dto.MetricFamily {
	base := labelPairs(constLabels)

	ratios := make([]*dto.Metric, 0, len(s.Contributions))
	for _, c := range s.Contributions {
		ratios = append(ratios, sample(c.Ratio, withLabel(base, componentLabel, c.Component)))
	}

	families := []*dto.MetricFamily{
		gauge(MetricContributionRatio, "Share of the total score contributed by each weighted component.", ratios...),
		gauge(MetricMAE, "Mean absolute error of the batch.", sample(s.MAE, base)),
		gauge(MetricRMSE, "Root mean squared error of the batch.", sample(s.RMSE, base)),
		gauge(MetricAccuracy, "Accuracy percentage, (1 - MAE) * 100.", sample(s.AccuracyPct, base)),
		gauge(MetricPeakAccuracy, "Accuracy percentage over peak samples.", sample(s.PeakAccuracyPct, base)),
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	return families
}

// Write encodes families to w in the Prometheus text exposition format.
func Write(w io.Writer, families []*dto.MetricFamily) error {
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("exporter: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile writes families to path, replacing any previous file atomically
// via a temporary file in the same directory.
func WriteFile(path string, families []*dto.MetricFamily) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("exporter: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if err := Write(tmp, families); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("exporter: close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("exporter: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("exporter: rename: %w", err)
	}
	return nil
}

func gauge(name, help string, metrics ...*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: metrics,
	}
}

func sample(v float64, labels []*dto.LabelPair) *dto.Metric {
	return &dto.Metric{
		Label: labels,
		Gauge: &dto.Gauge{Value: proto.Float64(v)},
	}
}

// labelPairs converts m into label pairs sorted by name.
func labelPairs(m map[string]string) []*dto.LabelPair {
	out := make([]*dto.LabelPair, 0, len(m))
	for k, v := range m {
		out = append(out, &dto.LabelPair{Name: proto.String(k), Value: proto.String(v)})
	}
	sortLabels(out)
	return out
}

// withLabel returns a sorted copy of base with name=value added.
func withLabel(base []*dto.LabelPair, name, value string) []*dto.LabelPair {
	out := make([]*dto.LabelPair, 0, len(base)+1)
	out = append(out, base...)
	out = append(out, &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)})
	sortLabels(out)
	return out
}

func sortLabels(l []*dto.LabelPair) {
	sort.Slice(l, func(i, j int) bool { return l[i].GetName() < l[j].GetName() })
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
