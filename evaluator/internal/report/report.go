// Package report derives the human-facing accuracy summary of an evaluated
// batch: plain error metrics, accuracy percentages and the share of the total
// score contributed by each component.
package report

import (
	"math"

	"github.com/gridcast/gridcast/pkg/scoring"
)

// Component names, shared with the exporter's component label.
const (
	ComponentBaseError           = "base_error"
	ComponentPeakPenalty         = "peak_penalty"
	ComponentTrendConsistency    = "trend_consistency"
	ComponentCyclicalConsistency = "cyclical_consistency"
	ComponentStability           = "stability"
)

// Summary is the accuracy report for one evaluated batch.
type Summary struct {
	Samples int

	MAE  float64
	MSE  float64
	RMSE float64

	// AccuracyPct is (1 - MAE) * 100. Meaningful for series in [0, 1].
	AccuracyPct float64

	// PeakSamples counts samples whose truth is above the peak threshold the
	// engine used. PeakAccuracyPct is (1 - mean |err| over them) * 100, or 100
	// when there are none.
	PeakSamples     int
	PeakAccuracyPct float64

	// Contributions lists every component in a fixed order.
	Contributions []Contribution
}

// Contribution is one component's weighted share of the total score.
type Contribution struct {
	Component string
	Value     float64 // unweighted sub-metric
	Weighted  float64 // applied weight * Value
	Ratio     float64 // Weighted / Total; 0 when Total is 0
}

// Summarize builds the summary for batch scored as b. Peaks are the samples
// strictly above b.Details.Peak.Threshold, the same set the peak penalty
// used.
func Summarize(batch scoring.ForecastBatch, b *scoring.ScoreBreakdown) Summary {
	n := min(len(batch.Truth), len(batch.Prediction))
	s := Summary{Samples: n, PeakAccuracyPct: 100}

	var absSum, sqSum, peakAbsSum float64
	for i := 0; i < n; i++ {
		d := math.Abs(batch.Truth[i] - batch.Prediction[i])
		absSum += d
		sqSum += d * d
		if batch.Truth[i] > b.Details.Peak.Threshold {
			peakAbsSum += d
			s.PeakSamples++
		}
	}
	if n > 0 {
		s.MAE = absSum / float64(n)
		s.MSE = sqSum / float64(n)
		s.RMSE = math.Sqrt(s.MSE)
		s.AccuracyPct = (1 - s.MAE) * 100
	}
	if s.PeakSamples > 0 {
		s.PeakAccuracyPct = (1 - peakAbsSum/float64(s.PeakSamples)) * 100
	}

	w := b.AppliedWeights
	for _, c := range []struct {
		name          string
		value, weight float64
	}{
		{ComponentBaseError, b.BaseError, w.BaseError},
		{ComponentPeakPenalty, b.PeakPenalty, w.PeakPenalty},
		{ComponentTrendConsistency, b.TrendConsistency, w.TrendConsistency},
		{ComponentCyclicalConsistency, b.CyclicalConsistency, w.CyclicalConsistency},
		{ComponentStability, b.Stability, w.Stability},
	} {
		ct := Contribution{Component: c.name, Value: c.value, Weighted: c.weight * c.value}
		if b.Total != 0 {
			ct.Ratio = ct.Weighted / b.Total
		}
		s.Contributions = append(s.Contributions, ct)
	}
	return s
}

// LogAttrs returns the summary as slog key/value pairs, one ratio per
// component.
func (s Summary) LogAttrs() []any {
	out := []any{
		"samples", s.Samples,
		"mae", s.MAE,
		"rmse", s.RMSE,
		"accuracy_pct", s.AccuracyPct,
		"peak_samples", s.PeakSamples,
		"peak_accuracy_pct", s.PeakAccuracyPct,
	}
	for _, c := range s.Contributions {
		out = append(out, c.Component+"_ratio", c.Ratio)
	}
	return out
}
