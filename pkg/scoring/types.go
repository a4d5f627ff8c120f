package scoring

import (
	"fmt"
	"math"
)

// ForecastBatch is one aligned set of (truth, prediction) pairs evaluated
// together. Truth and Prediction must have the same non-zero length N.
// RawSequences and Temporal are optional; when set they must hold exactly N
// entries, index-aligned with Truth.
type ForecastBatch struct {
	// Truth holds the observed values, normally pre-normalised to [0, 1].
	Truth []float64

	// Prediction holds the forecasts for the same positions as Truth.
	Prediction []float64

	// RawSequences holds, per sample, the history that preceded the forecast
	// target, oldest first. When every sample has at least one point the
	// trend metric compares per-sample changes instead of batch diffs.
	RawSequences [][]FeaturePoint

	// Temporal holds calendar metadata for each sample's target time.
	// Without it the cyclical metric degrades to mean absolute error.
	Temporal []TemporalContext
}

// Len returns the number of samples in the batch.
func (b ForecastBatch) Len() int { return len(b.Truth) }

// FeaturePoint is one historical observation inside a sample's input sequence.
type FeaturePoint struct {
	Value      float64 // magnitude (e.g. normalised consumption)
	Hour       int     // 0–23
	DayOfWeek  int     // 0–6, 0 = Sunday
	IsWeekend  bool
	IsPeakHour bool
}

// TemporalContext describes the calendar position of a forecast target.
type TemporalContext struct {
	HourOfDay        int // 0–23
	DayOfWeek        int // 0–6, 0 = Sunday
	IsWeekend        bool
	IsPeakHour       bool
	SequencePosition int
}

// LossWeights are the non-negative weights of the five sub-metrics.
// They should sum to 1.0; Evaluate normalises them when they do not.
type LossWeights struct {
	BaseError           float64 `yaml:"base_error" json:"base_error"`
	PeakPenalty         float64 `yaml:"peak_penalty" json:"peak_penalty"`
	TrendConsistency    float64 `yaml:"trend_consistency" json:"trend_consistency"`
	CyclicalConsistency float64 `yaml:"cyclical_consistency" json:"cyclical_consistency"`
	Stability           float64 `yaml:"stability" json:"stability"`
}

// DefaultWeights returns the recommended weighting {0.35, 0.25, 0.20, 0.15, 0.05}.
func DefaultWeights() LossWeights {
	return LossWeights{
		BaseError:           0.35,
		PeakPenalty:         0.25,
		TrendConsistency:    0.20,
		CyclicalConsistency: 0.15,
		Stability:           0.05,
	}
}

// Sum returns the sum of all five weights.
func (w LossWeights) Sum() float64 {
	return w.BaseError + w.PeakPenalty + w.TrendConsistency + w.CyclicalConsistency + w.Stability
}

// Thresholds holds the scale-dependent constants of the peak and stability
// metrics. The defaults assume values normalised to [0, 1]; callers working
// on another scale must re-derive them.
type Thresholds struct {
	// PeakPercentile is the percentile of truth above which a sample counts
	// as a peak. Range (0, 100]; 0 selects DefaultPeakPercentile.
	PeakPercentile float64 `yaml:"peak_percentile" json:"peak_percentile"`

	// JumpThreshold is the absolute step between consecutive predictions
	// above which the step counts as a jump. Must be positive and finite;
	// 0 selects DefaultJumpThreshold.
	JumpThreshold float64 `yaml:"jump_threshold" json:"jump_threshold"`
}

// Default threshold values.
const (
	DefaultPeakPercentile = 80.0
	DefaultJumpThreshold  = 0.2
)

// WithDefaults returns t with every zero field replaced by its default.
func (t Thresholds) WithDefaults() Thresholds {
	if t.PeakPercentile == 0 {
		t.PeakPercentile = DefaultPeakPercentile
	}
	if t.JumpThreshold == 0 {
		t.JumpThreshold = DefaultJumpThreshold
	}
	return t
}

// Validate checks t after defaults have been applied: the percentile must be
// in (0, 100] and the jump threshold positive and finite.
func (t Thresholds) Validate() error {
	if p := t.PeakPercentile; math.IsNaN(p) || p <= 0 || p > 100 {
		return fmt.Errorf("peak percentile %g outside (0, 100]", p)
	}
	if j := t.JumpThreshold; math.IsNaN(j) || math.IsInf(j, 0) || j <= 0 {
		return fmt.Errorf("jump threshold %g must be positive and finite", j)
	}
	return nil
}

// DefaultThresholds returns {PeakPercentile: 80, JumpThreshold: 0.2}.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PeakPercentile: DefaultPeakPercentile,
		JumpThreshold:  DefaultJumpThreshold,
	}
}

// ScoreBreakdown is the result of one evaluation. It is built fresh for each
// call and owned by the caller.
type ScoreBreakdown struct {
	// The five raw (unweighted) sub-metric values. Lower is better.
	BaseError           float64
	PeakPenalty         float64
	TrendConsistency    float64
	CyclicalConsistency float64
	Stability           float64

	// Total is the weighted sum of the five values using AppliedWeights.
	Total float64

	// AppliedWeights are the weights actually used, after normalisation.
	AppliedWeights LossWeights

	// WeightsNormalized is true when the configured weights did not sum to
	// 1.0 within tolerance and were divided by their sum.
	WeightsNormalized bool

	// WeightSumDeviation is the configured weight sum minus 1.0.
	WeightSumDeviation float64

	// Details explains how each component value was reached.
	Details Details
}

// Details groups the intermediate values behind each sub-metric.
type Details struct {
	Peak      PeakDetail
	Trend     TrendDetail
	Cyclical  CyclicalDetail
	Stability StabilityDetail
}

// PeakDetail describes the peak set used by the peak-penalty metric.
type PeakDetail struct {
	Threshold float64 // percentile value of truth
	Max       float64 // max(truth)
	Count     int     // samples strictly above Threshold
}

// Trend modes reported in TrendDetail.Mode.
const (
	TrendModeNone      = "none"       // fewer than two samples
	TrendModeBatch     = "batch_diff" // first differences across the batch
	TrendModePerSample = "per_sample" // change from each sample's last history point
)

// TrendDetail describes the trend-consistency computation.
type TrendDetail struct {
	Mode                  string
	Pairs                 int
	MSE                   float64
	DirectionMismatchRate float64
}

// CyclicalDetail describes the cyclical-consistency computation.
type CyclicalDetail struct {
	// Degraded is true when no temporal metadata was supplied and the
	// metric fell back to mean absolute error.
	Degraded bool
}

// StabilityDetail splits the stability metric into its two terms.
type StabilityDetail struct {
	Variance        float64
	VariancePenalty float64
	JumpRate        float64
	JumpPenalty     float64
}
