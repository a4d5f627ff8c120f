package scoring

import (
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"
)

// weightTolerance is how far the weight sum may drift from 1.0 before the
// weights are normalised.
const weightTolerance = 1e-6

// DefaultParallelThreshold is the batch size from which the five sub-metrics
// are computed concurrently.
const DefaultParallelThreshold = 4096

// Options configures an Engine. The zero value is valid and selects the
// default thresholds.
type Options struct {
	// Thresholds overrides the peak percentile and jump threshold.
	// Zero fields take their defaults.
	Thresholds Thresholds

	// ParallelThreshold is the minimum batch size for concurrent sub-metric
	// evaluation. 0 selects DefaultParallelThreshold; a negative value
	// disables concurrency.
	ParallelThreshold int

	// Logger receives weight-normalisation warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// Engine evaluates forecast batches. It holds only immutable options, so a
// single Engine may be shared by any number of goroutines.
//
// The zero Engine is usable and behaves like the package-level Evaluate.
type Engine struct {
	thresholds        Thresholds
	parallelThreshold int
	log               *slog.Logger
}

// NewEngine validates opts and returns a ready-to-use Engine.
func NewEngine(opts Options) (*Engine, error) {
	th := opts.Thresholds.WithDefaults()
	if err := th.Validate(); err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}

	pt := opts.ParallelThreshold
	if pt == 0 {
		pt = DefaultParallelThreshold
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Engine{thresholds: th, parallelThreshold: pt, log: log}, nil
}

// Thresholds returns the thresholds the engine applies.
func (e *Engine) Thresholds() Thresholds { return e.thresholds.WithDefaults() }

func (e *Engine) parallelism() int {
	if e.parallelThreshold == 0 {
		return DefaultParallelThreshold
	}
	return e.parallelThreshold
}

var defaultEngine = &Engine{
	thresholds:        DefaultThresholds(),
	parallelThreshold: DefaultParallelThreshold,
}

// Evaluate scores batch with the default thresholds. See Engine.Evaluate.
func Evaluate(batch ForecastBatch, weights LossWeights) (*ScoreBreakdown, error) {
	return defaultEngine.Evaluate(batch, weights)
}

// Evaluate validates weights and batch, computes the five sub-metrics and
// returns their weighted sum.
//
// Validation happens before any metric is computed: a structural problem
// returns *InvalidBatchError, an unusable weight *InvalidWeightsError, and no
// partial result. Numeric degeneracies (N < 2, all-equal truth) are not
// errors; each metric falls back to its documented value.
//
// Evaluate is deterministic and does not modify batch.
func (e *Engine) Evaluate(batch ForecastBatch, weights LossWeights) (*ScoreBreakdown, error) {
	applied, deviation, err := normalizeWeights(weights)
	if err != nil {
		return nil, err
	}
	if err := validateBatch(batch); err != nil {
		return nil, err
	}

	out := &ScoreBreakdown{
		AppliedWeights:     applied,
		WeightSumDeviation: deviation,
		WeightsNormalized:  math.Abs(deviation) > weightTolerance,
	}
	if out.WeightsNormalized {
		e.logger().Warn("scoring: weights do not sum to 1, normalising",
			"sum", weights.Sum(), "deviation", deviation)
	}

	th := e.Thresholds()
	truth, pred := batch.Truth, batch.Prediction
	metrics := []func(){
		func() { out.BaseError = BaseError(truth, pred) },
		func() {
			out.PeakPenalty, out.Details.Peak = PeakPenalty(truth, pred, th.PeakPercentile)
		},
		func() {
			out.TrendConsistency, out.Details.Trend = TrendConsistency(truth, pred, batch.RawSequences)
		},
		func() {
			out.CyclicalConsistency, out.Details.Cyclical = CyclicalConsistency(truth, pred, batch.Temporal)
		},
		func() { out.Stability, out.Details.Stability = Stability(pred, th.JumpThreshold) },
	}

	// Each closure writes disjoint fields of out, so they need no locking.
	if pt := e.parallelism(); pt > 0 && batch.Len() >= pt {
		var g errgroup.Group
		for _, m := range metrics {
			g.Go(func() error { return runMetric(m) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, m := range metrics {
			if err := runMetric(m); err != nil {
				return nil, err
			}
		}
	}

	out.Total = applied.BaseError*out.BaseError +
		applied.PeakPenalty*out.PeakPenalty +
		applied.TrendConsistency*out.TrendConsistency +
		applied.CyclicalConsistency*out.CyclicalConsistency +
		applied.Stability*out.Stability

	return out, nil
}

// runMetric calls m and returns a panic raised by it as an error.
func runMetric(m func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scoring: metric panicked: %v", r)
		}
	}()
	m()
	return nil
}

func (e *Engine) logger() *slog.Logger {
	if e.log == nil {
		return slog.Default()
	}
	return e.log
}

// normalizeWeights rejects negative or non-finite weights and divides the
// rest by their sum when it is not 1.0 within tolerance. It returns the
// weights to apply and the original sum minus 1.
func normalizeWeights(w LossWeights) (LossWeights, float64, error) {
	named := []struct {
		name string
		v    float64
	}{
		{"base_error", w.BaseError},
		{"peak_penalty", w.PeakPenalty},
		{"trend_consistency", w.TrendConsistency},
		{"cyclical_consistency", w.CyclicalConsistency},
		{"stability", w.Stability},
	}
	for _, c := range named {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return LossWeights{}, 0, &InvalidWeightsError{Component: c.name, Value: c.v, Reason: "must be finite"}
		}
		if c.v < 0 {
			return LossWeights{}, 0, &InvalidWeightsError{Component: c.name, Value: c.v, Reason: "must not be negative"}
		}
	}

	sum := w.Sum()
	if sum == 0 {
		return LossWeights{}, 0, &InvalidWeightsError{Reason: "all weights are zero"}
	}

	deviation := sum - 1
	if math.Abs(deviation) <= weightTolerance {
		return w, deviation, nil
	}
	return LossWeights{
		BaseError:           w.BaseError / sum,
		PeakPenalty:         w.PeakPenalty / sum,
		TrendConsistency:    w.TrendConsistency / sum,
		CyclicalConsistency: w.CyclicalConsistency / sum,
		Stability:           w.Stability / sum,
	}, deviation, nil
}

// validateBatch checks every structural invariant of b.
func validateBatch(b ForecastBatch) error {
	n := len(b.Truth)
	if n == 0 {
		return batchErr(InvariantEmpty, "truth is empty")
	}
	if len(b.Prediction) != n {
		return batchErr(InvariantLengthMatch, "len(truth)=%d, len(prediction)=%d", n, len(b.Prediction))
	}
	if b.RawSequences != nil && len(b.RawSequences) != n {
		return batchErr(InvariantSequencesSize, "len(raw_sequences)=%d, want %d", len(b.RawSequences), n)
	}
	if b.Temporal != nil && len(b.Temporal) != n {
		return batchErr(InvariantTemporalSize, "len(temporal)=%d, want %d", len(b.Temporal), n)
	}

	for i := 0; i < n; i++ {
		if !finite(b.Truth[i]) {
			return batchErr(InvariantFinite, "truth[%d]=%g", i, b.Truth[i])
		}
		if !finite(b.Prediction[i]) {
			return batchErr(InvariantFinite, "prediction[%d]=%g", i, b.Prediction[i])
		}
	}
	for i, seq := range b.RawSequences {
		for j, p := range seq {
			if !finite(p.Value) {
				return batchErr(InvariantFinite, "raw_sequences[%d][%d]=%g", i, j, p.Value)
			}
		}
	}
	for i, tc := range b.Temporal {
		if tc.HourOfDay < 0 || tc.HourOfDay > 23 {
			return batchErr(InvariantTemporalRange, "temporal[%d].hour_of_day=%d", i, tc.HourOfDay)
		}
		if tc.DayOfWeek < 0 || tc.DayOfWeek > 6 {
			return batchErr(InvariantTemporalRange, "temporal[%d].day_of_week=%d", i, tc.DayOfWeek)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
