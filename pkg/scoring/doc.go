// Package scoring evaluates a batch of numeric forecasts against ground truth
// and returns both a single scalar score and a per-component breakdown.
//
// Five independent sub-metrics are combined by a weighted sum:
//
//	total = w.BaseError           * mean((truth - pred)^2)
//	      + w.PeakPenalty         * peak-weighted squared error above the P80 of truth
//	      + w.TrendConsistency    * trendMSE + 0.5 * directionMismatchRate
//	      + w.CyclicalConsistency * mean(|pred - truth * hourFactor|)
//	      + w.Stability           * 0.1 * var(pred) + 0.5 * jumpRate
//
// Each sub-metric is also exported as a pure function (BaseError, PeakPenalty,
// TrendConsistency, CyclicalConsistency, Stability) so callers can diagnose a
// single dimension without building a full batch.
//
// Evaluate never mutates its inputs and keeps no state between calls; an
// Engine only carries immutable options and is safe for concurrent use.
//
// Structural problems (empty batch, length mismatch, mis-sized optional
// arrays) fail fast with *InvalidBatchError before any metric is computed.
// Negative weights fail with *InvalidWeightsError. Weights that do not sum to
// 1.0 are normalised and reported through ScoreBreakdown.WeightsNormalized.
//
// Percentiles use linear interpolation between closest ranks
// (rank = p/100 * (n-1)), the same rule numpy applies by default.
package scoring
