package scoring

// directionPenaltyWeight scales the direction-mismatch rate added to the
// trend MSE.
const directionPenaltyWeight = 0.5

// TrendConsistency penalises forecasts that get the direction of change
// wrong, not only its size. The result is trendMSE + 0.5*mismatchRate.
//
// When history holds at least one point for every sample, each pair compares
// the change from that sample's last observed value to its truth and to its
// prediction. Otherwise the pairs are the first differences of truth and
// prediction across the batch.
//
// A zero change is its own direction: a flat truth step against any non-zero
// predicted step is a mismatch. Fewer than two samples score 0. Only the
// first min(len(truth), len(pred)) pairs are scored.
func TrendConsistency(truth, pred []float64, history [][]FeaturePoint) (float64, TrendDetail) {
	truth, pred = paired(truth, pred)
	n := len(truth)
	if n < 2 {
		return 0, TrendDetail{Mode: TrendModeNone}
	}

	var trueDiffs, predDiffs []float64
	mode := TrendModeBatch
	if hasFullHistory(history, n) {
		mode = TrendModePerSample
		trueDiffs = make([]float64, n)
		predDiffs = make([]float64, n)
		for i := range truth {
			last := history[i][len(history[i])-1].Value
			trueDiffs[i] = truth[i] - last
			predDiffs[i] = pred[i] - last
		}
	} else {
		trueDiffs = diff(truth)
		predDiffs = diff(pred)
	}

	var sq float64
	var mismatches int
	for i := range trueDiffs {
		d := trueDiffs[i] - predDiffs[i]
		sq += d * d
		if direction(trueDiffs[i]) != direction(predDiffs[i]) {
			mismatches++
		}
	}

	pairs := len(trueDiffs)
	detail := TrendDetail{
		Mode:                  mode,
		Pairs:                 pairs,
		MSE:                   sq / float64(pairs),
		DirectionMismatchRate: float64(mismatches) / float64(pairs),
	}
	return detail.MSE + directionPenaltyWeight*detail.DirectionMismatchRate, detail
}

// hasFullHistory reports whether history is aligned with n samples and every
// sample carries at least one point.
func hasFullHistory(history [][]FeaturePoint, n int) bool {
	if len(history) != n {
		return false
	}
	for _, h := range history {
		if len(h) == 0 {
			return false
		}
	}
	return true
}

// diff returns v[i+1] - v[i] for i in 0..len(v)-2.
func diff(v []float64) []float64 {
	if len(v) < 2 {
		return nil
	}
	out := make([]float64, len(v)-1)
	for i := range out {
		out[i] = v[i+1] - v[i]
	}
	return out
}

// direction maps a change to -1, 0 or +1.
func direction(d float64) int {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	default:
		return 0
	}
}
