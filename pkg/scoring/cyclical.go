package scoring

import "math"

// Hour-of-day factors applied to truth to form the cyclically expected value.
const (
	rushHourFactor = 1.3
	offPeakFactor  = 0.7
	neutralFactor  = 1.0
)

// HourFactor returns the expected demand multiplier for an hour of day:
// 1.3 for the morning and evening rush (7, 8, 18, 19, 20), 0.7 overnight
// (22 through 5) and 1.0 otherwise.
func HourFactor(hour int) float64 {
	switch hour {
	case 7, 8, 18, 19, 20:
		return rushHourFactor
	case 22, 23, 0, 1, 2, 3, 4, 5:
		return offPeakFactor
	default:
		return neutralFactor
	}
}

// CyclicalConsistency returns mean(|pred[i] - truth[i]*HourFactor(hour[i])|).
//
// Without temporal metadata there is no hour to key on, so the metric
// degrades to the plain mean absolute error and reports Degraded. Only the
// first min(len(truth), len(pred)) pairs are scored.
func CyclicalConsistency(truth, pred []float64, temporal []TemporalContext) (float64, CyclicalDetail) {
	truth, pred = paired(truth, pred)
	n := len(truth)
	if n == 0 {
		return 0, CyclicalDetail{}
	}

	if len(temporal) != n {
		var sum float64
		for i := range truth {
			sum += math.Abs(truth[i] - pred[i])
		}
		return sum / float64(n), CyclicalDetail{Degraded: true}
	}

	var sum float64
	for i := range truth {
		expected := truth[i] * HourFactor(temporal[i].HourOfDay)
		sum += math.Abs(pred[i] - expected)
	}
	return sum / float64(n), CyclicalDetail{}
}
