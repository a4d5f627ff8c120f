package scoring

import (
	"math"
	"slices"
)

// peakEpsilon keeps the intensity denominator non-zero when the peak
// threshold equals the batch maximum.
const peakEpsilon = 1e-8

// maxPeakFactor is the penalty multiplier applied at the batch maximum.
// The multiplier grows linearly from 1 at the threshold.
const maxPeakFactor = 3.0

// Percentile returns the p-th percentile (0–100) of values using linear
// interpolation between the two closest ranks:
//
//	rank = p/100 * (n-1)
//	P    = s[floor(rank)] + (s[ceil(rank)] - s[floor(rank)]) * frac(rank)
//
// where s is values sorted ascending. p is clamped to [0, 100].
// An empty input returns 0 and a NaN p returns NaN. values is not modified.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if math.IsNaN(p) {
		return math.NaN()
	}
	s := slices.Clone(values)
	slices.Sort(s)

	p = math.Max(0, math.Min(100, p))
	rank := p / 100 * float64(len(s)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return s[lo]
	}
	return s[lo] + (s[hi]-s[lo])*(rank-float64(lo))
}

// PeakPenalty returns the peak-weighted squared error over samples whose
// truth value is strictly above the given percentile of truth.
//
// Each peak sample's squared error is multiplied by 1 + 2*intensity, where
// intensity = (truth - threshold) / (max(truth) - threshold + ε) lies in
// [0, 1]. A batch with no sample above the threshold (for example, all truth
// values equal) scores 0. Only the first min(len(truth), len(pred)) pairs are
// scored.
func PeakPenalty(truth, pred []float64, percentile float64) (float64, PeakDetail) {
	truth, pred = paired(truth, pred)
	if len(truth) == 0 {
		return 0, PeakDetail{}
	}

	threshold := Percentile(truth, percentile)
	maxTruth := slices.Max(truth)
	detail := PeakDetail{Threshold: threshold, Max: maxTruth}

	span := maxTruth - threshold + peakEpsilon
	var sum float64
	for i, t := range truth {
		if t <= threshold {
			continue
		}
		intensity := (t - threshold) / span
		factor := 1 + (maxPeakFactor-1)*intensity
		d := t - pred[i]
		sum += factor * d * d
		detail.Count++
	}

	if detail.Count == 0 {
		return 0, detail
	}
	return sum / float64(detail.Count), detail
}
