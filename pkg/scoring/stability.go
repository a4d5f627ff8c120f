package scoring

import "math"

const (
	varianceWeight = 0.1
	jumpWeight     = 0.5
)

// Stability penalises volatile prediction sequences:
//
//	0.1 * var(pred) + 0.5 * (share of consecutive steps with |Δ| > jumpThreshold)
//
// var is the population variance. With fewer than two predictions there are
// no steps, so the jump term is 0; the variance of a single value is 0 too.
func Stability(pred []float64, jumpThreshold float64) (float64, StabilityDetail) {
	var detail StabilityDetail
	if len(pred) == 0 {
		return 0, detail
	}

	detail.Variance = variance(pred)
	detail.VariancePenalty = varianceWeight * detail.Variance

	if steps := len(pred) - 1; steps > 0 {
		var jumps int
		for i := 1; i < len(pred); i++ {
			if math.Abs(pred[i]-pred[i-1]) > jumpThreshold {
				jumps++
			}
		}
		detail.JumpRate = float64(jumps) / float64(steps)
		detail.JumpPenalty = jumpWeight * detail.JumpRate
	}

	return detail.VariancePenalty + detail.JumpPenalty, detail
}
