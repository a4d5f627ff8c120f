package scoring

// BaseError returns the mean squared error between truth and pred. Only the
// first min(len(truth), len(pred)) pairs are scored.
func BaseError(truth, pred []float64) float64 {
	truth, pred = paired(truth, pred)
	if len(truth) == 0 {
		return 0
	}
	var sum float64
	for i := range truth {
		d := truth[i] - pred[i]
		sum += d * d
	}
	return sum / float64(len(truth))
}

// paired truncates truth and pred to their common length.
func paired(truth, pred []float64) ([]float64, []float64) {
	n := min(len(truth), len(pred))
	return truth[:n], pred[:n]
}

func mean(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// variance returns the population variance of v (len(v) > 0).
func variance(v []float64) float64 {
	m := mean(v)
	var sum float64
	for _, x := range v {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(v))
}
