package scoring

import "fmt"

// Invariants reported by InvalidBatchError.Invariant.
const (
	InvariantEmpty         = "non_empty"
	InvariantLengthMatch   = "length_match"
	InvariantSequencesSize = "raw_sequences_size"
	InvariantTemporalSize  = "temporal_size"
	InvariantFinite        = "finite_values"
	InvariantTemporalRange = "temporal_range"
)

// InvalidBatchError reports a structural problem with a ForecastBatch.
// It is not retryable; the caller must fix the batch.
type InvalidBatchError struct {
	Invariant string // one of the Invariant* constants
	Detail    string
}

func (e *InvalidBatchError) Error() string {
	return fmt.Sprintf("scoring: invalid batch (%s): %s", e.Invariant, e.Detail)
}

// InvalidWeightsError reports a weight that cannot be used.
type InvalidWeightsError struct {
	Component string // e.g. "peak_penalty"; empty when the whole set is invalid
	Value     float64
	Reason    string
}

func (e *InvalidWeightsError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("scoring: invalid weights: %s", e.Reason)
	}
	return fmt.Sprintf("scoring: invalid weight %s=%g: %s", e.Component, e.Value, e.Reason)
}

func batchErr(invariant, format string, args ...any) error {
	return &InvalidBatchError{Invariant: invariant, Detail: fmt.Sprintf(format, args...)}
}
