package alerts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gridcast/gridcast/pkg/scoring"
)

// fields maps condition field names to breakdown accessors.
var fields = map[string]func(*scoring.ScoreBreakdown) float64{
	"total":                   func(b *scoring.ScoreBreakdown) float64 { return b.Total },
	"base_error":              func(b *scoring.ScoreBreakdown) float64 { return b.BaseError },
	"peak_penalty":            func(b *scoring.ScoreBreakdown) float64 { return b.PeakPenalty },
	"trend_consistency":       func(b *scoring.ScoreBreakdown) float64 { return b.TrendConsistency },
	"cyclical_consistency":    func(b *scoring.ScoreBreakdown) float64 { return b.CyclicalConsistency },
	"stability":               func(b *scoring.ScoreBreakdown) float64 { return b.Stability },
	"direction_mismatch_rate": func(b *scoring.ScoreBreakdown) float64 { return b.Details.Trend.DirectionMismatchRate },
	"jump_penalty":            func(b *scoring.ScoreBreakdown) float64 { return b.Details.Stability.JumpPenalty },
	"peak_samples":            func(b *scoring.ScoreBreakdown) float64 { return float64(b.Details.Peak.Count) },
}

// condition is a parsed "field op value" expression.
type condition struct {
	field     string
	op        string
	threshold float64
}

// parseCondition parses expressions like:
//
//	total > 0.05
//	peak_penalty >= 0.1
//	direction_mismatch_rate > 0.5
//	stability <= 0.01
//	peak_samples == 0
func parseCondition(cond string) (condition, error) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return condition{}, fmt.Errorf("want \"field op value\", got %q", cond)
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	if _, ok := fields[field]; !ok {
		return condition{}, fmt.Errorf("unknown field %q", field)
	}
	switch op {
	case ">", ">=", "<", "<=", "==":
	default:
		return condition{}, fmt.Errorf("unknown operator %q", op)
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return condition{}, fmt.Errorf("threshold %q: %w", rhs, err)
	}
	return condition{field: field, op: op, threshold: threshold}, nil
}

// evalCondition evaluates a rule condition string against a breakdown.
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed.
func evalCondition(cond string, b *scoring.ScoreBreakdown) (bool, float64) {
	c, err := parseCondition(cond)
	if err != nil {
		return false, 0
	}
	v := fields[c.field](b)
	return compareFloat(v, c.op, c.threshold), v
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
