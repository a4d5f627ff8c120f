package alerts

import (
	"testing"
	"time"

	"github.com/gridcast/gridcast/evaluator/internal/config"
	"github.com/gridcast/gridcast/pkg/scoring"
)

func breakdown() *scoring.ScoreBreakdown {
	return &scoring.ScoreBreakdown{
		BaseError:           0.01,
		PeakPenalty:         0.08,
		TrendConsistency:    0.02,
		CyclicalConsistency: 0.03,
		Stability:           0.004,
		Total:               0.03,
		Details: scoring.Details{
			Peak:      scoring.PeakDetail{Count: 4},
			Trend:     scoring.TrendDetail{DirectionMismatchRate: 0.6},
			Stability: scoring.StabilityDetail{JumpPenalty: 0.05},
		},
	}
}

// --- condition ---

func TestEvalCondition(t *testing.T) {
	b := breakdown()
	tests := []struct {
		cond      string
		wantFire  bool
		wantValue float64
	}{
		{"total > 0.02", true, 0.03},
		{"total > 0.05", false, 0.03},
		{"base_error >= 0.01", true, 0.01},
		{"peak_penalty > 0.05", true, 0.08},
		{"trend_consistency < 0.01", false, 0.02},
		{"cyclical_consistency <= 0.03", true, 0.03},
		{"stability < 0.01", true, 0.004},
		{"direction_mismatch_rate > 0.5", true, 0.6},
		{"jump_penalty == 0.05", true, 0.05},
		{"peak_samples == 0", false, 4},
		// unparsable expressions never fire
		{"total >", false, 0},
		{"unknown_field > 1", false, 0},
		{"total ~ 1", false, 0},
		{"total > abc", false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.cond, func(t *testing.T) {
			fires, v := evalCondition(tc.cond, b)
			if fires != tc.wantFire {
				t.Errorf("fires = %v, want %v", fires, tc.wantFire)
			}
			if v != tc.wantValue {
				t.Errorf("value = %v, want %v", v, tc.wantValue)
			}
		})
	}
}

func TestCompareFloat(t *testing.T) {
	tests := []struct {
		v, threshold float64
		op           string
		want         bool
	}{
		{2, 1, ">", true}, {1, 1, ">", false},
		{1, 1, ">=", true}, {0, 1, "<", true},
		{1, 1, "<=", true}, {1, 1, "==", true},
		{1, 1, "!=", false},
	}
	for _, tc := range tests {
		if got := compareFloat(tc.v, tc.op, tc.threshold); got != tc.want {
			t.Errorf("compareFloat(%v %s %v) = %v, want %v", tc.v, tc.op, tc.threshold, got, tc.want)
		}
	}
}

func TestCheckRules(t *testing.T) {
	ok := []config.AlertRule{{Name: "a", Condition: "total > 0.1"}}
	if err := CheckRules(ok); err != nil {
		t.Errorf("CheckRules(valid) error = %v", err)
	}
	bad := []config.AlertRule{{Name: "a", Condition: "total > 0.1"}, {Name: "b", Condition: "mape > 3"}}
	if err := CheckRules(bad); err == nil {
		t.Error("CheckRules(unknown field) error = nil, want error")
	}
}

// --- engine ---

func TestEngine_FireOnceThenResolve(t *testing.T) {
	e := New([]config.AlertRule{{Name: "peaks", Condition: "peak_penalty > 0.05", Severity: "critical"}})
	now := time.Unix(1_700_000_000, 0)

	got := e.Evaluate("test", breakdown(), now)
	if len(got) != 1 {
		t.Fatalf("first Evaluate: %d alerts, want 1", len(got))
	}
	if got[0].State != StateFiring || got[0].Severity != "critical" || got[0].Value != 0.08 {
		t.Errorf("alert = %+v", got[0])
	}
	if len(e.Active()) != 1 {
		t.Errorf("Active() = %d, want 1", len(e.Active()))
	}

	// Still firing: no new transition.
	if got := e.Evaluate("test", breakdown(), now.Add(time.Minute)); len(got) != 0 {
		t.Errorf("repeat Evaluate: %d alerts, want 0", len(got))
	}

	calm := breakdown()
	calm.PeakPenalty = 0.01
	got = e.Evaluate("test", calm, now.Add(2*time.Minute))
	if len(got) != 1 || got[0].State != StateResolved {
		t.Fatalf("resolve Evaluate = %+v, want one resolved alert", got)
	}
	if got[0].ResolvedAt == nil || !got[0].ResolvedAt.Equal(now.Add(2*time.Minute)) {
		t.Errorf("ResolvedAt = %v", got[0].ResolvedAt)
	}
	if len(e.Active()) != 0 {
		t.Errorf("Active() after resolve = %d, want 0", len(e.Active()))
	}
	if len(e.History()) != 1 {
		t.Errorf("History() = %d, want 1", len(e.History()))
	}
}

func TestEngine_DefaultSeverityAndLabels(t *testing.T) {
	e := New([]config.AlertRule{{Name: "total", Condition: "total > 0.02"}})
	now := time.Now()

	a := e.Evaluate("run-a", breakdown(), now)
	b := e.Evaluate("run-b", breakdown(), now)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("alerts per label = %d/%d, want 1/1", len(a), len(b))
	}
	if a[0].Severity != "warning" {
		t.Errorf("severity = %q, want warning", a[0].Severity)
	}
	active := e.Active()
	if len(active) != 2 || active[0].Label != "run-a" || active[1].Label != "run-b" {
		t.Errorf("Active() = %+v", active)
	}
}

func TestEngine_SetRulesResolvesRemoved(t *testing.T) {
	e := New([]config.AlertRule{{Name: "total", Condition: "total > 0.02"}})
	now := time.Now()
	e.Evaluate("x", breakdown(), now)

	e.SetRules(nil)
	got := e.Evaluate("x", breakdown(), now)
	if len(got) != 1 || got[0].State != StateResolved {
		t.Fatalf("Evaluate after SetRules(nil) = %+v, want one resolved", got)
	}
}

func TestEngine_NoRules(t *testing.T) {
	e := New(nil)
	if got := e.Evaluate("x", breakdown(), time.Now()); len(got) != 0 {
		t.Errorf("Evaluate with no rules = %+v, want none", got)
	}
}

func TestEngine_ReturnsCopies(t *testing.T) {
	e := New([]config.AlertRule{{Name: "total", Condition: "total > 0.02"}})
	got := e.Evaluate("x", breakdown(), time.Now())
	got[0].State = "tampered"
	if e.Active()[0].State != StateFiring {
		t.Error("mutating a returned alert changed engine state")
	}
}
