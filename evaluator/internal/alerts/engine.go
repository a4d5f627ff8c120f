package alerts

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gridcast/gridcast/evaluator/internal/config"
	"github.com/gridcast/gridcast/pkg/scoring"
)

const (
	maxHistoryLen = 200

	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert is a single alert event produced by the rule engine.
type Alert struct {
	RuleName   string     `json:"rule_name"`
	Label      string     `json:"label"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"` // "firing" | "resolved"
}

// Engine evaluates alert rules against score breakdowns.
//
// Engine is safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	rules   []config.AlertRule
	active  map[string]*Alert // key: "ruleName:label"
	history []*Alert          // recently resolved alerts
}

// CheckRules reports the first rule whose condition cannot be parsed.
func CheckRules(rules []config.AlertRule) error {
	for _, r := range rules {
		if _, err := parseCondition(r.Condition); err != nil {
			return fmt.Errorf("alerts: rule %q: %w", r.Name, err)
		}
	}
	return nil
}

// New creates an Engine. An Engine with no rules is valid; Evaluate
// becomes a no-op.
func New(rules []config.AlertRule) *Engine {
	return &Engine{
		rules:  rules,
		active: make(map[string]*Alert),
	}
}

// SetRules replaces the rule set. Alerts of rules that no longer exist stay
// active until the next Evaluate resolves them.
func (e *Engine) SetRules(rules []config.AlertRule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = rules
}

// Evaluate tests every rule against b and returns the transitions it caused:
// newly firing alerts and newly resolved ones. A rule that keeps firing does
// not produce a second alert.
func (e *Engine) Evaluate(label string, b *scoring.ScoreBreakdown, now time.Time) []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []*Alert
	seen := make(map[string]bool, len(e.rules))

	for _, rule := range e.rules {
		key := rule.Name + ":" + label
		seen[key] = true
		fires, value := evalCondition(rule.Condition, b)

		if fires {
			if _, ok := e.active[key]; ok {
				continue
			}
			sev := rule.Severity
			if sev == "" {
				sev = "warning"
			}
			a := &Alert{
				RuleName: rule.Name,
				Label:    label,
				Severity: sev,
				Value:    value,
				Message: fmt.Sprintf("[%s] %s fired on %s: %s (value %.4g)",
					sev, rule.Name, label, rule.Condition, value),
				FiredAt: now,
				State:   StateFiring,
			}
			e.active[key] = a
			slog.Warn("alert fired",
				"rule", rule.Name,
				"label", label,
				"value", value,
				"severity", sev,
			)
			cp := *a
			out = append(out, &cp)
			continue
		}

		if a, ok := e.active[key]; ok {
			out = append(out, e.resolve(key, a, now))
		}
	}

	// Rules removed by SetRules resolve on the next evaluation of their label.
	for key, a := range e.active {
		if a.Label == label && !seen[key] {
			out = append(out, e.resolve(key, a, now))
		}
	}
	return out
}

// resolve moves a firing alert to history. Callers hold e.mu.
func (e *Engine) resolve(key string, a *Alert, now time.Time) *Alert {
	resolved := now
	a.State = StateResolved
	a.ResolvedAt = &resolved
	delete(e.active, key)

	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	slog.Info("alert resolved", "rule", a.RuleName, "label", a.Label)

	cp := *a
	return &cp
}

// Active returns copies of all currently firing alerts sorted by rule name.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*Alert, 0, len(e.active))
	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RuleName != out[j].RuleName {
			return out[i].RuleName < out[j].RuleName
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// History returns copies of resolved alerts, oldest first.
func (e *Engine) History() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*Alert, len(e.history))
	for i, a := range e.history {
		cp := *a
		out[i] = &cp
	}
	return out
}
