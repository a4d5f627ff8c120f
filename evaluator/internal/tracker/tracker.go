package tracker

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/gridcast/gridcast/pkg/scoring"
)

// window is the number of recent totals kept per label.
const window = 20

// Result summarises one recorded evaluation against the label's history.
type Result struct {
	Label     string
	Timestamp time.Time
	Total     float64

	// Best is the lowest total recorded for the label, this one included.
	Best float64

	// Improved is true when Total is strictly lower than the previous best.
	// The first record of a label always improves.
	Improved bool

	// Delta is Total minus the previous total; 0 on the first record.
	Delta float64

	// RollingMean is the mean total over the last window records.
	RollingMean float64

	// Runs counts every record for the label, not only those in the window.
	Runs int
}

// Tracker maintains per-label score history.
//
// All exported methods are safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	states map[string]*labelState
}

// labelState holds the rolling history of one label.
type labelState struct {
	totals  []float64 // newest last, at most window entries
	best    float64   // +Inf until the first finite total
	bestAt  time.Time
	bestRun scoring.ScoreBreakdown
	runs    int
}

// New returns a ready-to-use Tracker.
func New() *Tracker {
	return &Tracker{states: make(map[string]*labelState)}
}

// Record adds b to the history of label.
//
// now is passed explicitly so callers (and tests) control the clock.
// A non-finite total is counted as a run but never becomes the best.
func (t *Tracker) Record(label string, b *scoring.ScoreBreakdown, now time.Time) Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := t.stateFor(label)
	out := Result{Label: label, Timestamp: now, Total: b.Total}

	if n := len(st.totals); n > 0 {
		out.Delta = b.Total - st.totals[n-1]
	}

	finite := !math.IsNaN(b.Total) && !math.IsInf(b.Total, 0)
	if finite && b.Total < st.best {
		out.Improved = true
		st.best = b.Total
		st.bestAt = now
		st.bestRun = *b
	}

	st.push(b.Total)
	st.runs++

	out.Best = st.best
	out.RollingMean = st.mean()
	out.Runs = st.runs

	if out.Improved {
		slog.Debug("tracker: new best", "label", label, "total", b.Total, "runs", st.runs)
	}
	return out
}

// Best returns the best breakdown recorded for label and when it was
// recorded. ok is false when the label has no finite record.
func (t *Tracker) Best(label string) (b scoring.ScoreBreakdown, at time.Time, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, found := t.states[label]
	if !found || math.IsInf(st.best, 1) {
		return scoring.ScoreBreakdown{}, time.Time{}, false
	}
	return st.bestRun, st.bestAt, true
}

// Labels returns every label with at least one record, sorted.
func (t *Tracker) Labels() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, 0, len(t.states))
	for l := range t.states {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func (t *Tracker) stateFor(label string) *labelState {
	if st, ok := t.states[label]; ok {
		return st
	}
	st := &labelState{best: math.Inf(1)}
	t.states[label] = st
	return st
}

func (st *labelState) push(total float64) {
	if len(st.totals) >= window {
		st.totals = st.totals[1:]
	}
	st.totals = append(st.totals, total)
}

// mean averages the finite totals in the window; 0 if there are none.
func (st *labelState) mean() float64 {
	var sum float64
	var n int
	for _, v := range st.totals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
