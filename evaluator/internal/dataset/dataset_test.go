package dataset

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gridcast/gridcast/pkg/scoring"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// fixture holds two records: the first ends at 17:00 on a Friday and has a
// model prediction, the second ends at 23:00 on a Saturday and has none.
const fixture = `[
  {
    "sequenceEntree": [
      {"consommation": 0.40, "heure": 0.6956521739, "jourSemaine": 0.8333333333, "mois": 0.5, "estWeekend": 0, "estHeurePointe": 0},
      {"consommation": 0.50, "heure": 0.7391304348, "jourSemaine": 0.8333333333, "mois": 0.5, "estWeekend": 0, "estHeurePointe": 0}
    ],
    "cible": 0.62,
    "prediction": 0.58
  },
  {
    "sequenceEntree": [
      {"consommation": 0.10, "heure": 0.9565217391, "jourSemaine": 1, "mois": 0.5, "estWeekend": true, "estHeurePointe": false},
      {"consommation": 0.20, "heure": 1, "jourSemaine": 1, "mois": 0.5, "estWeekend": 1, "estHeurePointe": 0}
    ],
    "cible": 0.12
  }
]`

func TestDecode_Full(t *testing.T) {
	ds, err := Decode(strings.NewReader(fixture), Options{History: true, Temporal: true})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	b := ds.Batch

	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
	if b.Truth[0] != 0.62 || b.Truth[1] != 0.12 {
		t.Errorf("Truth = %v", b.Truth)
	}
	if b.Prediction[0] != 0.58 {
		t.Errorf("Prediction[0] = %v, want 0.58", b.Prediction[0])
	}
	// No prediction, so the mean of the two history values.
	if !almostEqual(b.Prediction[1], 0.15, 1e-12) {
		t.Errorf("Prediction[1] = %v, want baseline 0.15", b.Prediction[1])
	}
	if ds.Baseline != 1 {
		t.Errorf("Baseline = %d, want 1", ds.Baseline)
	}

	if len(b.RawSequences) != 2 || len(b.RawSequences[0]) != 2 {
		t.Fatalf("RawSequences shape = %v", b.RawSequences)
	}
	if p := b.RawSequences[0][1]; p.Value != 0.5 || p.Hour != 17 || p.DayOfWeek != 5 {
		t.Errorf("RawSequences[0][1] = %+v, want {Value:0.5 Hour:17 DayOfWeek:5}", p)
	}
	if !b.RawSequences[1][0].IsWeekend {
		t.Error("RawSequences[1][0].IsWeekend = false, want true")
	}

	want := []scoring.TemporalContext{
		{HourOfDay: 18, DayOfWeek: 5, IsWeekend: false, IsPeakHour: true, SequencePosition: 2},
		// 23:00 Saturday + 1h rolls over to 00:00 Sunday
		{HourOfDay: 0, DayOfWeek: 0, IsWeekend: true, IsPeakHour: false, SequencePosition: 2},
	}
	for i, w := range want {
		if b.Temporal[i] != w {
			t.Errorf("Temporal[%d] = %+v, want %+v", i, b.Temporal[i], w)
		}
	}
}

func TestDecode_OptionalArraysOmitted(t *testing.T) {
	ds, err := Decode(strings.NewReader(fixture), Options{})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if ds.Batch.RawSequences != nil {
		t.Errorf("RawSequences = %v, want nil", ds.Batch.RawSequences)
	}
	if ds.Batch.Temporal != nil {
		t.Errorf("Temporal = %v, want nil", ds.Batch.Temporal)
	}
}

func TestDecode_ScoresCleanly(t *testing.T) {
	ds, err := Decode(strings.NewReader(fixture), Options{History: true, Temporal: true})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	out, err := scoring.Evaluate(ds.Batch, scoring.DefaultWeights())
	if err != nil {
		t.Fatalf("Evaluate() on decoded batch error = %v", err)
	}
	if out.Details.Trend.Mode != scoring.TrendModePerSample {
		t.Errorf("trend mode = %q, want per-sample with history attached", out.Details.Trend.Mode)
	}
	if out.Details.Cyclical.Degraded {
		t.Error("cyclical metric degraded despite temporal metadata")
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		json string
		opts Options
	}{
		{"not json", `{{`, Options{}},
		{"empty array", `[]`, Options{}},
		{"missing target", `[{"sequenceEntree": [{"consommation": 0.1}], "prediction": 0.1}]`, Options{}},
		{"no prediction, no input", `[{"sequenceEntree": [], "cible": 0.3}]`, Options{}},
		{"temporal without input", `[{"sequenceEntree": [], "cible": 0.3, "prediction": 0.2}]`, Options{Temporal: true}},
		{"bad bool", `[{"sequenceEntree": [{"consommation": 0.1, "estWeekend": "yes"}], "cible": 0.3}]`, Options{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tc.json), tc.opts); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset_test.json")
	if err := os.WriteFile(path, []byte(fixture), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	ds, err := Load(path, Options{Temporal: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Batch.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ds.Batch.Len())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json"), Options{}); err == nil {
		t.Error("Load(missing) error = nil, want error")
	}
}

func TestBaselinePrediction(t *testing.T) {
	pts := func(vs ...float64) []scoring.FeaturePoint {
		out := make([]scoring.FeaturePoint, len(vs))
		for i, v := range vs {
			out[i] = scoring.FeaturePoint{Value: v}
		}
		return out
	}
	tests := []struct {
		name    string
		history []scoring.FeaturePoint
		want    float64
	}{
		{"empty", nil, 0},
		{"shorter than window", pts(0.2, 0.4), 0.3},
		// only the last six count: (0.3+0.3+0.3+0.3+0.3+0.3)/6
		{"longer than window", pts(9, 9, 0.3, 0.3, 0.3, 0.3, 0.3, 0.3), 0.3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := BaselinePrediction(tc.history); !almostEqual(got, tc.want, 1e-12) {
				t.Errorf("BaselinePrediction() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDenormalize(t *testing.T) {
	tests := []struct {
		v     float64
		scale int
		want  int
	}{
		{0, 23, 0}, {1, 23, 23}, {0.7391304348, 23, 17}, {0.5, 6, 3}, {1.2, 6, 6}, {-0.1, 6, 0},
	}
	for _, tc := range tests {
		if got := denormalize(tc.v, tc.scale); got != tc.want {
			t.Errorf("denormalize(%v, %d) = %d, want %d", tc.v, tc.scale, got, tc.want)
		}
	}
}
