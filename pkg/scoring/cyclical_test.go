package scoring

import "testing"

func TestHourFactor(t *testing.T) {
	want := map[int]float64{
		0: 0.7, 1: 0.7, 2: 0.7, 3: 0.7, 4: 0.7, 5: 0.7,
		6: 1.0, 7: 1.3, 8: 1.3, 9: 1.0, 12: 1.0, 17: 1.0,
		18: 1.3, 19: 1.3, 20: 1.3, 21: 1.0, 22: 0.7, 23: 0.7,
	}
	for hour, f := range want {
		if got := HourFactor(hour); got != f {
			t.Errorf("HourFactor(%d) = %v, want %v", hour, got, f)
		}
	}
}

func TestCyclicalConsistency_DegradedWithoutTemporal(t *testing.T) {
	got, detail := CyclicalConsistency([]float64{0.2, 0.8}, []float64{0.5, 0.6}, nil)
	// MAE = (0.3 + 0.2) / 2
	if !almostEqual(got, 0.25, 1e-12) {
		t.Errorf("CyclicalConsistency = %v, want 0.25", got)
	}
	if !detail.Degraded {
		t.Error("Degraded = false, want true without temporal metadata")
	}
}

func TestCyclicalConsistency_WithTemporal(t *testing.T) {
	truth := []float64{1, 1, 1}
	temporal := []TemporalContext{{HourOfDay: 8}, {HourOfDay: 3}, {HourOfDay: 12}}

	tests := []struct {
		name string
		pred []float64
		want float64
	}{
		{"follows the daily shape", []float64{1.3, 0.7, 1.0}, 0},
		{"flat prediction", []float64{1, 1, 1}, 0.2}, // (0.3 + 0.3 + 0) / 3
		{"inverted shape", []float64{0.7, 1.3, 1.0}, 0.4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, detail := CyclicalConsistency(truth, tc.pred, temporal)
			if !almostEqual(got, tc.want, 1e-12) {
				t.Errorf("CyclicalConsistency = %v, want %v", got, tc.want)
			}
			if detail.Degraded {
				t.Error("Degraded = true, want false with temporal metadata")
			}
		})
	}
}
