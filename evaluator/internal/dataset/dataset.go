package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"

	"github.com/gridcast/gridcast/pkg/scoring"
)

// baselineWindow is the number of trailing history points averaged by the
// baseline forecaster.
const baselineWindow = 6

// Calendar scale factors used by the upstream normaliser.
const (
	hourScale = 23
	dayScale  = 6
)

// Options selects which optional batch arrays Load attaches.
type Options struct {
	History  bool // attach each record's input sequence as RawSequences
	Temporal bool // attach the target's calendar metadata as Temporal
}

// Dataset is a loaded batch plus bookkeeping about how it was built.
type Dataset struct {
	Batch scoring.ForecastBatch

	// Baseline counts records that carried no prediction and were filled by
	// the baseline forecaster.
	Baseline int
}

// record is one ML-ready sequence as written by the preparation pipeline.
type record struct {
	Input      []point  `json:"sequenceEntree"`
	Target     *float64 `json:"cible"`
	Prediction *float64 `json:"prediction,omitempty"`
}

// point is one hour of the input sequence. Calendar fields are normalised:
// heure = hour/23, jourSemaine = weekday/6.
type point struct {
	Consumption float64  `json:"consommation"`
	Hour        float64  `json:"heure"`
	DayOfWeek   float64  `json:"jourSemaine"`
	Month       float64  `json:"mois"`
	Weekend     flexBool `json:"estWeekend"`
	PeakHour    flexBool `json:"estHeurePointe"`
}

// flexBool accepts true/false or the 0/1 encoding used after normalisation.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*b = true
		return nil
	case "false", "null":
		*b = false
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("expected bool or number, got %s", data)
	}
	*b = f != 0
	return nil
}

// Load reads the JSON dataset at path.
func Load(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open: %w", err)
	}
	defer f.Close()

	ds, err := Decode(f, opts)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}
	slog.Info("dataset: loaded",
		"path", path,
		"samples", ds.Batch.Len(),
		"baseline_filled", ds.Baseline,
		"history", opts.History,
		"temporal", opts.Temporal,
	)
	return ds, nil
}

// Decode parses a JSON array of records from r into a ForecastBatch.
//
// Records without a prediction get the baseline forecast (mean of the last
// six input values). The temporal context of a record is the hour following
// its last input point.
func Decode(r io.Reader, opts Options) (*Dataset, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records")
	}

	ds := &Dataset{}
	b := &ds.Batch
	b.Truth = make([]float64, 0, len(records))
	b.Prediction = make([]float64, 0, len(records))

	for i, rec := range records {
		if rec.Target == nil {
			return nil, fmt.Errorf("record %d: missing cible", i)
		}
		history := toFeaturePoints(rec.Input)

		var pred float64
		switch {
		case rec.Prediction != nil:
			pred = *rec.Prediction
		case len(history) > 0:
			pred = BaselinePrediction(history)
			ds.Baseline++
		default:
			return nil, fmt.Errorf("record %d: no prediction and no input sequence", i)
		}

		b.Truth = append(b.Truth, *rec.Target)
		b.Prediction = append(b.Prediction, pred)
		if opts.History {
			b.RawSequences = append(b.RawSequences, history)
		}
		if opts.Temporal {
			if len(history) == 0 {
				return nil, fmt.Errorf("record %d: temporal context needs an input sequence", i)
			}
			b.Temporal = append(b.Temporal, targetContext(history))
		}
	}
	return ds, nil
}

// BaselinePrediction forecasts the next value as the mean of the last six
// history values (fewer when the history is shorter). Returns 0 for an
// empty history.
func BaselinePrediction(history []scoring.FeaturePoint) float64 {
	if len(history) == 0 {
		return 0
	}
	start := max(0, len(history)-baselineWindow)
	var sum float64
	for _, p := range history[start:] {
		sum += p.Value
	}
	return sum / float64(len(history)-start)
}

func toFeaturePoints(in []point) []scoring.FeaturePoint {
	out := make([]scoring.FeaturePoint, len(in))
	for i, p := range in {
		out[i] = scoring.FeaturePoint{
			Value:      p.Consumption,
			Hour:       denormalize(p.Hour, hourScale),
			DayOfWeek:  denormalize(p.DayOfWeek, dayScale),
			IsWeekend:  bool(p.Weekend),
			IsPeakHour: bool(p.PeakHour),
		}
	}
	return out
}

// targetContext derives the calendar position one hour after the last
// history point.
func targetContext(history []scoring.FeaturePoint) scoring.TemporalContext {
	last := history[len(history)-1]
	hour := (last.Hour + 1) % 24
	day := last.DayOfWeek
	if hour == 0 {
		day = (day + 1) % 7
	}
	return scoring.TemporalContext{
		HourOfDay:        hour,
		DayOfWeek:        day,
		IsWeekend:        day == 0 || day == 6,
		IsPeakHour:       hour >= 18 && hour <= 21,
		SequencePosition: len(history),
	}
}

// denormalize maps a [0,1] value back to an integer in [0, scale].
func denormalize(v float64, scale int) int {
	n := int(math.Round(v * float64(scale)))
	return min(max(n, 0), scale)
}
