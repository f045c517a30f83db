package models

import "time"

// MeasurementType describes which fields of a set carry meaning for an
// exercise and which aggregation formulas apply to it.
type MeasurementType string

const (
	WeightReps MeasurementType = "weight_reps"
	RepsOnly   MeasurementType = "reps_only"
	Timed      MeasurementType = "time"
)

// ParseMeasurementType maps a stored or submitted value to a MeasurementType.
// Unknown and empty values fall back to WeightReps, the catalog default.
func ParseMeasurementType(s string) MeasurementType {
	switch MeasurementType(s) {
	case RepsOnly:
		return RepsOnly
	case Timed:
		return Timed
	default:
		return WeightReps
	}
}

// Valid reports whether m is one of the known variants.
func (m MeasurementType) Valid() bool {
	switch m {
	case WeightReps, RepsOnly, Timed:
		return true
	}
	return false
}

// Unit is the display unit of the value returned by Score.
func (m MeasurementType) Unit() string {
	switch m {
	case RepsOnly:
		return "reps"
	case Timed:
		return "sec"
	default:
		return "kg"
	}
}

// SetRecord is the measurement-relevant part of a logged set.
type SetRecord struct {
	Weight    *float64 `json:"weight"`
	Reps      *int     `json:"reps"`
	Seconds   *int     `json:"seconds"`
	Completed bool     `json:"completed"`
}

// Score returns the value a set is ranked by for m, and whether the set
// qualifies at all. Incomplete sets never qualify.
//
//	weight_reps: weight, requires weight and reps
//	reps_only:   reps
//	time:        seconds
func (m MeasurementType) Score(s SetRecord) (float64, bool) {
	if !s.Completed {
		return 0, false
	}
	switch m {
	case RepsOnly:
		if s.Reps == nil {
			return 0, false
		}
		return float64(*s.Reps), true
	case Timed:
		if s.Seconds == nil {
			return 0, false
		}
		return float64(*s.Seconds), true
	default:
		if s.Weight == nil || s.Reps == nil {
			return 0, false
		}
		return *s.Weight, true
	}
}

// Volume returns weight × reps for a completed set with both fields present.
// Volume is only meaningful for weight_reps exercises but is computed from
// the fields alone, as the totals stored on a workout are.
func Volume(s SetRecord) (float64, bool) {
	if !s.Completed || s.Weight == nil || s.Reps == nil {
		return 0, false
	}
	return *s.Weight * float64(*s.Reps), true
}

// HistorySet is one completed set of a single exercise, tagged with the
// session it belongs to.
type HistorySet struct {
	WorkoutID   string    `json:"workoutId"`
	SessionDate time.Time `json:"sessionDate"`
	SetIndex    int       `json:"setIndex"`
	SetRecord
}

// Float64 and Int are helpers for building optional set fields.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
