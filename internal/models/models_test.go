package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// TestParseMeasurementType verifies known values round-trip and unknown
// values fall back to weight_reps.
func TestParseMeasurementType(t *testing.T) {
	tests := []struct {
		in   string
		want MeasurementType
	}{
		{"weight_reps", WeightReps},
		{"reps_only", RepsOnly},
		{"time", Timed},
		{"", WeightReps},
		{"distance", WeightReps},
	}
	for _, tt := range tests {
		if got := ParseMeasurementType(tt.in); got != tt.want {
			t.Errorf("ParseMeasurementType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestScore verifies each measurement type ranks sets by its own field and
// rejects incomplete or partially filled sets.
func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		mt     MeasurementType
		set    SetRecord
		want   float64
		wantOK bool
	}{
		{"weight", WeightReps, SetRecord{Weight: Float64(80), Reps: Int(5), Completed: true}, 80, true},
		{"weight without reps", WeightReps, SetRecord{Weight: Float64(80), Completed: true}, 0, false},
		{"not completed", WeightReps, SetRecord{Weight: Float64(80), Reps: Int(5)}, 0, false},
		{"reps", RepsOnly, SetRecord{Reps: Int(12), Completed: true}, 12, true},
		{"reps missing", RepsOnly, SetRecord{Weight: Float64(10), Completed: true}, 0, false},
		{"seconds", Timed, SetRecord{Seconds: Int(90), Completed: true}, 90, true},
		{"seconds missing", Timed, SetRecord{Reps: Int(3), Completed: true}, 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.mt.Score(tt.set)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("%s: Score = (%v, %v), want (%v, %v)", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func validRequest() SaveWorkoutRequest {
	return SaveWorkoutRequest{
		Name: "Push",
		Exercises: []SaveExercise{{
			ExerciseID: "4f1f0c56-8b8e-4a57-9d35-6b1c1c2d9f10",
			Order:      Int(0),
			Status:     "completed",
			Sets: []SaveSet{
				{SetIndex: Int(1), Completed: true, Weight: Float64(100), Reps: Int(5)},
				{SetIndex: Int(2), Completed: false, Weight: Float64(120), Reps: Int(3)},
			},
		}},
	}
}

// TestValidateSaveWorkout verifies that each malformed payload is rejected
// with the path of the offending field.
func TestValidateSaveWorkout(t *testing.T) {
	if err := validRequest().Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*SaveWorkoutRequest)
		field  string
	}{
		{"blank name", func(r *SaveWorkoutRequest) { r.Name = "  " }, "name"},
		{"no exercises", func(r *SaveWorkoutRequest) { r.Exercises = nil }, "exercises"},
		{"bad uuid", func(r *SaveWorkoutRequest) { r.Exercises[0].ExerciseID = "bench" }, "exercises[0].exerciseId"},
		{"missing order", func(r *SaveWorkoutRequest) { r.Exercises[0].Order = nil }, "exercises[0].order"},
		{"bad status", func(r *SaveWorkoutRequest) { r.Exercises[0].Status = "skipped" }, "exercises[0].status"},
		{"nil sets", func(r *SaveWorkoutRequest) { r.Exercises[0].Sets = nil }, "exercises[0].sets"},
		{"empty sets", func(r *SaveWorkoutRequest) { r.Exercises[0].Sets = []SaveSet{} }, "exercises[0].sets"},
		{"missing set index", func(r *SaveWorkoutRequest) { r.Exercises[0].Sets[1].SetIndex = nil }, "exercises[0].sets[1].setIndex"},
	}
	for _, tt := range tests {
		r := validRequest()
		tt.mutate(&r)
		err := r.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%s: expected ValidationError, got %v", tt.name, err)
			continue
		}
		if ve.Field != tt.field {
			t.Errorf("%s: field = %q, want %q", tt.name, ve.Field, tt.field)
		}
	}
}

// TestSaveRequestJSONMissingSetIndex verifies that an absent setIndex in the
// wire format is detected rather than decoded as zero.
func TestSaveRequestJSONMissingSetIndex(t *testing.T) {
	raw := `{"name":"Legs","exercises":[{"exerciseId":"4f1f0c56-8b8e-4a57-9d35-6b1c1c2d9f10","order":0,"sets":[{"completed":true}]}]}`
	var r SaveWorkoutRequest
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := r.Validate(); err == nil {
		t.Fatal("expected validation error for missing setIndex")
	}
}

// TestTotals verifies stored aggregates only count completed sets.
func TestTotals(t *testing.T) {
	vol, sets := validRequest().Totals()
	if vol != 500 {
		t.Errorf("volume = %v, want 500", vol)
	}
	if sets != 1 {
		t.Errorf("sets = %d, want 1", sets)
	}
}

// TestDuration verifies the explicit duration wins and otherwise the
// start/end difference is used when positive.
func TestDuration(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(45*time.Minute + 400*time.Millisecond)

	r := SaveWorkoutRequest{StartedAt: &start, EndedAt: &end}
	if d := r.Duration(); d == nil || *d != 2700 {
		t.Errorf("duration = %v, want 2700", d)
	}

	r.DurationSec = Int(60)
	if d := r.Duration(); d == nil || *d != 60 {
		t.Errorf("explicit duration = %v, want 60", d)
	}

	r = SaveWorkoutRequest{StartedAt: &end, EndedAt: &start}
	if d := r.Duration(); d != nil {
		t.Errorf("negative span duration = %v, want nil", *d)
	}
}

// TestSettingsPatchValidate verifies empty and out-of-range updates are
// rejected.
func TestSettingsPatchValidate(t *testing.T) {
	if err := (SettingsPatch{}).Validate(); err == nil {
		t.Error("expected error for empty patch")
	}
	stone := "stone"
	if err := (SettingsPatch{Units: &stone}).Validate(); err == nil {
		t.Error("expected error for unknown units")
	}
	lb := "lb"
	if err := (SettingsPatch{Units: &lb, Age: Int(34)}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseInstructions(t *testing.T) {
	tests := []struct {
		name        string
		description string
		howTo       string
		want        []string
	}{
		{"empty", "", "  ", []string{}},
		{"paragraphs", "", "1. Lie on the bench.\n\n2) Press the bar up.", []string{"Lie on the bench.", "Press the bar up."}},
		{"sentences", "", "Stand tall. Lower the weight slowly.", []string{"Stand tall", "Lower the weight slowly."}},
		{"description fallback", "Hold the plank position.", "", []string{"Hold the plank position"}},
		{"short fragments dropped", "", "Go. Brace your core hard. Ok.", []string{"Brace your core hard"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseInstructions(tt.description, tt.howTo)
			if len(got) != len(tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("step %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSettingsPatchEnums(t *testing.T) {
	lvl, goal := "expert", "strength"
	if err := (SettingsPatch{ExperienceLevel: &lvl}).Validate(); err == nil {
		t.Error("expected error for unknown experience level")
	}
	if err := (SettingsPatch{Goal: &goal}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
