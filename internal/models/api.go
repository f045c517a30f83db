package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated account.
type User struct {
	ID          uuid.UUID `json:"id"`
	Login       string    `json:"login"`
	DisplayName string    `json:"displayName"`
}

// Page wraps one page of a list endpoint.
type Page[T any] struct {
	Data   []T `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// SessionListItem is one row of the workout history list.
type SessionListItem struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	CreatedAt     time.Time  `json:"createdAt"`
	StartedAt     *time.Time `json:"startedAt"`
	EndedAt       *time.Time `json:"endedAt"`
	TotalVolume   float64    `json:"totalVolume"`
	TotalSets     int        `json:"totalSets"`
	DurationSec   *int       `json:"durationSec"`
	ExerciseCount int        `json:"exerciseCount"`
}

// Date is the day a session counts towards: its start time, or its creation
// time when it was never started.
func (s SessionListItem) Date() time.Time {
	if s.StartedAt != nil {
		return *s.StartedAt
	}
	return s.CreatedAt
}

// SessionDetail is a persisted workout with its exercises and sets.
type SessionDetail struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	CreatedAt   time.Time        `json:"createdAt"`
	StartedAt   *time.Time       `json:"startedAt"`
	EndedAt     *time.Time       `json:"endedAt"`
	DurationSec *int             `json:"durationSec"`
	TotalVolume float64          `json:"totalVolume"`
	TotalSets   int              `json:"totalSets"`
	Notes       *string          `json:"notes,omitempty"`
	Exercises   []DetailExercise `json:"exercises"`
}

// Date mirrors SessionListItem.Date.
func (s SessionDetail) Date() time.Time {
	if s.StartedAt != nil {
		return *s.StartedAt
	}
	return s.CreatedAt
}

// DetailExercise is one exercise entry of a persisted workout.
type DetailExercise struct {
	ID              uuid.UUID       `json:"id"`
	ExerciseID      uuid.UUID       `json:"exerciseId"`
	ExerciseName    string          `json:"exerciseName"`
	Category        string          `json:"category"`
	MeasurementType MeasurementType `json:"measurementType"`
	Order           int             `json:"order"`
	Status          string          `json:"status"`
	Sets            []DetailSet     `json:"sets"`
}

// DetailSet is one persisted set.
type DetailSet struct {
	ID       uuid.UUID `json:"id"`
	SetIndex int       `json:"setIndex"`
	SetRecord
}

// SaveWorkoutRequest is the payload that persists a finished session.
// Pointer fields distinguish "absent" from zero during validation.
type SaveWorkoutRequest struct {
	Name        string         `json:"name"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	EndedAt     *time.Time     `json:"endedAt,omitempty"`
	DurationSec *int           `json:"durationSec,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
	Exercises   []SaveExercise `json:"exercises"`
}

// SaveExercise is one exercise of a SaveWorkoutRequest.
type SaveExercise struct {
	ExerciseID   string    `json:"exerciseId"`
	ExerciseName string    `json:"exerciseName,omitempty"`
	Order        *int      `json:"order"`
	Status       string    `json:"status,omitempty"`
	Sets         []SaveSet `json:"sets"`
}

// SaveSet is one set of a SaveExercise.
type SaveSet struct {
	SetIndex  *int     `json:"setIndex"`
	Completed bool     `json:"completed"`
	Weight    *float64 `json:"weight"`
	Reps      *int     `json:"reps"`
	Seconds   *int     `json:"seconds"`
}

// Record returns the measurement fields of the set.
func (s SaveSet) Record() SetRecord {
	return SetRecord{Weight: s.Weight, Reps: s.Reps, Seconds: s.Seconds, Completed: s.Completed}
}

// Totals returns the stored aggregates of a save request: volume and count
// over completed sets, matching what the session summary showed the user.
func (r SaveWorkoutRequest) Totals() (volume float64, sets int) {
	for _, ex := range r.Exercises {
		for _, s := range ex.Sets {
			rec := s.Record()
			if rec.Completed {
				sets++
			}
			if v, ok := Volume(rec); ok {
				volume += v
			}
		}
	}
	return volume, sets
}

// Duration returns the explicit duration, or the positive difference between
// end and start rounded to whole seconds, or nil.
func (r SaveWorkoutRequest) Duration() *int {
	if r.DurationSec != nil {
		return r.DurationSec
	}
	if r.StartedAt == nil || r.EndedAt == nil {
		return nil
	}
	diff := r.EndedAt.Sub(*r.StartedAt)
	if diff <= 0 {
		return nil
	}
	sec := int(diff.Round(time.Second) / time.Second)
	return &sec
}

// SaveWorkoutResponse is returned after a workout was persisted.
type SaveWorkoutResponse struct {
	WorkoutID   uuid.UUID `json:"workoutId"`
	CreatedAt   time.Time `json:"createdAt"`
	TotalVolume float64   `json:"totalVolume"`
	TotalSets   int       `json:"totalSets"`
	DurationSec *int      `json:"durationSec"`
}

// WorkoutStats are lifetime totals for a user.
type WorkoutStats struct {
	TotalWorkouts int     `json:"totalWorkouts"`
	TotalVolume   float64 `json:"totalVolume"`
	TotalSets     int     `json:"totalSets"`
}

// TrainingSummaryPeriod holds aggregated training volume for one period.
type TrainingSummaryPeriod struct {
	Period            string  `json:"period"`
	Sessions          int     `json:"sessions"`
	CompletedSets     int     `json:"completedSets"`
	TotalReps         int     `json:"totalReps"`
	Volume            float64 `json:"volume"`
	AvgSetsPerSession float64 `json:"avgSetsPerSession"`
}

// UsedExercise is an exercise that appears in at least one of the user's
// workouts.
type UsedExercise struct {
	ExerciseID      uuid.UUID       `json:"exerciseId"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	MeasurementType MeasurementType `json:"measurementType"`
	LastUsedAt      time.Time       `json:"lastUsedAt"`
	UsageCount      int             `json:"usageCount"`
}

// Exercise is a catalog entry.
type Exercise struct {
	ID               uuid.UUID       `json:"id"`
	Source           string          `json:"source"`
	SourceID         string          `json:"sourceId,omitempty"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	HowTo            string          `json:"howTo,omitempty"`
	PrimaryMuscles   []string        `json:"primaryMuscles"`
	SecondaryMuscles []string        `json:"secondaryMuscles"`
	Equipment        []string        `json:"equipment"`
	Category         string          `json:"category"`
	MeasurementType  MeasurementType `json:"measurementType"`
	Instructions     []string        `json:"instructions,omitempty"`
}

// Catalog sources.
const (
	SourceWger   = "wger"
	SourceCustom = "custom"
)

// UserSettings is the user's profile.
type UserSettings struct {
	Units           string   `json:"units"`
	ExperienceLevel *string  `json:"experienceLevel"`
	Goal            *string  `json:"goal"`
	HeightCm        *float64 `json:"heightCm"`
	WeightKg        *float64 `json:"weightKg"`
	Age             *int     `json:"age"`
}

// SettingsPatch carries the fields of a settings update; nil means unchanged.
type SettingsPatch struct {
	Units           *string  `json:"units"`
	ExperienceLevel *string  `json:"experienceLevel"`
	Goal            *string  `json:"goal"`
	HeightCm        *float64 `json:"heightCm"`
	WeightKg        *float64 `json:"weightKg"`
	Age             *int     `json:"age"`
}
