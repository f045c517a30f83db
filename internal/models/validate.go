package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidationError reports a rejected payload field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + " " + e.Reason
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a save request before anything is persisted. The first
// offending field is reported.
func (r SaveWorkoutRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name", "is required (non-empty string)")
	}
	if len(r.Exercises) == 0 {
		return invalid("exercises", "must contain at least one exercise")
	}
	for i, ex := range r.Exercises {
		field := fmt.Sprintf("exercises[%d]", i)
		if _, err := uuid.Parse(ex.ExerciseID); err != nil {
			return invalid(field+".exerciseId", "must be a valid UUID (got: %q)", truncate(ex.ExerciseID, 50))
		}
		if ex.Order == nil {
			return invalid(field+".order", "must be a number")
		}
		if ex.Status != "" && ex.Status != "pending" && ex.Status != "completed" {
			return invalid(field+".status", "must be 'pending' or 'completed' (got: %q)", ex.Status)
		}
		if ex.Sets == nil {
			return invalid(field+".sets", "must be an array")
		}
		if len(ex.Sets) == 0 {
			return invalid(field+".sets", "must have at least one set")
		}
		for j, s := range ex.Sets {
			if s.SetIndex == nil {
				return invalid(fmt.Sprintf("%s.sets[%d].setIndex", field, j), "must be a number")
			}
		}
	}
	if r.StartedAt != nil && r.EndedAt != nil && r.EndedAt.Before(*r.StartedAt) {
		return invalid("endedAt", "must not be before startedAt")
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var (
	experienceLevels = map[string]bool{"beginner": true, "intermediate": true, "advanced": true}
	goals            = map[string]bool{
		"muscle_growth":   true,
		"strength":        true,
		"endurance":       true,
		"weight_loss":     true,
		"general_fitness": true,
	}
)

// Validate checks a settings update.
func (p SettingsPatch) Validate() error {
	if p.Units == nil && p.ExperienceLevel == nil && p.Goal == nil &&
		p.HeightCm == nil && p.WeightKg == nil && p.Age == nil {
		return &ValidationError{Reason: "no valid fields to update"}
	}
	if p.Units != nil && *p.Units != "kg" && *p.Units != "lb" {
		return invalid("units", "must be 'kg' or 'lb'")
	}
	if p.ExperienceLevel != nil && !experienceLevels[*p.ExperienceLevel] {
		return invalid("experienceLevel", "must be one of beginner, intermediate, advanced")
	}
	if p.Goal != nil && !goals[*p.Goal] {
		return invalid("goal", "must be one of muscle_growth, strength, endurance, weight_loss, general_fitness")
	}
	if p.HeightCm != nil && *p.HeightCm <= 0 {
		return invalid("heightCm", "must be positive")
	}
	if p.WeightKg != nil && *p.WeightKg <= 0 {
		return invalid("weightKg", "must be positive")
	}
	if p.Age != nil && (*p.Age <= 0 || *p.Age > 150) {
		return invalid("age", "must be between 1 and 150")
	}
	return nil
}
