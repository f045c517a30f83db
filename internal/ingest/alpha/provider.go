package alpha

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/nextrep/internal/ingest"
	"github.com/claude/nextrep/internal/models"
)

// Store is what the importer needs from storage.
type Store interface {
	FindOrCreateExercise(ctx context.Context, name string, mt models.MeasurementType) (models.Exercise, bool, error)
	WorkoutExists(ctx context.Context, userID uuid.UUID, name string, startedAt time.Time) (bool, error)
	SaveWorkout(ctx context.Context, userID uuid.UUID, req models.SaveWorkoutRequest) (models.SaveWorkoutResponse, error)
}

// Provider turns Alpha Progression CSV exports into saved workouts.
type Provider struct {
	store Store
	log   *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider.
func NewProvider(store Store, log *slog.Logger) *Provider {
	return &Provider{store: store, log: log}
}

// Ingest parses an export and saves each session as a workout of userID.
// Sessions already imported (same name and start time) are skipped, so
// re-importing a longer export only adds the new sessions. Warm-up sets are
// not imported.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID uuid.UUID) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}

	result := &ingest.Result{SessionsReceived: len(sessions)}
	resolved := make(map[string]models.Exercise)

	for _, s := range sessions {
		exists, err := p.store.WorkoutExists(ctx, userID, s.Name, s.Date)
		if err != nil {
			return result, err
		}
		if exists {
			result.SessionsSkipped++
			continue
		}

		req, err := p.buildRequest(ctx, s, resolved, result)
		if err != nil {
			return result, err
		}
		if len(req.Exercises) == 0 {
			result.SessionsSkipped++
			continue
		}

		resp, err := p.store.SaveWorkout(ctx, userID, req)
		if err != nil {
			return result, fmt.Errorf("saving session %q (%s): %w", s.Name, s.Date.Format("2006-01-02"), err)
		}
		result.SessionsSaved++
		result.SetsSaved += resp.TotalSets
	}

	p.log.Info("alpha import finished",
		"received", result.SessionsReceived,
		"saved", result.SessionsSaved,
		"skipped", result.SessionsSkipped,
		"exercises_created", len(result.ExercisesCreated),
	)
	return result, nil
}

func (p *Provider) buildRequest(ctx context.Context, s Session, resolved map[string]models.Exercise, result *ingest.Result) (models.SaveWorkoutRequest, error) {
	start := s.Date
	req := models.SaveWorkoutRequest{Name: s.Name, StartedAt: &start}
	if s.Duration > 0 {
		end := start.Add(s.Duration)
		secs := int(s.Duration / time.Second)
		req.EndedAt, req.DurationSec = &end, &secs
	}

	for _, ex := range s.Exercises {
		working := ex.WorkingSets()
		if len(working) == 0 {
			continue
		}

		key := strings.ToLower(ex.Name)
		cat, ok := resolved[key]
		if !ok {
			found, created, err := p.store.FindOrCreateExercise(ctx, ex.Name, measurementFor(working))
			if err != nil {
				return req, fmt.Errorf("resolving exercise %q: %w", ex.Name, err)
			}
			if created {
				result.ExercisesCreated = append(result.ExercisesCreated, found.Name)
			}
			resolved[key] = found
			cat = found
		}

		order := len(req.Exercises)
		entry := models.SaveExercise{
			ExerciseID:   cat.ID.String(),
			ExerciseName: cat.Name,
			Order:        &order,
			Status:       "completed",
		}
		for i, set := range working {
			entry.Sets = append(entry.Sets, toSaveSet(cat.MeasurementType, i+1, set))
		}
		req.Exercises = append(req.Exercises, entry)
	}
	return req, nil
}

// measurementFor guesses the type of an exercise missing from the catalog:
// bodyweight exercises that never carried added load are counted in reps.
func measurementFor(sets []Set) models.MeasurementType {
	for _, s := range sets {
		if !s.BodyweightPlus || s.WeightKg > 0 {
			return models.WeightReps
		}
	}
	return models.RepsOnly
}

func toSaveSet(mt models.MeasurementType, index int, s Set) models.SaveSet {
	out := models.SaveSet{
		SetIndex:  models.Int(index),
		Completed: true,
		Reps:      models.Int(s.Reps),
	}
	if mt == models.WeightReps {
		out.Weight = models.Float64(s.WeightKg)
	}
	return out
}
