package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/nextrep/internal/dashboard"
	"github.com/claude/nextrep/internal/models"
)

// ExerciseHistory returns the measurement type of an exercise and every set
// the user logged for it, oldest session first. The session date is the
// workout's start time, falling back to its creation time.
func (db *DB) ExerciseHistory(ctx context.Context, userID, exerciseID uuid.UUID) (models.MeasurementType, []models.HistorySet, error) {
	var (
		mt      models.MeasurementType
		history []models.HistorySet
	)
	err := db.snapshot(ctx, func(tx pgx.Tx) error {
		var raw string
		err := tx.QueryRow(ctx, `SELECT measurement_type::text FROM exercises WHERE id = $1`, exerciseID).Scan(&raw)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("querying exercise %s: %w", exerciseID, err)
		}
		mt = models.ParseMeasurementType(raw)

		rows, err := tx.Query(ctx,
			`SELECT w.id::text, COALESCE(w.started_at, w.created_at), s.set_index,
			        s.weight::float8, s.reps, s.seconds, s.completed
			 FROM workout_sets s
			 JOIN workout_exercises we ON we.id = s.workout_exercise_id
			 JOIN workouts w ON w.id = we.workout_id
			 WHERE we.exercise_id = $1 AND w.user_id = $2
			 ORDER BY COALESCE(w.started_at, w.created_at) ASC, s.set_index ASC`,
			exerciseID, userID)
		if err != nil {
			return fmt.Errorf("querying exercise history: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var h models.HistorySet
			if err := rows.Scan(&h.WorkoutID, &h.SessionDate, &h.SetIndex,
				&h.Weight, &h.Reps, &h.Seconds, &h.Completed); err != nil {
				return fmt.Errorf("scanning history set: %w", err)
			}
			history = append(history, h)
		}
		return rows.Err()
	})
	return mt, history, err
}

// HomeSnapshot loads everything the dashboard needs for a user from one
// consistent snapshot: the full session list and the details of the two
// most recent sessions.
func (db *DB) HomeSnapshot(ctx context.Context, userID uuid.UUID) (dashboard.Input, error) {
	var in dashboard.Input
	err := db.snapshot(ctx, func(tx pgx.Tx) error {
		sessions, err := querySessionList(ctx, tx,
			`SELECT `+sessionListColumns+`
			 FROM workouts w
			 WHERE w.user_id = $1
			 ORDER BY COALESCE(w.started_at, w.created_at) DESC, w.created_at DESC`,
			userID)
		if err != nil {
			return err
		}
		in.Sessions = sessions

		if len(sessions) > 0 {
			if in.Latest, err = getWorkout(ctx, tx, sessions[0].ID, userID); err != nil {
				return err
			}
		}
		if len(sessions) > 1 {
			if in.Previous, err = getWorkout(ctx, tx, sessions[1].ID, userID); err != nil {
				return err
			}
		}
		return nil
	})
	return in, err
}

// ListUsedExercises returns the exercises that appear in the user's
// workouts, most recently used first.
func (db *DB) ListUsedExercises(ctx context.Context, userID uuid.UUID) ([]models.UsedExercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT e.id, e.name, e.category, e.measurement_type::text,
		        MAX(COALESCE(w.started_at, w.created_at)), COUNT(DISTINCT w.id)::int
		 FROM workout_exercises we
		 JOIN workouts w ON w.id = we.workout_id
		 JOIN exercises e ON e.id = we.exercise_id
		 WHERE w.user_id = $1
		 GROUP BY e.id, e.name, e.category, e.measurement_type
		 ORDER BY MAX(COALESCE(w.started_at, w.created_at)) DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying used exercises: %w", err)
	}
	defer rows.Close()

	result := []models.UsedExercise{}
	for rows.Next() {
		var (
			u  models.UsedExercise
			mt string
		)
		if err := rows.Scan(&u.ExerciseID, &u.Name, &u.Category, &mt, &u.LastUsedAt, &u.UsageCount); err != nil {
			return nil, fmt.Errorf("scanning used exercise: %w", err)
		}
		u.MeasurementType = models.ParseMeasurementType(mt)
		result = append(result, u)
	}
	return result, rows.Err()
}
