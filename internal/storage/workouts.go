package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/nextrep/internal/models"
)

// SaveWorkout persists a validated save request for userID as one workout
// with its exercises and sets. All rows are written in a single transaction;
// any failing insert leaves nothing behind. Exercise IDs that are not in the
// catalog are reported as a *models.ValidationError.
func (db *DB) SaveWorkout(ctx context.Context, userID uuid.UUID, req models.SaveWorkoutRequest) (models.SaveWorkoutResponse, error) {
	volume, sets := req.Totals()
	resp := models.SaveWorkoutResponse{
		TotalVolume: volume,
		TotalSets:   sets,
		DurationSec: req.Duration(),
	}

	exerciseIDs := make([]uuid.UUID, len(req.Exercises))
	for i, ex := range req.Exercises {
		id, err := uuid.Parse(ex.ExerciseID)
		if err != nil {
			return resp, &models.ValidationError{Field: fmt.Sprintf("exercises[%d].exerciseId", i), Reason: "must be a valid UUID"}
		}
		exerciseIDs[i] = id
	}

	err := db.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := checkExercisesExist(ctx, tx, exerciseIDs); err != nil {
			return err
		}

		err := tx.QueryRow(ctx,
			`INSERT INTO workouts (user_id, name, started_at, ended_at, duration_sec, total_volume, total_sets, notes)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			 RETURNING id, created_at`,
			userID, strings.TrimSpace(req.Name), req.StartedAt, req.EndedAt, resp.DurationSec,
			volume, sets, req.Notes,
		).Scan(&resp.WorkoutID, &resp.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting workout: %w", err)
		}

		entryIDs := make([]uuid.UUID, len(req.Exercises))
		for i := range entryIDs {
			entryIDs[i] = uuid.New()
		}
		if err := insertWorkoutExercises(ctx, tx, resp.WorkoutID, entryIDs, exerciseIDs, req.Exercises); err != nil {
			return err
		}
		return insertWorkoutSets(ctx, tx, entryIDs, req.Exercises)
	})
	if err != nil {
		return models.SaveWorkoutResponse{}, err
	}
	return resp, nil
}

func checkExercisesExist(ctx context.Context, q querier, ids []uuid.UUID) error {
	rows, err := q.Query(ctx, `SELECT id FROM exercises WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("checking exercises: %w", err)
	}
	defer rows.Close()

	known := make(map[uuid.UUID]bool, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning exercise id: %w", err)
		}
		known[id] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i, id := range ids {
		if !known[id] {
			return &models.ValidationError{
				Field:  fmt.Sprintf("exercises[%d].exerciseId", i),
				Reason: fmt.Sprintf("references an unknown exercise (%s)", id),
			}
		}
	}
	return nil
}

func insertWorkoutExercises(ctx context.Context, q querier, workoutID uuid.UUID, entryIDs, exerciseIDs []uuid.UUID, exercises []models.SaveExercise) error {
	query := `INSERT INTO workout_exercises (id, workout_id, exercise_id, "order", status) VALUES `
	args := make([]any, 0, len(exercises)*5)
	valueStrings := make([]string, 0, len(exercises))

	for i, ex := range exercises {
		base := i * 5
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d::exercise_status)",
			base+1, base+2, base+3, base+4, base+5,
		))
		status := "pending"
		if ex.Status == "completed" {
			status = "completed"
		}
		args = append(args, entryIDs[i], workoutID, exerciseIDs[i], *ex.Order, status)
	}

	if _, err := q.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
		return fmt.Errorf("inserting workout exercises: %w", err)
	}
	return nil
}

func insertWorkoutSets(ctx context.Context, q querier, entryIDs []uuid.UUID, exercises []models.SaveExercise) error {
	query := `INSERT INTO workout_sets (workout_exercise_id, set_index, weight, reps, seconds, completed) VALUES `
	var (
		args         []any
		valueStrings []string
	)
	for i, ex := range exercises {
		for _, s := range ex.Sets {
			base := len(args)
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6,
			))
			args = append(args, entryIDs[i], *s.SetIndex, s.Weight, s.Reps, s.Seconds, s.Completed)
		}
	}
	if len(valueStrings) == 0 {
		return nil
	}

	if _, err := q.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
		return fmt.Errorf("inserting workout sets: %w", err)
	}
	return nil
}

const sessionListColumns = `w.id, w.name, w.created_at, w.started_at, w.ended_at,
	w.total_volume::float8, w.total_sets, w.duration_sec,
	(SELECT COUNT(*)::int FROM workout_exercises we WHERE we.workout_id = w.id)`

// ListWorkouts returns one page of the user's workouts, newest session
// date first.
func (db *DB) ListWorkouts(ctx context.Context, userID uuid.UUID, limit, offset int) (models.Page[models.SessionListItem], error) {
	page := models.Page[models.SessionListItem]{Data: []models.SessionListItem{}, Limit: limit, Offset: offset}

	err := db.snapshot(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COUNT(*)::int FROM workouts WHERE user_id = $1`, userID).Scan(&page.Total); err != nil {
			return fmt.Errorf("counting workouts: %w", err)
		}
		items, err := querySessionList(ctx, tx,
			`SELECT `+sessionListColumns+`
			 FROM workouts w
			 WHERE w.user_id = $1
			 ORDER BY COALESCE(w.started_at, w.created_at) DESC, w.created_at DESC
			 LIMIT $2 OFFSET $3`,
			userID, limit, offset)
		if err != nil {
			return err
		}
		page.Data = items
		return nil
	})
	return page, err
}

func querySessionList(ctx context.Context, q querier, sql string, args ...any) ([]models.SessionListItem, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	result := []models.SessionListItem{}
	for rows.Next() {
		var s models.SessionListItem
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.StartedAt, &s.EndedAt,
			&s.TotalVolume, &s.TotalSets, &s.DurationSec, &s.ExerciseCount); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetWorkout retrieves a single workout of the user with its exercises and
// sets. Workouts of other users are reported as ErrNotFound.
func (db *DB) GetWorkout(ctx context.Context, workoutID, userID uuid.UUID) (*models.SessionDetail, error) {
	var detail *models.SessionDetail
	err := db.snapshot(ctx, func(tx pgx.Tx) error {
		var err error
		detail, err = getWorkout(ctx, tx, workoutID, userID)
		return err
	})
	return detail, err
}

func getWorkout(ctx context.Context, q querier, workoutID, userID uuid.UUID) (*models.SessionDetail, error) {
	d := &models.SessionDetail{Exercises: []models.DetailExercise{}}
	err := q.QueryRow(ctx,
		`SELECT id, name, created_at, started_at, ended_at, duration_sec, total_volume::float8, total_sets, notes
		 FROM workouts
		 WHERE id = $1 AND user_id = $2`,
		workoutID, userID,
	).Scan(&d.ID, &d.Name, &d.CreatedAt, &d.StartedAt, &d.EndedAt, &d.DurationSec,
		&d.TotalVolume, &d.TotalSets, &d.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying workout %s: %w", workoutID, err)
	}

	rows, err := q.Query(ctx,
		`SELECT we.id, we.exercise_id, e.name, e.category, e.measurement_type::text, we."order", we.status::text,
		        s.id, s.set_index, s.weight::float8, s.reps, s.seconds, s.completed
		 FROM workout_exercises we
		 JOIN exercises e ON e.id = we.exercise_id
		 LEFT JOIN workout_sets s ON s.workout_exercise_id = we.id
		 WHERE we.workout_id = $1
		 ORDER BY we."order" ASC, s.set_index ASC`,
		workoutID)
	if err != nil {
		return nil, fmt.Errorf("querying workout exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ex       models.DetailExercise
			mt       string
			setID    *uuid.UUID
			setIndex *int
			set      models.DetailSet
			done     *bool
		)
		if err := rows.Scan(&ex.ID, &ex.ExerciseID, &ex.ExerciseName, &ex.Category, &mt, &ex.Order, &ex.Status,
			&setID, &setIndex, &set.Weight, &set.Reps, &set.Seconds, &done); err != nil {
			return nil, fmt.Errorf("scanning workout exercise: %w", err)
		}
		ex.MeasurementType = models.ParseMeasurementType(mt)

		n := len(d.Exercises)
		if n == 0 || d.Exercises[n-1].ID != ex.ID {
			ex.Sets = []models.DetailSet{}
			d.Exercises = append(d.Exercises, ex)
			n++
		}
		if setID != nil {
			set.ID = *setID
			set.SetIndex = *setIndex
			set.Completed = done != nil && *done
			d.Exercises[n-1].Sets = append(d.Exercises[n-1].Sets, set)
		}
	}
	return d, rows.Err()
}

// DeleteWorkout removes a workout of the user; exercises and sets cascade.
func (db *DB) DeleteWorkout(ctx context.Context, workoutID, userID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM workouts WHERE id = $1 AND user_id = $2`, workoutID, userID)
	if err != nil {
		return fmt.Errorf("deleting workout %s: %w", workoutID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetWorkoutStats returns lifetime totals for the user.
func (db *DB) GetWorkoutStats(ctx context.Context, userID uuid.UUID) (models.WorkoutStats, error) {
	var s models.WorkoutStats
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*)::int, COALESCE(SUM(total_volume), 0)::float8, COALESCE(SUM(total_sets), 0)::int
		 FROM workouts
		 WHERE user_id = $1`,
		userID,
	).Scan(&s.TotalWorkouts, &s.TotalVolume, &s.TotalSets)
	if err != nil {
		return s, fmt.Errorf("querying workout stats: %w", err)
	}
	return s, nil
}

// WorkoutExists reports whether the user already has a workout with this
// name starting at startedAt.
func (db *DB) WorkoutExists(ctx context.Context, userID uuid.UUID, name string, startedAt time.Time) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM workouts WHERE user_id = $1 AND name = $2 AND started_at = $3)`,
		userID, name, startedAt,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking workout exists: %w", err)
	}
	return exists, nil
}
