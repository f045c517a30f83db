package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/nextrep/internal/models"
)

// GetTrainingSummary returns completed-set volume per period for workouts
// dated in [start, end), newest period first.
func (db *DB) GetTrainingSummary(ctx context.Context, userID uuid.UUID, start, end time.Time, bucket string) ([]models.TrainingSummaryPeriod, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc($1, COALESCE(w.started_at, w.created_at))::date AS period,
		        COUNT(DISTINCT w.id)::int,
		        COUNT(s.id) FILTER (WHERE s.completed)::int,
		        COALESCE(SUM(s.reps) FILTER (WHERE s.completed), 0)::int,
		        COALESCE(SUM(s.weight * s.reps) FILTER (WHERE s.completed), 0)::float8
		 FROM workouts w
		 LEFT JOIN workout_exercises we ON we.workout_id = w.id
		 LEFT JOIN workout_sets s ON s.workout_exercise_id = we.id
		 WHERE COALESCE(w.started_at, w.created_at) >= $2
		   AND COALESCE(w.started_at, w.created_at) < $3
		   AND w.user_id = $4
		 GROUP BY period
		 ORDER BY period DESC`,
		truncInterval(bucket), start, end, userID)
	if err != nil {
		return nil, fmt.Errorf("querying training summary: %w", err)
	}
	defer rows.Close()

	result := []models.TrainingSummaryPeriod{}
	for rows.Next() {
		var (
			periodTime time.Time
			p          models.TrainingSummaryPeriod
		)
		if err := rows.Scan(&periodTime, &p.Sessions, &p.CompletedSets, &p.TotalReps, &p.Volume); err != nil {
			return nil, fmt.Errorf("scanning training summary: %w", err)
		}
		p.Period = periodTime.Format("2006-01-02")
		if p.Sessions > 0 {
			p.AvgSetsPerSession = float64(p.CompletedSets) / float64(p.Sessions)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// truncInterval converts bucket strings like "1 week" or "week" to the
// interval name that date_trunc expects.
func truncInterval(bucket string) string {
	switch bucket {
	case "1 day", "day":
		return "day"
	case "1 week", "week":
		return "week"
	default:
		return "month"
	}
}
