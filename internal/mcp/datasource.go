package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/claude/nextrep/internal/dashboard"
	"github.com/claude/nextrep/internal/models"
	"github.com/claude/nextrep/internal/progress"
	"github.com/claude/nextrep/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Local (database) and
// HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ExerciseProgress(ctx context.Context, userID, exerciseID uuid.UUID) (progress.Result, error)
	Home(ctx context.Context, userID uuid.UUID) (dashboard.Home, error)
	ListWorkouts(ctx context.Context, userID uuid.UUID, limit, offset int) (models.Page[models.SessionListItem], error)
	GetWorkout(ctx context.Context, userID, workoutID uuid.UUID) (*models.SessionDetail, error)
	ListUsedExercises(ctx context.Context, userID uuid.UUID) ([]models.UsedExercise, error)
	GetTrainingSummary(ctx context.Context, userID uuid.UUID, start, end time.Time, bucket string) ([]models.TrainingSummaryPeriod, error)
}

// Local computes analytics straight from the database.
type Local struct {
	db        *storage.DB
	analytics dashboard.Options
	now       func() time.Time
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

// NewLocal creates a DataSource over db.
func NewLocal(db *storage.DB, analytics dashboard.Options) *Local {
	return &Local{db: db, analytics: analytics, now: time.Now}
}

func (l *Local) ExerciseProgress(ctx context.Context, userID, exerciseID uuid.UUID) (progress.Result, error) {
	mt, history, err := l.db.ExerciseHistory(ctx, userID, exerciseID)
	if err != nil {
		return progress.Result{}, err
	}
	return progress.Analyze(mt, history, l.now()), nil
}

func (l *Local) Home(ctx context.Context, userID uuid.UUID) (dashboard.Home, error) {
	in, err := l.db.HomeSnapshot(ctx, userID)
	if err != nil {
		return dashboard.Home{}, err
	}
	return dashboard.Build(in, l.now(), l.analytics), nil
}

func (l *Local) ListWorkouts(ctx context.Context, userID uuid.UUID, limit, offset int) (models.Page[models.SessionListItem], error) {
	return l.db.ListWorkouts(ctx, userID, limit, offset)
}

func (l *Local) GetWorkout(ctx context.Context, userID, workoutID uuid.UUID) (*models.SessionDetail, error) {
	return l.db.GetWorkout(ctx, workoutID, userID)
}

func (l *Local) ListUsedExercises(ctx context.Context, userID uuid.UUID) ([]models.UsedExercise, error) {
	return l.db.ListUsedExercises(ctx, userID)
}

func (l *Local) GetTrainingSummary(ctx context.Context, userID uuid.UUID, start, end time.Time, bucket string) ([]models.TrainingSummaryPeriod, error) {
	return l.db.GetTrainingSummary(ctx, userID, start, end, bucket)
}
