package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/claude/nextrep/internal/client"
	"github.com/claude/nextrep/internal/dashboard"
	"github.com/claude/nextrep/internal/models"
	"github.com/claude/nextrep/internal/progress"
)

// HTTPClient implements DataSource by calling the NextRep REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale). The server
// identifies the caller, so the userID arguments are ignored.
type HTTPClient struct {
	c *client.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient on top of c.
func NewHTTPClient(c *client.Client) *HTTPClient {
	return &HTTPClient{c: c}
}

func (h *HTTPClient) ExerciseProgress(ctx context.Context, _, exerciseID uuid.UUID) (progress.Result, error) {
	return h.c.ExerciseProgress(ctx, exerciseID)
}

func (h *HTTPClient) Home(ctx context.Context, _ uuid.UUID) (dashboard.Home, error) {
	return h.c.Home(ctx)
}

func (h *HTTPClient) ListWorkouts(ctx context.Context, _ uuid.UUID, limit, offset int) (models.Page[models.SessionListItem], error) {
	return h.c.ListWorkouts(ctx, limit, offset)
}

func (h *HTTPClient) GetWorkout(ctx context.Context, _, workoutID uuid.UUID) (*models.SessionDetail, error) {
	return h.c.GetWorkout(ctx, workoutID)
}

func (h *HTTPClient) ListUsedExercises(ctx context.Context, _ uuid.UUID) ([]models.UsedExercise, error) {
	return h.c.UsedExercises(ctx)
}

func (h *HTTPClient) GetTrainingSummary(ctx context.Context, _ uuid.UUID, start, end time.Time, bucket string) ([]models.TrainingSummaryPeriod, error) {
	return h.c.TrainingSummary(ctx, start, end, bucket)
}
