package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/claude/nextrep/internal/dashboard"
	"github.com/claude/nextrep/internal/models"
	"github.com/claude/nextrep/internal/progress"
	"github.com/claude/nextrep/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2026, 6, 17, 18, 0, 0, 0, time.UTC)

// fakeSource records the user each call was made for.
type fakeSource struct {
	user     uuid.UUID
	used     []models.UsedExercise
	workouts []models.SessionListItem
	details  map[uuid.UUID]*models.SessionDetail

	progressFor uuid.UUID
	summaryArgs []any
}

func (f *fakeSource) ExerciseProgress(_ context.Context, userID, exerciseID uuid.UUID) (progress.Result, error) {
	f.user, f.progressFor = userID, exerciseID
	return progress.Result{MeasurementType: models.WeightReps, Last5: []progress.SessionSummary{}}, nil
}

func (f *fakeSource) Home(_ context.Context, userID uuid.UUID) (dashboard.Home, error) {
	f.user = userID
	return dashboard.Home{TotalWorkouts: len(f.workouts), Subtitle: "Keep the momentum going"}, nil
}

func (f *fakeSource) ListWorkouts(_ context.Context, userID uuid.UUID, limit, offset int) (models.Page[models.SessionListItem], error) {
	f.user = userID
	page := models.Page[models.SessionListItem]{Data: []models.SessionListItem{}, Total: len(f.workouts), Limit: limit, Offset: offset}
	for i := offset; i < len(f.workouts) && i < offset+limit; i++ {
		page.Data = append(page.Data, f.workouts[i])
	}
	return page, nil
}

func (f *fakeSource) GetWorkout(_ context.Context, userID, workoutID uuid.UUID) (*models.SessionDetail, error) {
	f.user = userID
	d, ok := f.details[workoutID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return d, nil
}

func (f *fakeSource) ListUsedExercises(_ context.Context, userID uuid.UUID) ([]models.UsedExercise, error) {
	f.user = userID
	return f.used, nil
}

func (f *fakeSource) GetTrainingSummary(_ context.Context, userID uuid.UUID, start, end time.Time, bucket string) ([]models.TrainingSummaryPeriod, error) {
	f.user = userID
	f.summaryArgs = []any{start, end, bucket}
	return []models.TrainingSummaryPeriod{{Period: "2026-06-15", Sessions: 2}}, nil
}

func newHandlers(ds DataSource, user uuid.UUID) *handlers {
	return &handlers{
		ds:          ds,
		defaultUser: user,
		now:         func() time.Time { return testNow },
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func sessionOn(daysAgo int) models.SessionListItem {
	start := testNow.AddDate(0, 0, -daysAgo)
	return models.SessionListItem{ID: uuid.New(), Name: "Session", StartedAt: &start, CreatedAt: start}
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	id := uuid.New()
	got, ok := UserIDFromContext(WithUserID(context.Background(), id))
	require.True(t, ok)
	assert.Equal(t, id, got)
}

// TestHandlersUseContextUser verifies that a user injected by the transport
// overrides the default user.
func TestHandlersUseContextUser(t *testing.T) {
	ds := &fakeSource{}
	def, other := uuid.New(), uuid.New()
	h := newHandlers(ds, def)

	_, err := h.getHomeSummary(context.Background(), call(nil))
	require.NoError(t, err)
	assert.Equal(t, def, ds.user)

	_, err = h.getHomeSummary(WithUserID(context.Background(), other), call(nil))
	require.NoError(t, err)
	assert.Equal(t, other, ds.user)
}

func TestDefaultTimeRange(t *testing.T) {
	start, end, err := defaultTimeRange("", "", testNow, 90)
	require.NoError(t, err)
	assert.Equal(t, testNow, end)
	assert.Equal(t, testNow.AddDate(0, 0, -90), start)

	start, end, err = defaultTimeRange("2024-01-01", "2024-01-31", testNow, 90)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), end)

	start, _, err = defaultTimeRange("2024-06-15T10:30:00Z", "", testNow, 90)
	require.NoError(t, err)
	assert.Equal(t, 10, start.Hour())
	assert.Equal(t, 30, start.Minute())

	_, _, err = defaultTimeRange("not-a-date", "", testNow, 90)
	assert.Error(t, err)
}

func TestExerciseProgressByID(t *testing.T) {
	ds := &fakeSource{}
	h := newHandlers(ds, uuid.New())
	id := uuid.New()

	res, err := h.getExerciseProgress(context.Background(), call(map[string]any{"exercise_id": id.String()}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, id, ds.progressFor)

	var body struct {
		ExerciseID uuid.UUID       `json:"exerciseId"`
		Progress   progress.Result `json:"progress"`
	}
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &body))
	assert.Equal(t, id, body.ExerciseID)
	assert.Equal(t, models.WeightReps, body.Progress.MeasurementType)
}

func TestExerciseProgressByName(t *testing.T) {
	squat, frontSquat, bench := uuid.New(), uuid.New(), uuid.New()
	ds := &fakeSource{used: []models.UsedExercise{
		{ExerciseID: frontSquat, Name: "Front Squat"},
		{ExerciseID: squat, Name: "Squat"},
		{ExerciseID: bench, Name: "Bench Press"},
	}}
	h := newHandlers(ds, uuid.New())
	ctx := context.Background()

	res, err := h.getExerciseProgress(ctx, call(map[string]any{"exercise": "squat"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, squat, ds.progressFor, "exact match wins")

	res, err = h.getExerciseProgress(ctx, call(map[string]any{"exercise": "bench"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, bench, ds.progressFor)

	res, err = h.getExerciseProgress(ctx, call(map[string]any{"exercise": "squ"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "Front Squat")

	res, err = h.getExerciseProgress(ctx, call(map[string]any{"exercise": "deadlift"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestExerciseProgressArguments(t *testing.T) {
	h := newHandlers(&fakeSource{}, uuid.New())

	res, err := h.getExerciseProgress(context.Background(), call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = h.getExerciseProgress(context.Background(), call(map[string]any{"exercise_id": "42"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "UUID")
}

func TestListWorkouts(t *testing.T) {
	ds := &fakeSource{}
	for i := 0; i < 15; i++ {
		ds.workouts = append(ds.workouts, sessionOn(i))
	}
	h := newHandlers(ds, uuid.New())

	res, err := h.listWorkouts(context.Background(), call(nil))
	require.NoError(t, err)
	var page models.Page[models.SessionListItem]
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &page))
	assert.Len(t, page.Data, 10)
	assert.Equal(t, 15, page.Total)

	res, err = h.listWorkouts(context.Background(), call(map[string]any{"limit": 10, "offset": 10}))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &page))
	assert.Len(t, page.Data, 5)

	for _, bad := range []map[string]any{{"limit": 0}, {"limit": 101}, {"offset": -1}} {
		res, err = h.listWorkouts(context.Background(), call(bad))
		require.NoError(t, err)
		assert.True(t, res.IsError, "%v", bad)
	}
}

func TestGetWorkout(t *testing.T) {
	id := uuid.New()
	ds := &fakeSource{details: map[uuid.UUID]*models.SessionDetail{
		id: {ID: id, Name: "Push", TotalSets: 4},
	}}
	h := newHandlers(ds, uuid.New())
	ctx := context.Background()

	res, err := h.getWorkout(ctx, call(map[string]any{"id": id.String()}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var d models.SessionDetail
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &d))
	assert.Equal(t, "Push", d.Name)

	res, err = h.getWorkout(ctx, call(map[string]any{"id": uuid.NewString()}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "workout not found", text(t, res))

	res, err = h.getWorkout(ctx, call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestListUsedExercises(t *testing.T) {
	ds := &fakeSource{used: []models.UsedExercise{{ExerciseID: uuid.New(), Name: "Squat", UsageCount: 3}}}
	h := newHandlers(ds, uuid.New())

	res, err := h.listUsedExercises(context.Background(), call(nil))
	require.NoError(t, err)
	var used []models.UsedExercise
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &used))
	require.Len(t, used, 1)
	assert.Equal(t, 3, used[0].UsageCount)
}

func TestGetTrainingSummary(t *testing.T) {
	ds := &fakeSource{}
	h := newHandlers(ds, uuid.New())

	res, err := h.getTrainingSummary(context.Background(), call(nil))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, []any{testNow.AddDate(0, 0, -90), testNow, "week"}, ds.summaryArgs)

	res, err = h.getTrainingSummary(context.Background(), call(map[string]any{"start": "yesterday"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

// TestRecentWorkoutsResource verifies that the resource pages through the
// history and stops at the first session older than two weeks.
func TestRecentWorkoutsResource(t *testing.T) {
	ds := &fakeSource{}
	for i := 0; i < 120; i++ {
		ds.workouts = append(ds.workouts, sessionOn(i/10))
	}
	ds.workouts = append(ds.workouts, sessionOn(20), sessionOn(30))
	h := newHandlers(ds, uuid.New())

	var req mcp.ReadResourceRequest
	req.Params.URI = "nextrep://recent_workouts"
	contents, err := h.recentWorkouts(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	tc, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "nextrep://recent_workouts", tc.URI)

	var recent []models.SessionListItem
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &recent))
	assert.Len(t, recent, 120)
}

func TestRecentWorkoutsEmpty(t *testing.T) {
	h := newHandlers(&fakeSource{}, uuid.New())

	var req mcp.ReadResourceRequest
	req.Params.URI = "nextrep://recent_workouts"
	contents, err := h.recentWorkouts(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "[]", contents[0].(mcp.TextResourceContents).Text)
}

func TestNew(t *testing.T) {
	s := New(&fakeSource{}, uuid.New(), "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NotNil(t, s)
}
