package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/nextrep/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c := New(ts.URL+"/", Options{Token: "tok", APIKey: "key", Retries: 3})
	c.backoff = time.Millisecond
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sampleRequest() models.SaveWorkoutRequest {
	return models.SaveWorkoutRequest{Name: "Push", Exercises: []models.SaveExercise{{
		ExerciseID: uuid.NewString(),
		Order:      models.Int(0),
		Sets:       []models.SaveSet{{SetIndex: models.Int(1), Completed: true, Reps: models.Int(10)}},
	}}}
}

func TestSaveWorkout(t *testing.T) {
	id := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/workouts", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-API-Key"))

		var req models.SaveWorkoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Push", req.Name)
		writeJSON(w, http.StatusCreated, models.SaveWorkoutResponse{WorkoutID: id, TotalSets: 1})
	})

	resp, err := c.SaveWorkout(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, id, resp.WorkoutID)
	assert.Equal(t, 1, resp.TotalSets)
}

// TestSaveWorkoutRetriesServerErrors verifies that transient failures are
// retried with backoff.
func TestSaveWorkoutRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save workout"})
			return
		}
		writeJSON(w, http.StatusCreated, models.SaveWorkoutResponse{WorkoutID: uuid.New()})
	})

	_, err := c.SaveWorkout(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSaveWorkoutGivesUp(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "down"})
	})

	_, err := c.SaveWorkout(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}

// TestSaveWorkoutValidationError verifies that a rejected payload is not
// retried and surfaces as a ValidationError with the field path.
func TestSaveWorkoutValidationError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "exercises[0].exerciseId references an unknown exercise",
			"field": "exercises[0].exerciseId",
		})
	})

	_, err := c.SaveWorkout(context.Background(), sampleRequest())
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "exercises[0].exerciseId", verr.Field)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetWorkoutNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	_, err := c.GetWorkout(context.Background(), uuid.New())
	assert.True(t, IsNotFound(err))
}

func TestImportAlpha(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/v1/import/alpha", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "text/csv", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "csv-data", string(body))
		writeJSON(w, http.StatusOK, map[string]int{"sessionsReceived": 2, "sessionsSaved": 1, "sessionsSkipped": 1})
	})

	res, err := c.ImportAlpha(context.Background(), strings.NewReader("csv-data"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.SessionsSaved)
	assert.Equal(t, 1, res.SessionsSkipped)
	assert.Equal(t, int32(1), calls.Load())
}

func TestQueryEndpoints(t *testing.T) {
	exerciseID := uuid.New()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/workouts":
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			assert.Equal(t, "10", r.URL.Query().Get("offset"))
			writeJSON(w, http.StatusOK, models.Page[models.SessionListItem]{Total: 11, Limit: 5, Offset: 10})
		case "/api/v1/workouts/summary":
			assert.Equal(t, "week", r.URL.Query().Get("bucket"))
			assert.NotEmpty(t, r.URL.Query().Get("start"))
			writeJSON(w, http.StatusOK, []models.TrainingSummaryPeriod{{Period: "2026-06-15", Sessions: 2}})
		case "/api/v1/me":
			writeJSON(w, http.StatusOK, map[string]string{"login": "alice", "display_name": "Alice"})
		case "/api/v1/exercises":
			assert.Equal(t, "squat", r.URL.Query().Get("q"))
			writeJSON(w, http.StatusOK, models.Page[models.Exercise]{Data: []models.Exercise{{Name: "Squat"}}, Total: 1})
		case "/api/v1/exercises/" + exerciseID.String():
			writeJSON(w, http.StatusOK, models.Exercise{ID: exerciseID, Name: "Plank", MeasurementType: models.Timed})
		default:
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	page, err := c.ListWorkouts(ctx, 5, 10)
	require.NoError(t, err)
	assert.Equal(t, 11, page.Total)

	periods, err := c.TrainingSummary(ctx, time.Now().AddDate(0, -1, 0), time.Now(), "week")
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, 2, periods[0].Sessions)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.DisplayName)

	found, err := c.SearchExercises(ctx, "squat", 10)
	require.NoError(t, err)
	require.Len(t, found.Data, 1)
	assert.Equal(t, "Squat", found.Data[0].Name)

	ex, err := c.GetExercise(ctx, exerciseID)
	require.NoError(t, err)
	assert.Equal(t, models.Timed, ex.MeasurementType)
}

func TestCanceledContextStopsRetries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "bad gateway"})
	})
	c.backoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.SaveWorkout(ctx, sampleRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
