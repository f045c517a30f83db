package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/nextrep/internal/dashboard"
	"github.com/claude/nextrep/internal/models"
	"github.com/claude/nextrep/internal/observability"
	"github.com/claude/nextrep/internal/progress"
	"github.com/claude/nextrep/internal/storage"
)

const maxWorkoutBody = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	n, err := s.store.CountExercises(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "exercises": n})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleSearchExercises(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r, 50, 200)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := s.store.SearchExercises(r.Context(), storage.ExerciseFilter{
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		s.serverError(w, "searching exercises", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "exercise")
	if !ok {
		return
	}
	var (
		ex  models.Exercise
		err error
	)
	if s.exercises != nil {
		ex, err = s.exercises.GetExercise(r.Context(), id)
	} else {
		ex, err = s.getExerciseFromStore(r, id)
	}
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		s.serverError(w, "loading exercise", err)
		return
	}
	ex.Instructions = models.ParseInstructions(ex.Description, ex.HowTo)
	writeJSON(w, http.StatusOK, ex)
}

// getExerciseFromStore is used when the server runs without a cache.
func (s *Server) getExerciseFromStore(r *http.Request, id uuid.UUID) (models.Exercise, error) {
	g, ok := s.store.(ExerciseGetter)
	if !ok {
		return models.Exercise{}, errors.New("store cannot load exercises")
	}
	return g.GetExercise(r.Context(), id)
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r, 20, 100)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := s.store.ListWorkouts(r.Context(), userFromContext(r).ID, limit, offset)
	if err != nil {
		s.serverError(w, "listing workouts", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleSaveWorkout(w http.ResponseWriter, r *http.Request) {
	var req models.SaveWorkoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWorkoutBody)).Decode(&req); err != nil {
		observability.RecordWorkoutSave(observability.SaveInvalid, time.Time{})
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		observability.RecordWorkoutSave(observability.SaveInvalid, time.Time{})
		writeValidation(w, err)
		return
	}

	user := userFromContext(r)
	resp, err := s.store.SaveWorkout(r.Context(), user.ID, req)
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		observability.RecordWorkoutSave(observability.SaveInvalid, time.Time{})
		writeValidation(w, verr)
		return
	case err != nil:
		observability.RecordWorkoutSave(observability.SaveError, time.Time{})
		s.log.Error("saving workout", "user", user.Login, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save workout")
		return
	}

	observability.RecordWorkoutSave(observability.SaveOK, resp.CreatedAt)
	s.log.Info("workout saved", "user", user.Login, "workout_id", resp.WorkoutID, "sets", resp.TotalSets)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "workout")
	if !ok {
		return
	}
	detail, err := s.store.GetWorkout(r.Context(), id, userFromContext(r).ID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		s.serverError(w, "loading workout", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "workout")
	if !ok {
		return
	}
	err := s.store.DeleteWorkout(r.Context(), id, userFromContext(r).ID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		s.serverError(w, "deleting workout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWorkoutStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetWorkoutStats(r.Context(), userFromContext(r).ID)
	if err != nil {
		s.serverError(w, "loading workout stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleTrainingSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r, s.opts.Now(), 90)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bucket := r.URL.Query().Get("bucket")
	switch bucket {
	case "":
		bucket = "week"
	case "day", "week", "month":
	default:
		writeError(w, http.StatusBadRequest, "bucket must be day, week or month")
		return
	}
	periods, err := s.store.GetTrainingSummary(r.Context(), userFromContext(r).ID, start, end, bucket)
	if err != nil {
		s.serverError(w, "loading training summary", err)
		return
	}
	writeJSON(w, http.StatusOK, periods)
}

func (s *Server) handleUsedExercises(w http.ResponseWriter, r *http.Request) {
	used, err := s.store.ListUsedExercises(r.Context(), userFromContext(r).ID)
	if err != nil {
		s.serverError(w, "listing used exercises", err)
		return
	}
	writeJSON(w, http.StatusOK, used)
}

func (s *Server) handleExerciseProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "exercise")
	if !ok {
		return
	}
	mt, history, err := s.store.ExerciseHistory(r.Context(), userFromContext(r).ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		s.serverError(w, "loading exercise history", err)
		return
	}
	writeJSON(w, http.StatusOK, progress.Analyze(mt, history, s.opts.Now()))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	in, err := s.store.HomeSnapshot(r.Context(), userFromContext(r).ID)
	if err != nil {
		s.serverError(w, "loading home snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard.Build(in, s.opts.Now(), s.opts.Analytics))
}

func (s *Server) serverError(w http.ResponseWriter, what string, err error) {
	s.log.Error(what, "error", err)
	writeError(w, http.StatusInternalServerError, what+" failed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeValidation reports a rejected payload with the offending field.
func writeValidation(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	body := map[string]string{"error": verr.Error()}
	if verr.Field != "" {
		body["field"] = verr.Field
	}
	writeJSON(w, http.StatusBadRequest, body)
}

func pathID(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+what+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads limit and offset. Limits above max are clamped.
func pagination(r *http.Request, def, maxLimit int) (limit, offset int, err error) {
	limit, offset = def, 0
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit <= 0 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
		if limit > maxLimit {
			limit = maxLimit
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		offset, err = strconv.Atoi(o)
		if err != nil || offset < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

// parseTimeRange reads start and end as RFC 3339 timestamps or dates.
// Without start the range covers the last defaultDays days.
func parseTimeRange(r *http.Request, now time.Time, defaultDays int) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	end = now
	if endStr != "" {
		if end, err = parseTime(endStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end: %w", err)
		}
	}
	if startStr == "" {
		return end.AddDate(0, 0, -defaultDays), end, nil
	}
	if start, err = parseTime(startStr); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start: %w", err)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, errors.New("start must be before end")
	}
	return start, end, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
