package mcp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/nextrep/internal/client"
	"github.com/claude/nextrep/internal/models"
	"github.com/claude/nextrep/internal/storage"
)

// defaultTimeRange returns start/end defaulting to the last defaultDays days.
func defaultTimeRange(startStr, endStr string, now time.Time, defaultDays int) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = now
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -defaultDays)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

func notFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound) || client.IsNotFound(err)
}

// --- Tool definitions ---

var toolGetExerciseProgress = mcp.NewTool("get_exercise_progress",
	mcp.WithDescription("Progress report for one exercise: personal record, the last five sessions (best set and volume) and the change over the last 30 days. Identify the exercise by ID or by name."),
	mcp.WithString("exercise_id", mcp.Description("Exercise UUID")),
	mcp.WithString("exercise", mcp.Description("Exercise name (case-insensitive, partial match among exercises the user has logged)")),
)

var toolGetHomeSummary = mcp.NewTool("get_home_summary",
	mcp.WithDescription("Home dashboard: streak, sessions this week, month comparison, suggested focus for today and the most recent personal record."),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List logged workouts, newest first, with total volume, set count and duration."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts (1-100). Defaults to 10.")),
	mcp.WithNumber("offset", mcp.Description("Number of workouts to skip. Defaults to 0.")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Full detail of one workout: exercises in order with every set (weight, reps, seconds, completed)."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout UUID")),
)

var toolListUsedExercises = mcp.NewTool("list_used_exercises",
	mcp.WithDescription("Exercises the user has logged, most recently used first, with usage count and measurement type."),
)

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Training volume per period: sessions, completed sets, total reps and tonnage."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 90 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to 'week'."), mcp.Enum("day", "week", "month")),
)

// --- Tool handlers ---

func (h *handlers) getExerciseProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := h.user(ctx)

	id, name, err := h.resolveExercise(ctx, uid, req.GetString("exercise_id", ""), req.GetString("exercise", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := h.ds.ExerciseProgress(ctx, uid, id)
	if notFound(err) {
		return mcp.NewToolResultError("exercise not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_exercise_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"exerciseId":   id,
		"exerciseName": name,
		"progress":     res,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// resolveExercise picks the exercise by ID, or by name among the exercises
// the user has logged. An exact name match wins over a partial one.
func (h *handlers) resolveExercise(ctx context.Context, uid uuid.UUID, idStr, name string) (uuid.UUID, string, error) {
	if idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			return uuid.Nil, "", errors.New("exercise_id must be a UUID")
		}
		return id, "", nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, "", errors.New("exercise_id or exercise is required")
	}

	used, err := h.ds.ListUsedExercises(ctx, uid)
	if err != nil {
		return uuid.Nil, "", errors.New("query failed: " + err.Error())
	}
	var partial []models.UsedExercise
	for _, u := range used {
		if strings.EqualFold(u.Name, name) {
			return u.ExerciseID, u.Name, nil
		}
		if strings.Contains(strings.ToLower(u.Name), strings.ToLower(name)) {
			partial = append(partial, u)
		}
	}
	switch len(partial) {
	case 0:
		return uuid.Nil, "", errors.New("no logged exercise matches " + name)
	case 1:
		return partial[0].ExerciseID, partial[0].Name, nil
	}
	names := make([]string, len(partial))
	for i, u := range partial {
		names[i] = u.Name
	}
	return uuid.Nil, "", errors.New("ambiguous exercise name, candidates: " + strings.Join(names, ", "))
}

func (h *handlers) getHomeSummary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	home, err := h.ds.Home(ctx, h.user(ctx))
	if err != nil {
		h.log.Error("mcp get_home_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(home)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 10)
	if limit < 1 || limit > 100 {
		return mcp.NewToolResultError("limit must be between 1 and 100"), nil
	}
	offset := req.GetInt("offset", 0)
	if offset < 0 {
		return mcp.NewToolResultError("offset must not be negative"), nil
	}

	page, err := h.ds.ListWorkouts(ctx, h.user(ctx), limit, offset)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(page)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("id must be a UUID"), nil
	}

	detail, err := h.ds.GetWorkout(ctx, h.user(ctx), id)
	if notFound(err) {
		return mcp.NewToolResultError("workout not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(detail)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listUsedExercises(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	used, err := h.ds.ListUsedExercises(ctx, h.user(ctx))
	if err != nil {
		h.log.Error("mcp list_used_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(used)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""), h.now(), 90)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	bucket := req.GetString("bucket", "week")

	periods, err := h.ds.GetTrainingSummary(ctx, h.user(ctx), start, end, bucket)
	if err != nil {
		h.log.Error("mcp get_training_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(periods)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
