package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
// Requests without a user in their context act as defaultUser.
func New(ds DataSource, defaultUser uuid.UUID, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("NextRep", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("NextRep strength training server. Query logged workouts, per-exercise progress and personal records, and the home dashboard. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, defaultUser: defaultUser, now: time.Now, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetExerciseProgress, Handler: h.getExerciseProgress},
		server.ServerTool{Tool: toolGetHomeSummary, Handler: h.getHomeSummary},
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
		server.ServerTool{Tool: toolListUsedExercises, Handler: h.listUsedExercises},
		server.ServerTool{Tool: toolGetTrainingSummary, Handler: h.getTrainingSummary},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds          DataSource
	defaultUser uuid.UUID
	now         func() time.Time
	log         *slog.Logger
}

func (h *handlers) user(ctx context.Context) uuid.UUID {
	if id, ok := UserIDFromContext(ctx); ok {
		return id
	}
	return h.defaultUser
}

// --- Resource definitions ---

var resRecentWorkouts = mcp.NewResource(
	"nextrep://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Workouts from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)
