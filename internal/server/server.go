package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"tailscale.com/client/tailscale/apitype"

	"github.com/claude/nextrep/internal/auth"
	"github.com/claude/nextrep/internal/dashboard"
	"github.com/claude/nextrep/internal/ingest/alpha"
	"github.com/claude/nextrep/internal/models"
	"github.com/claude/nextrep/internal/observability"
	"github.com/claude/nextrep/internal/storage"
)

// Store is the persistence the handlers run on. *storage.DB implements it.
type Store interface {
	Ping(ctx context.Context) error
	GetOrCreateUser(ctx context.Context, login, displayName string) (models.User, error)

	SearchExercises(ctx context.Context, f storage.ExerciseFilter) (models.Page[models.Exercise], error)
	CountExercises(ctx context.Context) (int, error)

	SaveWorkout(ctx context.Context, userID uuid.UUID, req models.SaveWorkoutRequest) (models.SaveWorkoutResponse, error)
	ListWorkouts(ctx context.Context, userID uuid.UUID, limit, offset int) (models.Page[models.SessionListItem], error)
	GetWorkout(ctx context.Context, workoutID, userID uuid.UUID) (*models.SessionDetail, error)
	DeleteWorkout(ctx context.Context, workoutID, userID uuid.UUID) error
	GetWorkoutStats(ctx context.Context, userID uuid.UUID) (models.WorkoutStats, error)
	GetTrainingSummary(ctx context.Context, userID uuid.UUID, start, end time.Time, bucket string) ([]models.TrainingSummaryPeriod, error)

	ExerciseHistory(ctx context.Context, userID, exerciseID uuid.UUID) (models.MeasurementType, []models.HistorySet, error)
	HomeSnapshot(ctx context.Context, userID uuid.UUID) (dashboard.Input, error)
	ListUsedExercises(ctx context.Context, userID uuid.UUID) ([]models.UsedExercise, error)

	GetSettings(ctx context.Context, userID uuid.UUID) (models.UserSettings, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, p models.SettingsPatch) (models.UserSettings, error)

	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, userID uuid.UUID, limit int) ([]storage.ImportLog, error)
}

// ExerciseGetter loads a single catalog entry, usually through the cache.
type ExerciseGetter interface {
	GetExercise(ctx context.Context, id uuid.UUID) (models.Exercise, error)
}

// WhoIser resolves the Tailscale identity behind a remote address.
type WhoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// Options configure a Server.
type Options struct {
	// APIKey protects the import endpoints.
	APIKey string
	// DevUser is the login used when no other identity is available.
	DevUser   string
	Auth      auth.Config
	Analytics dashboard.Options
	// Now defaults to time.Now.
	Now func() time.Time
	// MCP, when set, is served at /mcp behind the identity middleware.
	MCP http.Handler
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     Store
	exercises ExerciseGetter
	alpha     *alpha.Provider
	opts      Options
	whois     WhoIser
	log       *slog.Logger
	router    chi.Router
}

// New creates a new Server with all routes configured. A nil exercises
// getter reads the catalog straight from the store.
func New(store Store, exercises ExerciseGetter, alphaProvider *alpha.Provider, opts Options, log *slog.Logger) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		store:     store,
		exercises: exercises,
		alpha:     alphaProvider,
		opts:      opts,
		log:       log,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale enables identity lookup through the tailnet.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", observability.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identify)

		r.Get("/me", s.handleMe)
		r.Get("/me/settings", s.handleGetSettings)
		r.Patch("/me/settings", s.handleUpdateSettings)

		r.Get("/exercises", s.handleSearchExercises)
		r.Get("/exercises/{id}", s.handleGetExercise)

		r.Get("/workouts", s.handleListWorkouts)
		r.Post("/workouts", s.handleSaveWorkout)
		r.Get("/workouts/stats", s.handleWorkoutStats)
		r.Get("/workouts/summary", s.handleTrainingSummary)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Delete("/workouts/{id}", s.handleDeleteWorkout)

		r.Get("/progress/exercises", s.handleUsedExercises)
		r.Get("/progress/exercises/{id}", s.handleExerciseProgress)
		r.Get("/home", s.handleHome)

		r.Get("/import/logs", s.handleImportLogs)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.opts.APIKey))
			r.Post("/import/alpha", s.handleAlphaImport)
		})
	})

	if s.opts.MCP != nil {
		s.router.Group(func(r chi.Router) {
			r.Use(s.identify)
			r.Handle("/mcp", s.opts.MCP)
		})
	}
}
