package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/claude/nextrep/internal/ingest"
	"github.com/claude/nextrep/internal/models"
	"github.com/claude/nextrep/internal/observability"
	"github.com/claude/nextrep/internal/storage"
)

const maxImportBody = 10 << 20

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context(), userFromContext(r).ID)
	if err != nil {
		s.serverError(w, "loading settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch models.SettingsPatch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWorkoutBody)).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := patch.Validate(); err != nil {
		writeValidation(w, err)
		return
	}
	settings, err := s.store.UpdateSettings(r.Context(), userFromContext(r).ID, patch)
	if err != nil {
		s.serverError(w, "updating settings", err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleAlphaImport(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	start := time.Now()

	result, err := s.alpha.Ingest(r.Context(), http.MaxBytesReader(w, r.Body, maxImportBody), user.ID)
	s.logImport(user.ID, "alpha", result, err, time.Since(start))
	if err != nil {
		s.log.Error("alpha import error", "user", user.Login, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	observability.RecordImported("alpha", result.SetsSaved)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.store.QueryImportLogs(r.Context(), userFromContext(r).ID, limit)
	if err != nil {
		s.serverError(w, "querying import logs", err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// logImport records an import operation's result to the import_logs table.
func (s *Server) logImport(uid uuid.UUID, source string, result *ingest.Result, importErr error, elapsed time.Duration) {
	ctx, cancel := contextWithTimeout()
	defer cancel()

	entry := storage.NewImportLog(uid, source, result, importErr, elapsed)
	if _, err := s.store.InsertImportLog(ctx, entry); err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
	}
}

// contextWithTimeout returns a background context with a 5-second timeout for async logging.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
}
