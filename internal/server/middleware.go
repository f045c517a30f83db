package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/nextrep/internal/auth"
	"github.com/claude/nextrep/internal/models"
	"github.com/claude/nextrep/internal/observability"
)

type contextKey int

const (
	userInfoKey contextKey = iota
	userKey
)

// UserInfo is the identity of the caller as reported by /api/v1/me.
type UserInfo struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

const devDisplayName = "Local Dev User"

var errUnauthenticated = errors.New("no identity: use Tailscale or a bearer token")

// identify resolves the caller and makes sure a user row exists for them.
// A bearer token wins over Tailscale, which wins over the dev user.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := s.identityOf(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		user, err := s.store.GetOrCreateUser(r.Context(), info.Login, info.DisplayName)
		if err != nil {
			s.log.Error("resolving user", "login", info.Login, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to resolve user")
			return
		}
		ctx := context.WithValue(r.Context(), userInfoKey, info)
		ctx = context.WithValue(ctx, userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) identityOf(r *http.Request) (UserInfo, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		if !s.opts.Auth.Enabled() {
			return UserInfo{}, errors.New("bearer tokens are not enabled")
		}
		id, err := auth.FromHeader(h, s.opts.Auth)
		if err != nil {
			return UserInfo{}, err
		}
		return UserInfo{Login: id.Login, DisplayName: id.DisplayName}, nil
	}

	if s.whois != nil {
		who, err := s.whois.WhoIs(r.Context(), r.RemoteAddr)
		if err == nil && who != nil && who.UserProfile != nil && who.UserProfile.LoginName != "" {
			return UserInfo{Login: who.UserProfile.LoginName, DisplayName: who.UserProfile.DisplayName}, nil
		}
		if err != nil {
			s.log.Warn("tailscale whois failed", "remote", r.RemoteAddr, "error", err)
		}
	}

	if s.opts.DevUser != "" {
		return UserInfo{Login: s.opts.DevUser, DisplayName: devDisplayName}, nil
	}
	return UserInfo{}, errUnauthenticated
}

func userInfoFromContext(r *http.Request) UserInfo {
	if info, ok := r.Context().Value(userInfoKey).(UserInfo); ok {
		return info
	}
	return UserInfo{}
}

// userFromContext returns the user stored by identify. Handlers are only
// mounted behind identify, so the zero value never reaches storage.
func userFromContext(r *http.Request) models.User {
	u, _ := r.Context().Value(userKey).(models.User)
	return u
}

// UserFromContext returns the user resolved by the identity middleware, for
// handlers mounted from outside this package.
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// APIKeyAuth returns middleware that validates the X-API-Key header.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing API key")
				return
			}
			if apiKey == "" || key != apiKey {
				writeError(w, http.StatusForbidden, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogging returns middleware that logs each request and records it
// in the request metrics under its route pattern.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			elapsed := time.Since(start)

			var route string
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			observability.ObserveRequest(route, r.Method, sw.status, elapsed)

			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", elapsed.String(),
			)
		})
	}
}

// CORS adds permissive CORS headers for local development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses (MCP event streams) working through the
// logging middleware.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
