package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/BTreeMap/LifeRank/internal/models"
)

// requestIDHeader carries the per-request correlation ID.
const requestIDHeader = "X-Request-ID"

// requestIDMiddleware assigns each request a correlation ID, echoes it in the
// response headers, and logs request start and completion.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		slog.Debug("Server: request received", "requestID", requestID, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// authenticate resolves the bearer token on the request to an active user.
//
// On failure it writes the error response itself and returns nil: 401 for a
// missing or invalid token or an unknown account, 400 for a deactivated one.
// Handlers treat a nil return as "response already sent".
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) *models.User {
	user := s.resolveUser(w, r)
	if user == nil {
		return nil
	}
	if !user.IsActive {
		slog.Warn("Server.authenticate: inactive account", "userID", user.ID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Inactive user"))
		return nil
	}
	return user
}

// resolveUser verifies the bearer token and loads its account without
// checking the active flag. Reactivation needs to accept tokens from
// deactivated accounts.
func (s *Server) resolveUser(w http.ResponseWriter, r *http.Request) *models.User {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		slog.Debug("Server.resolveUser: missing bearer token", "path", r.URL.Path)
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSONResponse(w, http.StatusUnauthorized, models.Error("Could not validate credentials"))
		return nil
	}

	email, err := s.auth.VerifyToken(token)
	if err != nil {
		slog.Debug("Server.resolveUser: token verification failed", "error", err, "path", r.URL.Path)
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSONResponse(w, http.StatusUnauthorized, models.Error("Could not validate credentials"))
		return nil
	}

	user, err := s.st.GetUserByEmail(email)
	if err != nil {
		slog.Error("Server.resolveUser: user lookup failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to look up user"))
		return nil
	}
	if user == nil {
		slog.Warn("Server.resolveUser: token subject has no account", "email", email)
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSONResponse(w, http.StatusUnauthorized, models.Error("Could not validate credentials"))
		return nil
	}
	return user
}
