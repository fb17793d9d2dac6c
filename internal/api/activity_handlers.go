package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/LifeRank/internal/models"
)

// activityHandler lists and records activities (GET, POST /activity).
func (s *Server) activityHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.activityHandler: processing activity request", "method", r.Method, "path", r.URL.Path)

	switch r.Method {
	case http.MethodGet:
		user := s.authenticate(w, r)
		if user == nil {
			return
		}
		limit := parseLimitParam(r, defaultActivityLimit)
		entries, err := s.st.ListActivityLogs(user.ID, limit)
		if err != nil {
			slog.Error("Server.activityHandler: listing failed", "error", err, "userID", user.ID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load activity log"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(entries))

	case http.MethodPost:
		user := s.authenticate(w, r)
		if user == nil {
			return
		}
		var req models.ActivityLogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("Server.activityHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		entry, err := s.scores.LogActivity(user.ID, req)
		if err != nil {
			if errors.Is(err, models.ErrInvalidCategory) || errors.Is(err, models.ErrDescriptionTooLong) {
				slog.Warn("Server.activityHandler: validation failed", "error", err)
				writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
				return
			}
			// LogActivity also rejects empty descriptions with a plain error.
			if req.Description == "" {
				writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
				return
			}
			slog.Error("Server.activityHandler: logging failed", "error", err, "userID", user.ID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to record activity"))
			return
		}
		slog.Info("Server.activityHandler: activity recorded", "logID", entry.ID, "userID", user.ID)
		writeJSONResponse(w, http.StatusCreated, models.Success(entry))

	default:
		w.Header().Set("Allow", "GET, POST")
		slog.Warn("Server.activityHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
