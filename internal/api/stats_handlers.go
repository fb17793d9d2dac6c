package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/BTreeMap/LifeRank/internal/models"
)

// Default page sizes for history listings.
const (
	defaultScoreHistoryLimit = 10
	defaultActivityLimit     = 20
	defaultChatHistoryLimit  = 50
)

// parseLimitParam reads the "limit" query parameter, falling back to def for
// missing or unparseable values. Negative values are treated as unlimited.
func parseLimitParam(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Server.parseLimitParam: invalid limit, using default", "limit", raw, "default", def)
		return def
	}
	if limit < 0 {
		return 0
	}
	return limit
}

// statsHandler returns the user's current life stats (GET /stats), creating
// the default row on first access.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.statsHandler: processing stats request", "method", r.Method, "path", r.URL.Path)

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.statsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user := s.authenticate(w, r)
	if user == nil {
		return
	}

	stats, err := s.scores.GetOrCreateStats(user.ID)
	if err != nil {
		slog.Error("Server.statsHandler: failed to load stats", "error", err, "userID", user.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load stats"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(stats))
}

// statsUpdateHandler changes one category score (POST /stats/update).
func (s *Server) statsUpdateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.statsUpdateHandler: processing score update", "method", r.Method, "path", r.URL.Path)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.statsUpdateHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user := s.authenticate(w, r)
	if user == nil {
		return
	}

	var req models.ScoreUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.statsUpdateHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.statsUpdateHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	stats, upd, err := s.scores.UpdateScore(user.ID, req.Category, req.Score, req.Reason)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCategory) || errors.Is(err, models.ErrScoreOutOfRange) {
			writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
			return
		}
		slog.Error("Server.statsUpdateHandler: update failed", "error", err, "userID", user.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update score"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"stats":  stats,
		"update": upd,
	}))
}

// statsHistoryHandler lists recent score updates, newest first
// (GET /stats/history?limit=N).
func (s *Server) statsHistoryHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.statsHistoryHandler: processing history request", "method", r.Method, "path", r.URL.Path)

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		slog.Warn("Server.statsHistoryHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user := s.authenticate(w, r)
	if user == nil {
		return
	}

	limit := parseLimitParam(r, defaultScoreHistoryLimit)
	updates, err := s.st.ListScoreUpdates(user.ID, limit)
	if err != nil {
		slog.Error("Server.statsHistoryHandler: listing failed", "error", err, "userID", user.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load score history"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(updates))
}
