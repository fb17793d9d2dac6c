package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/BTreeMap/LifeRank/internal/models"
)

// goalsHandler lists and creates goals (GET, POST /goals).
func (s *Server) goalsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.goalsHandler: processing goals request", "method", r.Method, "path", r.URL.Path)

	switch r.Method {
	case http.MethodGet:
		user := s.authenticate(w, r)
		if user == nil {
			return
		}
		goals, err := s.st.ListGoals(user.ID)
		if err != nil {
			slog.Error("Server.goalsHandler: listing failed", "error", err, "userID", user.ID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load goals"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(goals))

	case http.MethodPost:
		user := s.authenticate(w, r)
		if user == nil {
			return
		}
		var req models.GoalCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Warn("Server.goalsHandler: failed to decode JSON", "error", err)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
			return
		}
		goal, err := s.scores.CreateGoal(user.ID, req)
		if err != nil {
			if errors.Is(err, models.ErrInvalidCategory) || errors.Is(err, models.ErrEmptyGoalTitle) ||
				errors.Is(err, models.ErrGoalTitleTooLong) || errors.Is(err, models.ErrDescriptionTooLong) {
				slog.Warn("Server.goalsHandler: validation failed", "error", err)
				writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
				return
			}
			slog.Error("Server.goalsHandler: creation failed", "error", err, "userID", user.ID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create goal"))
			return
		}
		slog.Info("Server.goalsHandler: goal created", "goalID", goal.ID, "userID", user.ID)
		writeJSONResponse(w, http.StatusCreated, models.Success(goal))

	default:
		w.Header().Set("Allow", "GET, POST")
		slog.Warn("Server.goalsHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// goalProgressHandler updates goal progress (PUT /goals/{id}/progress).
func (s *Server) goalProgressHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.goalProgressHandler: processing progress update", "method", r.Method, "path", r.URL.Path)

	goalID, ok := parseGoalProgressPath(r.URL.Path)
	if !ok {
		slog.Warn("Server.goalProgressHandler: unrecognized path", "path", r.URL.Path)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Not found"))
		return
	}

	if r.Method != http.MethodPut {
		w.Header().Set("Allow", http.MethodPut)
		slog.Warn("Server.goalProgressHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user := s.authenticate(w, r)
	if user == nil {
		return
	}

	var req models.GoalProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.goalProgressHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	goal, err := s.scores.UpdateGoalProgress(user.ID, goalID, req.Progress)
	if err != nil {
		if errors.Is(err, models.ErrGoalNotFound) {
			slog.Warn("Server.goalProgressHandler: goal not found", "goalID", goalID, "userID", user.ID)
			writeJSONResponse(w, http.StatusNotFound, models.Error("Goal not found"))
			return
		}
		slog.Error("Server.goalProgressHandler: update failed", "error", err, "goalID", goalID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update goal"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(goal))
}

// parseGoalProgressPath extracts the goal ID from /goals/{id}/progress.
func parseGoalProgressPath(path string) (int64, bool) {
	rest, ok := strings.CutPrefix(path, "/goals/")
	if !ok {
		return 0, false
	}
	idPart, ok := strings.CutSuffix(rest, "/progress")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
