package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/LifeRank/internal/models"
)

// userMeHandler serves the authenticated user's profile (GET, PUT, DELETE
// /users/me). DELETE deactivates the account rather than removing it, so
// score history and chat logs survive.
func (s *Server) userMeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.userMeHandler: processing profile request", "method", r.Method, "path", r.URL.Path)

	switch r.Method {
	case http.MethodGet:
		user := s.authenticate(w, r)
		if user == nil {
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(user))

	case http.MethodPut:
		s.updateProfile(w, r)

	case http.MethodDelete:
		user := s.authenticate(w, r)
		if user == nil {
			return
		}
		user.IsActive = false
		if err := s.st.UpdateUser(user); err != nil {
			slog.Error("Server.userMeHandler: deactivation failed", "error", err, "userID", user.ID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to deactivate account"))
			return
		}
		slog.Info("Server.userMeHandler: account deactivated", "userID", user.ID)
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Account deactivated", nil))

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		slog.Warn("Server.userMeHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// updateProfile applies a partial profile update. Nil fields are unchanged.
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	user := s.authenticate(w, r)
	if user == nil {
		return
	}

	var req models.UserUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.updateProfile: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Age != nil {
		user.Age = req.Age
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Location != nil {
		user.Location = *req.Location
	}
	if req.Email != nil {
		if *req.Email == "" {
			writeJSONResponse(w, http.StatusBadRequest, models.Error(models.ErrEmptyEmail.Error()))
			return
		}
		user.Email = *req.Email
	}

	if err := s.st.UpdateUser(user); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			slog.Warn("Server.updateProfile: email already registered", "userID", user.ID)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Email already registered"))
			return
		}
		slog.Error("Server.updateProfile: update failed", "error", err, "userID", user.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to update profile"))
		return
	}

	slog.Info("Server.updateProfile: profile updated", "userID", user.ID)
	writeJSONResponse(w, http.StatusOK, models.Success(user))
}

// reactivateHandler re-enables a deactivated account (POST /users/me/reactivate).
// It accepts tokens from inactive accounts; that is the whole point.
func (s *Server) reactivateHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.reactivateHandler: processing reactivation", "method", r.Method, "path", r.URL.Path)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.reactivateHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user := s.resolveUser(w, r)
	if user == nil {
		return
	}
	if user.IsActive {
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Account already active", user))
		return
	}

	user.IsActive = true
	if err := s.st.UpdateUser(user); err != nil {
		slog.Error("Server.reactivateHandler: reactivation failed", "error", err, "userID", user.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to reactivate account"))
		return
	}
	slog.Info("Server.reactivateHandler: account reactivated", "userID", user.ID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Account reactivated", user))
}
