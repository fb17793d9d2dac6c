package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/LifeRank/internal/models"
)

// registerHandler creates a new account (POST /auth/register).
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.registerHandler: processing registration", "method", r.Method, "path", r.URL.Path)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.registerHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.registerHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.registerHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	hashed, err := s.auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("Server.registerHandler: password hashing failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create account"))
		return
	}

	user := &models.User{
		Email:          req.Email,
		Name:           req.Name,
		HashedPassword: hashed,
		IsActive:       true,
	}
	if err := s.st.CreateUser(user); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			slog.Warn("Server.registerHandler: email already registered", "email", req.Email)
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Email already registered"))
			return
		}
		slog.Error("Server.registerHandler: failed to create user", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create account"))
		return
	}

	slog.Info("Server.registerHandler: account created", "userID", user.ID)
	writeJSONResponse(w, http.StatusCreated, models.Success(user))
}

// loginHandler exchanges credentials for an access token (POST /auth/login).
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.loginHandler: processing login", "method", r.Method, "path", r.URL.Path)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.loginHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.loginHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.loginHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	user, err := s.st.GetUserByEmail(req.Email)
	if err != nil {
		slog.Error("Server.loginHandler: user lookup failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to look up user"))
		return
	}
	if user == nil || !s.auth.VerifyPassword(user.HashedPassword, req.Password) {
		slog.Warn("Server.loginHandler: invalid credentials", "email", req.Email)
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSONResponse(w, http.StatusUnauthorized, models.Error("Incorrect email or password"))
		return
	}

	token, err := s.auth.CreateAccessToken(user.Email)
	if err != nil {
		slog.Error("Server.loginHandler: token creation failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create access token"))
		return
	}

	slog.Info("Server.loginHandler: login succeeded", "userID", user.ID)
	writeJSONResponse(w, http.StatusOK, models.Success(models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	}))
}

// verifyTokenHandler checks the bearer token and returns its subject
// (POST /auth/verify-token).
func (s *Server) verifyTokenHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.verifyTokenHandler: processing verification", "method", r.Method, "path", r.URL.Path)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.verifyTokenHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user := s.authenticate(w, r)
	if user == nil {
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"valid": true,
		"email": user.Email,
	}))
}
