package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sallamaty/rounds-console/internal/health"
	"github.com/sallamaty/rounds-console/internal/session"
	"github.com/sallamaty/rounds-console/pkg/client"
	"github.com/sallamaty/rounds-console/pkg/models"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeError(w, status, &apiError{Code: code, Message: message})
}

func writeError(w http.ResponseWriter, status int, e *apiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(apiResponse{Success: false, Error: e}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondUpstreamError maps a backend or validation failure onto the
// console's error envelope
func respondUpstreamError(w http.ResponseWriter, r *http.Request, action string, err error) {
	var validationErr *models.ValidationError
	var apiErr *client.APIError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, &apiError{
			Code:    "validation_error",
			Message: validationErr.Message,
			Field:   validationErr.Field,
		})
	case client.IsSessionExpired(err):
		respondError(w, http.StatusUnauthorized, "session_expired", err.Error())
	case errors.As(err, &apiErr):
		respondError(w, apiErr.Status, "upstream_error", err.Error())
	case client.IsNetwork(err):
		slog.Warn("backend unreachable", "action", action, "error", errors.Unwrap(err))
		respondError(w, http.StatusBadGateway, "upstream_unreachable", err.Error())
	default:
		slog.Error("request failed", "action", action, "error", err, "path", r.URL.Path)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to "+action)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	statuses, ready := s.health.CheckAll(r.Context())
	if !ready {
		for _, st := range statuses {
			if !st.Healthy {
				slog.Warn("dependency not ready", "name", st.Name, "error", st.Error)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(apiResponse{
			Success: false,
			Data:    readiness{Status: "not_ready", Checks: statuses},
			Error:   &apiError{Code: "not_ready", Message: "service not ready"},
		})
		return
	}

	respondJSON(w, http.StatusOK, readiness{Status: "ready", Checks: statuses})
}

type readiness struct {
	Status string          `json:"status"`
	Checks []health.Status `json:"checks"`
}

// Auth handlers

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	models.RegisterRequest
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rs := SessionFromContext(r.Context())
	user, err := rs.Session.SignIn(r.Context(), rs.Queries.Client(), req.Email, req.Password)
	if err != nil {
		respondUpstreamError(w, r, "sign in", err)
		return
	}

	slog.Info("user signed in", "user_id", user.ID, "session", maskID(rs.ID))
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.RegisterRequest.ConfirmPassword = req.ConfirmPassword

	if err := req.RegisterRequest.Validate(); err != nil {
		respondUpstreamError(w, r, "register", err)
		return
	}

	rs := SessionFromContext(r.Context())
	resp, err := rs.Queries.Client().Register(r.Context(), req.RegisterRequest)
	if err != nil {
		respondUpstreamError(w, r, "register", err)
		return
	}
	if err := rs.Session.Adopt(r.Context(), resp); err != nil {
		respondUpstreamError(w, r, "register", err)
		return
	}

	slog.Info("user registered", "user_id", resp.User.ID, "session", maskID(rs.ID))
	respondJSON(w, http.StatusCreated, resp.User)
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.GoogleSignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Credential == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "credential is required")
		return
	}

	rs := SessionFromContext(r.Context())
	resp, err := rs.Queries.Client().GoogleSignIn(r.Context(), req.Credential)
	if err != nil {
		respondUpstreamError(w, r, "sign in with google", err)
		return
	}
	if err := rs.Session.Adopt(r.Context(), resp); err != nil {
		respondUpstreamError(w, r, "sign in with google", err)
		return
	}

	respondJSON(w, http.StatusOK, resp.User)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	rs := SessionFromContext(r.Context())
	if err := rs.Session.SignOut(r.Context()); err != nil {
		slog.Error("failed to sign out", "error", err, "session", maskID(rs.ID))
	}
	if err := s.sessions.Destroy(r.Context(), rs.ID); err != nil {
		slog.Error("failed to destroy session", "error", err, "session", maskID(rs.ID))
	}
	s.clearSessionCookie(w)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "signed out",
	})
}

type meResponse struct {
	User    *models.User `json:"user"`
	Expired bool         `json:"expired"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	rs := SessionFromContext(r.Context())
	user, err := rs.Session.User(r.Context())
	if errors.Is(err, session.ErrNoSession) {
		respondError(w, http.StatusUnauthorized, "not_authenticated", "sign in required")
		return
	}
	if err != nil {
		respondUpstreamError(w, r, "load user", err)
		return
	}

	expired, err := rs.Session.Expired(r.Context(), s.now())
	if err != nil {
		respondUpstreamError(w, r, "load user", err)
		return
	}

	respondJSON(w, http.StatusOK, meResponse{User: user, Expired: expired})
}
