package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/diasporalink/backend/internal/auth"
	"github.com/diasporalink/backend/internal/logging"
	"github.com/diasporalink/backend/internal/models"
	"github.com/diasporalink/backend/internal/repositories"
)

// AdminHandler implements the admin console session and registration endpoints.
type AdminHandler struct {
	Sessions      SessionManager
	Registrations RegistrationStore
}

// Login handles POST /api/v1/admin/login requests.
func (h AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "authentication services unavailable")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "password is required")
		return
	}

	tokens, err := h.Sessions.Login(ctx, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Warn("admin login rejected")
			respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		logger.Error("failed to issue session", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{Tokens: tokens})
}

// Refresh exchanges a refresh token for a new session.
func (h AdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	req, ok := decodeRefreshRequest(w, r)
	if !ok {
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			status = http.StatusUnauthorized
		}
		logger.Warn("refresh failed", "error", err, "status", status)
		respondError(ctx, w, status, "unable to refresh session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{Tokens: tokens})
}

// Logout revokes a refresh token.
func (h AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.Sessions == nil {
		respondError(r.Context(), w, http.StatusInternalServerError, "session service unavailable")
		return
	}

	req, ok := decodeRefreshRequest(w, r)
	if !ok {
		return
	}

	h.Sessions.Revoke(r.Context(), req.RefreshToken)
	w.WriteHeader(http.StatusNoContent)
}

// ListRegistrations handles GET /api/v1/admin/registrations[?status=].
func (h AdminHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := models.RegistrationStatus(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))))
	if status != "" && !status.Valid() {
		respondError(ctx, w, http.StatusBadRequest, "status must be one of pending, approved or rejected")
		return
	}

	registrations, err := h.Registrations.List(ctx, status)
	if err != nil {
		logging.FromContext(ctx).Error("list registrations failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load registrations")
		return
	}

	respondJSON(ctx, w, http.StatusOK, registrationsResponse{Registrations: registrations})
}

// GetRegistration handles GET /api/v1/admin/registrations/{id}.
func (h AdminHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reg, err := h.Registrations.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		h.registrationError(w, r, err, "failed to load registration")
		return
	}

	respondJSON(ctx, w, http.StatusOK, reg)
}

// UpdateRegistrationStatus handles PATCH /api/v1/admin/registrations/{id}.
func (h AdminHandler) UpdateRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := models.RegistrationStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		respondError(ctx, w, http.StatusBadRequest, "status must be one of pending, approved or rejected")
		return
	}

	reg, err := h.Registrations.UpdateStatus(ctx, r.PathValue("id"), status)
	if err != nil {
		h.registrationError(w, r, err, "failed to update registration")
		return
	}

	logging.FromContext(ctx).Info("registration status updated", "registration_id", reg.ID, "status", reg.Status)
	respondJSON(ctx, w, http.StatusOK, reg)
}

// DeleteRegistration handles DELETE /api/v1/admin/registrations/{id}.
func (h AdminHandler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	if err := h.Registrations.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.registrationError(w, r, err, "failed to delete registration")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h AdminHandler) registrationError(w http.ResponseWriter, r *http.Request, err error, message string) {
	ctx := r.Context()
	if errors.Is(err, repositories.ErrNotFound) {
		respondError(ctx, w, http.StatusNotFound, "registration not found")
		return
	}
	logging.FromContext(ctx).Error(message, "error", err, "registration_id", r.PathValue("id"))
	respondError(ctx, w, http.StatusInternalServerError, message)
}

func decodeRefreshRequest(w http.ResponseWriter, r *http.Request) (refreshRequest, bool) {
	ctx := r.Context()
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(ctx).Warn("invalid refresh payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return req, false
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		respondError(ctx, w, http.StatusBadRequest, "refresh token is required")
		return req, false
	}
	return req, true
}

type loginRequest struct {
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type authResponse struct {
	Tokens models.SessionTokens `json:"tokens"`
}

type registrationsResponse struct {
	Registrations []models.Registration `json:"registrations"`
}
