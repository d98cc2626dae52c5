package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/apperrors"
	"github.com/weavenet/weave-api/pkg/auth"
	"github.com/weavenet/weave-api/pkg/services"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	profileService services.ProfileService
	logger         *zap.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(profileService services.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         logger,
	}
}

// RegisterRoutes registers the profile routes.
func (h *ProfileHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /profile", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /profile", authMiddleware.RequireAuth(h.Update))
}

// Get handles GET /profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h.logger)
	if !ok {
		return
	}

	profile, err := h.profileService.Get(r.Context(), caller)
	if err != nil {
		h.logger.Error("Failed to load profile", zap.Int64("user_id", caller), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to load profile")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, profile)
}

// Update handles PUT /profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h.logger)
	if !ok {
		return
	}

	var input services.ProfileInput
	if !decodeBody(w, r, h.logger, &input) {
		return
	}

	profile, err := h.profileService.Update(r.Context(), caller, input)
	if err != nil {
		if writeValidationError(w, h.logger, err) {
			return
		}
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			writeError(w, h.logger, http.StatusBadRequest, "slug_taken", "That slug is already in use")
			return
		}
		h.logger.Error("Failed to update profile", zap.Int64("user_id", caller), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to update profile")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, profile)
}
