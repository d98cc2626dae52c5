package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/apperrors"
	"github.com/weavenet/weave-api/pkg/auth"
	"github.com/weavenet/weave-api/pkg/models"
	"github.com/weavenet/weave-api/pkg/services"
)

// MutualCountResponse is the body of GET /connections/mutual/{userId}.
type MutualCountResponse struct {
	UserID      int64 `json:"user_id"`
	MutualCount int   `json:"mutual_count"`
}

// ConnectionsHandler handles connection request and recommendation endpoints.
type ConnectionsHandler struct {
	connService services.ConnectionService
	recService  services.RecommendationService
	logger      *zap.Logger
}

// NewConnectionsHandler creates a new connections handler.
func NewConnectionsHandler(
	connService services.ConnectionService,
	recService services.RecommendationService,
	logger *zap.Logger,
) *ConnectionsHandler {
	return &ConnectionsHandler{
		connService: connService,
		recService:  recService,
		logger:      logger,
	}
}

// RegisterRoutes registers the connection routes. All require authentication.
func (h *ConnectionsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /connections/send/{userId}", authMiddleware.RequireAuth(h.Send))
	mux.HandleFunc("GET /connections/incoming", authMiddleware.RequireAuth(h.ListIncoming))
	mux.HandleFunc("PUT /connections/accept/{connectionId}", authMiddleware.RequireAuth(h.Accept))
	mux.HandleFunc("PUT /connections/decline/{connectionId}", authMiddleware.RequireAuth(h.Decline))
	mux.HandleFunc("GET /connections/recommend", authMiddleware.RequireAuth(h.Recommend))
	mux.HandleFunc("GET /connections/status/{userId}", authMiddleware.RequireAuth(h.Status))
	mux.HandleFunc("GET /connections/mutual/{userId}", authMiddleware.RequireAuth(h.Mutual))
}

// Send handles POST /connections/send/{userId}
func (h *ConnectionsHandler) Send(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h.logger)
	if !ok {
		return
	}
	targetID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	_, err := h.connService.SendRequest(r.Context(), caller, targetID)
	switch {
	case err == nil:
		writeMessage(w, h.logger, http.StatusCreated, "Connection request sent successfully")
	case errors.Is(err, apperrors.ErrSelfReference):
		writeError(w, h.logger, http.StatusBadRequest, "self_request", "You cannot send a connection request to yourself")
	case errors.Is(err, apperrors.ErrAlreadyExists):
		writeError(w, h.logger, http.StatusBadRequest, "duplicate_request", "Connection request already sent")
	case errors.Is(err, apperrors.ErrUserNotFound):
		writeError(w, h.logger, http.StatusNotFound, "user_not_found", "User not found")
	default:
		h.logger.Error("Failed to send connection request",
			zap.Int64("from_user", caller),
			zap.Int64("to_user", targetID),
			zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to send connection request")
	}
}

// ListIncoming handles GET /connections/incoming
func (h *ConnectionsHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h.logger)
	if !ok {
		return
	}

	conns, err := h.connService.ListIncoming(r.Context(), caller)
	if err != nil {
		h.logger.Error("Failed to list incoming requests", zap.Int64("user_id", caller), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to list connection requests")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, conns)
}

// Accept handles PUT /connections/accept/{connectionId}
func (h *ConnectionsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.connService.AcceptRequest, "Connection request accepted successfully")
}

// Decline handles PUT /connections/decline/{connectionId}
func (h *ConnectionsHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.connService.DeclineRequest, "Connection request declined successfully")
}

func (h *ConnectionsHandler) resolve(
	w http.ResponseWriter,
	r *http.Request,
	transition func(context.Context, int64, int64) (*models.Connection, error),
	successMessage string,
) {
	caller, ok := callerID(w, r, h.logger)
	if !ok {
		return
	}
	connID, ok := ParseConnectionID(w, r, h.logger)
	if !ok {
		return
	}

	_, err := transition(r.Context(), caller, connID)
	switch {
	case err == nil:
		writeMessage(w, h.logger, http.StatusOK, successMessage)
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, h.logger, http.StatusNotFound, "not_found", "Connection request not found")
	default:
		h.logger.Error("Failed to resolve connection request",
			zap.Int64("connection_id", connID),
			zap.Int64("user_id", caller),
			zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to update connection request")
	}
}

// Recommend handles GET /connections/recommend?limit=N
func (h *ConnectionsHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h.logger)
	if !ok {
		return
	}
	limit, ok := parseLimit(w, r, h.logger)
	if !ok {
		return
	}

	users, err := h.recService.Recommend(r.Context(), caller, limit)
	if err != nil {
		h.logger.Error("Failed to compute recommendations", zap.Int64("user_id", caller), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to compute recommendations")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, users)
}

// Status handles GET /connections/status/{userId}
// Returns the caller's outgoing request toward the user.
func (h *ConnectionsHandler) Status(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h.logger)
	if !ok {
		return
	}
	otherID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	conn, err := h.connService.GetConnection(r.Context(), caller, otherID)
	switch {
	case err == nil:
		writeJSON(w, h.logger, http.StatusOK, conn)
	case errors.Is(err, apperrors.ErrSelfReference):
		writeError(w, h.logger, http.StatusBadRequest, "self_request", "You cannot have a connection with yourself")
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, h.logger, http.StatusNotFound, "not_found", "Connection not found")
	default:
		h.logger.Error("Failed to get connection", zap.Int64("user_id", caller), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to get connection")
	}
}

// Mutual handles GET /connections/mutual/{userId}
func (h *ConnectionsHandler) Mutual(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h.logger)
	if !ok {
		return
	}
	otherID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	n, err := h.connService.MutualCount(r.Context(), caller, otherID)
	switch {
	case err == nil:
		writeJSON(w, h.logger, http.StatusOK, MutualCountResponse{UserID: otherID, MutualCount: n})
	case errors.Is(err, apperrors.ErrSelfReference):
		writeError(w, h.logger, http.StatusBadRequest, "self_request", "Cannot count mutual connections with yourself")
	case errors.Is(err, apperrors.ErrUserNotFound):
		writeError(w, h.logger, http.StatusNotFound, "user_not_found", "User not found")
	default:
		h.logger.Error("Failed to count mutual connections", zap.Int64("user_id", caller), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to count mutual connections")
	}
}
