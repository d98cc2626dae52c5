package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/auth"
)

// ParseUserID extracts and validates the target user id from the request path.
// Returns the id and true on success, or 0 and false after writing a 400.
// Expects path parameter: userId
func ParseUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseID(w, r, "userId", "invalid_user_id", "Invalid user ID", logger)
}

// ParseConnectionID extracts and validates the connection id from the request path.
// Expects path parameter: connectionId
func ParseConnectionID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseID(w, r, "connectionId", "invalid_connection_id", "Invalid connection ID", logger)
}

// ParsePostID extracts and validates the post id from the request path.
// Expects path parameter: postId
func ParsePostID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseID(w, r, "postId", "invalid_post_id", "Invalid post ID", logger)
}

// parseID accepts positive base-10 integers only.
func parseID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(pathParam), 10, 64)
	if err != nil || id <= 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return id, true
}

// parseLimit reads the optional non-negative "limit" query parameter.
// A missing parameter yields 0.
func parseLimit(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return limit, true
}

// callerID returns the authenticated user id, writing a 401 when absent.
// Routes are wrapped in RequireAuth, so this only fails on misconfiguration.
func callerID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	id, err := auth.RequireUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Authenticated route reached without a caller",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return id, true
}
