package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/apperrors"
	"github.com/weavenet/weave-api/pkg/auth"
	"github.com/weavenet/weave-api/pkg/services"
)

// PostsHandler handles post creation, listing and likes.
type PostsHandler struct {
	postService services.PostService
	logger      *zap.Logger
}

// NewPostsHandler creates a new posts handler.
func NewPostsHandler(postService services.PostService, logger *zap.Logger) *PostsHandler {
	return &PostsHandler{
		postService: postService,
		logger:      logger,
	}
}

// RegisterRoutes registers the post routes.
func (h *PostsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /posts/create", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /posts", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /posts/{postId}/like", authMiddleware.RequireAuth(h.Like))
	mux.HandleFunc("DELETE /posts/{postId}/unlike", authMiddleware.RequireAuth(h.Unlike))
}

// Create handles POST /posts/create
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h.logger)
	if !ok {
		return
	}

	var input services.PostInput
	if !decodeBody(w, r, h.logger, &input) {
		return
	}

	post, err := h.postService.Create(r.Context(), caller, input)
	if err != nil {
		if writeValidationError(w, h.logger, err) {
			return
		}
		h.logger.Error("Failed to create post", zap.Int64("user_id", caller), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to create post")
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, post)
}

// List handles GET /posts
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list posts", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to list posts")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, posts)
}

// Like handles POST /posts/{postId}/like
func (h *PostsHandler) Like(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h.logger)
	if !ok {
		return
	}
	postID, ok := ParsePostID(w, r, h.logger)
	if !ok {
		return
	}

	err := h.postService.Like(r.Context(), caller, postID)
	switch {
	case err == nil:
		writeMessage(w, h.logger, http.StatusCreated, "Post liked successfully")
	case errors.Is(err, apperrors.ErrAlreadyExists):
		writeError(w, h.logger, http.StatusBadRequest, "already_liked", "You have already liked this post")
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, h.logger, http.StatusNotFound, "post_not_found", "Post not found")
	default:
		h.logger.Error("Failed to like post", zap.Int64("post_id", postID), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to like post")
	}
}

// Unlike handles DELETE /posts/{postId}/unlike
func (h *PostsHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r, h.logger)
	if !ok {
		return
	}
	postID, ok := ParsePostID(w, r, h.logger)
	if !ok {
		return
	}

	err := h.postService.Unlike(r.Context(), caller, postID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, h.logger, http.StatusBadRequest, "not_liked", "You have not liked this post")
	default:
		h.logger.Error("Failed to unlike post", zap.Int64("post_id", postID), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to unlike post")
	}
}
