package handlers

import (
	"errors"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/apperrors"
	"github.com/weavenet/weave-api/pkg/audit"
	"github.com/weavenet/weave-api/pkg/models"
	"github.com/weavenet/weave-api/pkg/services"
)

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// AccountsHandler handles registration and login.
type AccountsHandler struct {
	accountService services.AccountService
	auditor        *audit.SecurityAuditor
	logger         *zap.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(accountService services.AccountService, auditor *audit.SecurityAuditor, logger *zap.Logger) *AccountsHandler {
	return &AccountsHandler{
		accountService: accountService,
		auditor:        auditor,
		logger:         logger,
	}
}

// RegisterRoutes registers the public account routes. limiter wraps both
// routes and may be nil.
func (h *AccountsHandler) RegisterRoutes(mux *http.ServeMux, limiter func(http.Handler) http.Handler) {
	if limiter == nil {
		limiter = func(next http.Handler) http.Handler { return next }
	}
	mux.Handle("POST /register", limiter(http.HandlerFunc(h.Register)))
	mux.Handle("POST /login", limiter(http.HandlerFunc(h.Login)))
}

// Register handles POST /register
func (h *AccountsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if !decodeBody(w, r, h.logger, &input) {
		return
	}

	user, token, err := h.accountService.Register(r.Context(), input)
	if err != nil {
		if writeValidationError(w, h.logger, err) {
			return
		}
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			writeError(w, h.logger, http.StatusBadRequest, "username_taken", "A user with that username already exists")
			return
		}
		h.logger.Error("Failed to register user", zap.String("username", input.Username), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to register user")
		return
	}

	h.auditor.LogRegistration(r.Context(), user.ID, user.Username, clientIP(r))
	writeJSON(w, h.logger, http.StatusCreated, AuthResponse{User: user, Token: token})
}

// Login handles POST /login
func (h *AccountsHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if !decodeBody(w, r, h.logger, &input) {
		return
	}

	user, token, err := h.accountService.Login(r.Context(), input)
	if err != nil {
		if writeValidationError(w, h.logger, err) {
			return
		}
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			h.auditor.LogLoginFailure(r.Context(), input.Username, clientIP(r))
			writeError(w, h.logger, http.StatusBadRequest, "invalid_credentials", "Incorrect Credentials")
			return
		}
		h.logger.Error("Failed to log in", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to log in")
		return
	}

	h.auditor.LogLoginSuccess(r.Context(), user.ID, user.Username, clientIP(r))
	writeJSON(w, h.logger, http.StatusOK, AuthResponse{User: user, Token: token})
}

// clientIP returns the host part of RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
