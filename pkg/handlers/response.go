package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/weavenet/weave-api/pkg/validation"
)

// MessageResponse is the body of endpoints that only report an outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationErrorBody is the 400 body for requests that fail field validation.
type ValidationErrorBody struct {
	Error   string                  `json:"error"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// ValidationErrorResponse writes a 400 listing every failed field.
func ValidationErrorResponse(w http.ResponseWriter, vErr *validation.Error) error {
	return WriteJSON(w, http.StatusBadRequest, ValidationErrorBody{
		Error:   "validation_failed",
		Message: vErr.Error(),
		Fields:  vErr.Fields,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteMessage writes {"message": message} with the given status.
func WriteMessage(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, MessageResponse{Message: message})
}

// The lowercase variants log encoding failures instead of returning them.

func writeJSON(w http.ResponseWriter, logger *zap.Logger, statusCode int, data any) {
	if err := WriteJSON(w, statusCode, data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func writeMessage(w http.ResponseWriter, logger *zap.Logger, statusCode int, message string) {
	if err := WriteMessage(w, statusCode, message); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, statusCode int, code, message string) {
	if err := ErrorResponse(w, statusCode, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// maxBodyBytes caps request bodies read by decodeBody.
const maxBodyBytes = 1 << 20

// decodeBody decodes the JSON request body into dst, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, logger *zap.Logger, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return false
	}
	return true
}

// writeValidationError writes a 400 if err is a *validation.Error and reports
// whether it did.
func writeValidationError(w http.ResponseWriter, logger *zap.Logger, err error) bool {
	var vErr *validation.Error
	if !errors.As(err, &vErr) {
		return false
	}
	if err := ValidationErrorResponse(w, vErr); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
	return true
}
