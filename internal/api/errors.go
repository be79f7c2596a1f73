// Package api provides HTTP handlers for the palette registry API,
// including standardized error handling.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/onnwee/palette/internal/color"
	"github.com/onnwee/palette/internal/middleware"
	"github.com/onnwee/palette/internal/registry"
)

// Common error codes used throughout the API.
const (
	// ErrCodeAuthFailed indicates a missing or unusable caller identity.
	ErrCodeAuthFailed = "auth_failed"

	// ErrCodeUnauthorized indicates the caller is not the administrator.
	ErrCodeUnauthorized = "unauthorized"

	// ErrCodeNotRenderer indicates the caller is not the assigned renderer.
	ErrCodeNotRenderer = "not_renderer"

	// ErrCodeRendererAlreadySet indicates a renderer reassignment attempt.
	ErrCodeRendererAlreadySet = "renderer_already_set"

	// ErrCodeUnknownCollection indicates the collection is not allow-listed.
	ErrCodeUnknownCollection = "unknown_collection"

	// ErrCodeOwnershipMismatch indicates the claimed owner does not match
	// the ownership oracle.
	ErrCodeOwnershipMismatch = "ownership_mismatch"

	// ErrCodeInvalidHexColor indicates a malformed color string.
	ErrCodeInvalidHexColor = "invalid_hex_color"

	// ErrCodeInvalidPercentage indicates an out-of-range trophy value.
	ErrCodeInvalidPercentage = "invalid_percentage"

	// ErrCodeBadRequest indicates a malformed request.
	ErrCodeBadRequest = "bad_request"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"
)

// ErrorResponse represents the standard error response format.
// All API errors return JSON in this structure: {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response and propagates the
// error code to the logging middleware.
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	middleware.UpdateResponseContext(w, ctx)

	errResp := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}

	data, err := json.Marshal(errResp)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// writeRegistryError maps a registry or validation failure to its error
// code and HTTP status, then writes the standard envelope.
func writeRegistryError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classifyError(err)

	ctx := middleware.SetErrorCode(r.Context(), code)
	WriteError(w, ctx, status, code, err.Error())
}

// classifyError maps domain sentinels to (status, code) pairs.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, registry.ErrUnauthorized):
		return http.StatusForbidden, ErrCodeUnauthorized
	case errors.Is(err, registry.ErrRendererAlreadySet):
		return http.StatusConflict, ErrCodeRendererAlreadySet
	case errors.Is(err, registry.ErrNotRenderer):
		return http.StatusForbidden, ErrCodeNotRenderer
	case errors.Is(err, registry.ErrUnknownCollection):
		return http.StatusNotFound, ErrCodeUnknownCollection
	case errors.Is(err, registry.ErrOwnershipMismatch):
		return http.StatusForbidden, ErrCodeOwnershipMismatch
	case errors.Is(err, color.ErrInvalidHexColor):
		return http.StatusBadRequest, ErrCodeInvalidHexColor
	case errors.Is(err, color.ErrInvalidPercentage):
		return http.StatusBadRequest, ErrCodeInvalidPercentage
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}
