// Package api provides the HTTP handlers of the printer selection service and
// its standard JSON error envelope.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/onnwee/spk/internal/middleware"
)

// Common error codes used throughout the API.
const (
	// ErrCodeValidation indicates the request document failed validation.
	ErrCodeValidation = "validation_error"

	// ErrCodeBadRequest indicates a malformed request (unreadable or oversized body).
	ErrCodeBadRequest = "bad_request"

	// ErrCodeMethodNotAllowed indicates an unsupported HTTP method.
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound = "not_found"

	// ErrCodeRateLimited indicates rate limit exceeded.
	ErrCodeRateLimited = middleware.ErrCodeRateLimited

	// ErrCodeTimeout indicates the request took longer than the configured timeout.
	ErrCodeTimeout = "timeout"

	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal = "internal_error"
)

// ErrorResponse represents the standard error response format.
// All API errors return JSON in this structure:
// {"error": {"code": "...", "message": "...", "details": [...]}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code, a human-readable message and, for
// validation failures, one entry per problem.
type ErrorDetail struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// WriteError writes a standardized JSON error response.
//
// The error_code is logged by the logging middleware for all 4xx and 5xx
// responses when the handler stores it with SetErrorCode first:
//
//	ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
//	api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "Not found")
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	writeErrorResponse(w, ctx, status, ErrorDetail{Code: code, Message: message})
}

// WriteValidationError writes a 400 validation_error response listing details.
func WriteValidationError(w http.ResponseWriter, ctx context.Context, message string, details []string) {
	ctx = middleware.SetErrorCode(ctx, ErrCodeValidation)
	writeErrorResponse(w, ctx, http.StatusBadRequest, ErrorDetail{
		Code:    ErrCodeValidation,
		Message: message,
		Details: details,
	})
}

func writeErrorResponse(w http.ResponseWriter, ctx context.Context, status int, detail ErrorDetail) {
	// Hand the error code to the logging middleware
	middleware.UpdateResponseContext(w, ctx)

	data, err := json.Marshal(ErrorResponse{Error: detail})
	if err != nil {
		// Fallback to plain text if JSON marshaling fails
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

// StatusCodeMapping returns the recommended HTTP status code for an error code.
func StatusCodeMapping(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes status and v encoded as JSON. If v cannot be encoded,
// nothing of it is sent and the client gets a 500 internal_error instead.
func writeJSON(w http.ResponseWriter, ctx context.Context, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
		ctx = middleware.SetErrorCode(ctx, ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}

// methodNotAllowed writes a 405 with an Allow header.
func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	w.Header().Set("Allow", allowed)
	ctx := middleware.SetErrorCode(r.Context(), ErrCodeMethodNotAllowed)
	WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
}

// NotFound handles requests for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
	WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
}
