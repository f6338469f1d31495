package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/onnwee/spk/internal/middleware"
	"github.com/onnwee/spk/internal/printer"
	"github.com/onnwee/spk/internal/validation"
)

// DefaultMaxBodyBytes is the request body limit used when none is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// PrinterHandlers serves the printer selection endpoint.
type PrinterHandlers struct {
	service      *printer.Service
	maxBodyBytes int64
}

// NewPrinterHandlers creates printer handlers. A non-positive maxBodyBytes
// means DefaultMaxBodyBytes.
func NewPrinterHandlers(service *printer.Service, maxBodyBytes int64) *PrinterHandlers {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &PrinterHandlers{service: service, maxBodyBytes: maxBodyBytes}
}

// findPrinterResponse is the success envelope. Data is the selected printer,
// or an empty object when there were no printers to choose from.
type findPrinterResponse struct {
	Data any `json:"data"`
}

// FindPrinter handles POST /api/spk-printer/find-printer.
// It validates the body, ranks the printers and returns the best one with its score.
func (h *PrinterHandlers) FindPrinter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ctx = middleware.SetErrorCode(ctx, ErrCodeBadRequest)
			WriteError(w, ctx, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
			return
		}
		ctx = middleware.SetErrorCode(ctx, ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Could not read request body")
		return
	}

	req, err := validation.ParseFindRequest(body)
	if err != nil {
		var ve *validation.Error
		if errors.As(err, &ve) {
			slog.DebugContext(ctx, "find-printer request rejected", "details", ve.Details)
			WriteValidationError(w, ctx, "Request validation failed", ve.Details)
			return
		}
		h.internalError(w, ctx, "failed to validate request", err)
		return
	}

	best, err := h.service.FindPrinter(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			ctx = middleware.SetErrorCode(ctx, ErrCodeTimeout)
			WriteError(w, ctx, http.StatusServiceUnavailable, ErrCodeTimeout, "Request timed out")
			return
		}
		h.internalError(w, ctx, "failed to rank printers", err)
		return
	}

	if best == nil {
		writeJSON(w, ctx, http.StatusOK, findPrinterResponse{Data: struct{}{}})
		return
	}
	writeJSON(w, ctx, http.StatusOK, findPrinterResponse{Data: best})
}

func (h *PrinterHandlers) internalError(w http.ResponseWriter, ctx context.Context, msg string, err error) {
	slog.ErrorContext(ctx, msg, "error", err)
	ctx = middleware.SetErrorCode(ctx, ErrCodeInternal)
	WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Internal server error")
}
