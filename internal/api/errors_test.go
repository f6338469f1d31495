package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/onnwee/spk/internal/middleware"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response body: %v, body: %s", err, rr.Body.String())
	}
	return resp
}

func TestWriteError_BasicFields(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, context.Background(), http.StatusNotFound, ErrCodeNotFound, "Not found")

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("expected JSON content type, got %s", ct)
	}

	resp := decodeError(t, rr)
	if resp.Error.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, resp.Error.Code)
	}
	if resp.Error.Message != "Not found" {
		t.Errorf("expected message 'Not found', got %s", resp.Error.Message)
	}
	if strings.Contains(rr.Body.String(), "details") {
		t.Errorf("expected details to be omitted, got %s", rr.Body.String())
	}
}

func TestWriteValidationError(t *testing.T) {
	rr := httptest.NewRecorder()
	details := []string{"/headers: minItems", "/printers/0: missing property 'speed'"}
	WriteValidationError(rr, context.Background(), "Request validation failed", details)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Error.Code != ErrCodeValidation {
		t.Errorf("expected code %s, got %s", ErrCodeValidation, resp.Error.Code)
	}
	if len(resp.Error.Details) != 2 || resp.Error.Details[1] != details[1] {
		t.Errorf("unexpected details %v", resp.Error.Details)
	}
}

func TestWriteError_LoggedErrorCode(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := middleware.Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteValidationError(w, r.Context(), "Request validation failed", []string{"/: bad"})
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}
	if entry["error_code"] != ErrCodeValidation {
		t.Errorf("expected error_code %s, got %v", ErrCodeValidation, entry["error_code"])
	}
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	rr := httptest.NewRecorder()
	handler := middleware.Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r.Context(), http.StatusOK, map[string]any{"data": map[string]any{"score": math.NaN()}})
	}))
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Error.Code != ErrCodeInternal {
		t.Errorf("expected code %s, got %s", ErrCodeInternal, resp.Error.Code)
	}
	if strings.Contains(rr.Body.String(), "data") {
		t.Errorf("expected no partial payload, got %s", rr.Body.String())
	}

	var entry map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e map[string]any
		if err := json.Unmarshal([]byte(line), &e); err == nil && e["status"] != nil {
			entry = e
		}
	}
	if entry == nil || entry["error_code"] != ErrCodeInternal {
		t.Errorf("expected error_code %s in request log, got %v", ErrCodeInternal, buf.String())
	}
}

func TestWriteJSON_Success(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, context.Background(), http.StatusCreated, map[string]int{"n": 1})

	if rr.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rr.Code)
	}
	if got := rr.Body.String(); got != "{\"n\":1}\n" {
		t.Errorf("unexpected body %q", got)
	}
}

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeTimeout, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"unknown", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := StatusCodeMapping(tt.code); got != tt.want {
				t.Errorf("StatusCodeMapping(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	NotFound(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, resp.Error.Code)
	}
}
