package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/onnwee/spk/internal/printer"
	"github.com/onnwee/spk/internal/ranking"
)

const twoPrinterBody = `{
	"headers": [
		{"title": "speed", "type": "benefit", "weight": 3},
		{"title": "cost", "type": "cost", "weight": 1}
	],
	"printers": [
		{"id": 1, "name": "alpha", "speed": 10.50, "cost": 5},
		{"id": 2, "name": "beta", "speed": 5, "cost": 2}
	]
}`

func newTestPrinterHandlers(maxBody int64) *PrinterHandlers {
	return NewPrinterHandlers(printer.NewService(ranking.DefaultTieBreak(), nil), maxBody)
}

func postFind(h *PrinterHandlers, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/spk-printer/find-printer", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.FindPrinter(rr, req)
	return rr
}

func TestFindPrinter_ReturnsWinner(t *testing.T) {
	rr := postFind(newTestPrinterHandlers(0), `{
		"headers": [
			{"title": "speed", "type": "benefit", "weight": 1},
			{"title": "cost", "type": "cost", "weight": 1}
		],
		"printers": [
			{"id": 1, "speed": 10, "cost": 5},
			{"id": 2, "speed": 5, "cost": 2},
			{"id": 3, "speed": 8, "cost": 3}
		]
	}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data map[string]float64 `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data["id"] != 3 {
		t.Errorf("expected printer 3, got %v", resp.Data["id"])
	}
	if s := resp.Data["score"]; s <= 0 || s > 1 {
		t.Errorf("expected score in (0, 1], got %v", s)
	}
}

func TestFindPrinter_EchoesPrinterFields(t *testing.T) {
	rr := postFind(newTestPrinterHandlers(0), twoPrinterBody)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, `"speed":10.50`) {
		t.Errorf("expected number to be echoed verbatim, got %s", body)
	}
	if !strings.Contains(body, `"name":"alpha"`) {
		t.Errorf("expected extra fields to be kept, got %s", body)
	}
}

func TestFindPrinter_Score(t *testing.T) {
	rr := postFind(newTestPrinterHandlers(0), `{
		"headers": [
			{"title": "speed", "type": "benefit", "weight": 0.5},
			{"title": "cost", "type": "cost", "weight": 0.5}
		],
		"printers": [
			{"id": 1, "speed": 10, "cost": 5},
			{"id": 2, "speed": 5, "cost": 2}
		]
	}`)

	var resp struct {
		Data struct {
			ID    int64   `json:"id"`
			Score float64 `json:"score"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.ID != 1 {
		t.Errorf("expected printer 1, got %d", resp.Data.ID)
	}
	if math.Abs(resp.Data.Score-0.5111) > 1e-3 {
		t.Errorf("expected score ~0.5111, got %v", resp.Data.Score)
	}
}

func TestFindPrinter_NoPrinters(t *testing.T) {
	rr := postFind(newTestPrinterHandlers(0), `{
		"headers": [{"title": "speed", "type": "benefit", "weight": 1}],
		"printers": []
	}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"data":{}}` {
		t.Errorf("expected empty data object, got %s", got)
	}
}

func TestFindPrinter_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{
			name:       "criterion value beyond float64 range",
			body:       `{"headers": [{"title": "x", "type": "benefit", "weight": 1}], "printers": [{"id": 1, "x": 1e400}, {"id": 2, "x": 1}]}`,
			wantDetail: "/printers/0/x: number out of range",
		},
		{
			name:       "malformed json",
			body:       `{"headers": [`,
			wantDetail: "invalid JSON",
		},
		{
			name:       "missing headers",
			body:       `{"printers": []}`,
			wantDetail: "headers",
		},
		{
			name:       "unknown criterion type",
			body:       `{"headers": [{"title": "speed", "type": "fast", "weight": 1}], "printers": []}`,
			wantDetail: "/headers/0/type",
		},
		{
			name:       "all weights zero",
			body:       `{"headers": [{"title": "speed", "type": "benefit", "weight": 0}], "printers": []}`,
			wantDetail: "at least one weight",
		},
		{
			name: "printer missing criterion",
			body: `{"headers": [{"title": "speed", "type": "benefit", "weight": 1}],
				"printers": [{"id": 1}]}`,
			wantDetail: "/printers/0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postFind(newTestPrinterHandlers(0), tt.body)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
			resp := decodeError(t, rr)
			if resp.Error.Code != ErrCodeValidation {
				t.Errorf("expected code %s, got %s", ErrCodeValidation, resp.Error.Code)
			}
			found := false
			for _, d := range resp.Error.Details {
				if strings.Contains(d, tt.wantDetail) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected a detail containing %q, got %v", tt.wantDetail, resp.Error.Details)
			}
		})
	}
}

func TestFindPrinter_MethodNotAllowed(t *testing.T) {
	h := newTestPrinterHandlers(0)
	rr := httptest.NewRecorder()
	h.FindPrinter(rr, httptest.NewRequest(http.MethodGet, "/api/spk-printer/find-printer", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if rr.Header().Get("Allow") != http.MethodPost {
		t.Errorf("expected Allow: POST, got %q", rr.Header().Get("Allow"))
	}
	if resp := decodeError(t, rr); resp.Error.Code != ErrCodeMethodNotAllowed {
		t.Errorf("expected code %s, got %s", ErrCodeMethodNotAllowed, resp.Error.Code)
	}
}

func TestFindPrinter_BodyTooLarge(t *testing.T) {
	rr := postFind(newTestPrinterHandlers(16), twoPrinterBody)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error.Code != ErrCodeBadRequest {
		t.Errorf("expected code %s, got %s", ErrCodeBadRequest, resp.Error.Code)
	}
}

func TestFindPrinter_CancelledRequest(t *testing.T) {
	h := newTestPrinterHandlers(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/api/spk-printer/find-printer", strings.NewReader(twoPrinterBody)).WithContext(ctx)
	rr := httptest.NewRecorder()
	h.FindPrinter(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error.Code != ErrCodeTimeout {
		t.Errorf("expected code %s, got %s", ErrCodeTimeout, resp.Error.Code)
	}
}

func TestNewPrinterHandlers_DefaultBodyLimit(t *testing.T) {
	h := NewPrinterHandlers(nil, -1)
	if h.maxBodyBytes != DefaultMaxBodyBytes {
		t.Errorf("expected default limit %d, got %d", DefaultMaxBodyBytes, h.maxBodyBytes)
	}
}
