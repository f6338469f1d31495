package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracing(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestTracing_CreatesSpan(t *testing.T) {
	recorder := setupTestTracing(t)

	var traceID string
	handler := RequestID(Tracing("spk")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = GetTraceID(r)
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, FindPrinterPath, nil)
	req.Header.Set(RequestIDHeader, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if want := "POST " + FindPrinterPath; span.Name() != want {
		t.Errorf("expected span name %q, got %q", want, span.Name())
	}
	if traceID == "" || traceID != span.SpanContext().TraceID().String() {
		t.Errorf("handler trace ID %q does not match span %s", traceID, span.SpanContext().TraceID())
	}

	found := false
	for _, attr := range span.Attributes() {
		if attr.Key == "request.id" && attr.Value.AsString() == "req-42" {
			found = true
		}
	}
	if !found {
		t.Error("expected request.id attribute on span")
	}
}

func TestTracing_NormalizesUnknownPaths(t *testing.T) {
	recorder := setupTestTracing(t)

	handler := Tracing("spk")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/123", nil))

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != "GET other" {
		t.Fatalf("expected one span named 'GET other', got %d spans", len(spans))
	}
}

func TestTracing_SkipsHealthChecks(t *testing.T) {
	recorder := setupTestTracing(t)

	handler := Tracing("spk")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetTraceID(r) != "" {
			t.Error("expected no trace for health checks")
		}
		w.WriteHeader(http.StatusOK)
	}))
	for _, path := range []string{"/health", "/ready"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if n := len(recorder.Ended()); n != 0 {
		t.Errorf("expected no spans, got %d", n)
	}
}

func TestTracing_ContinuesIncomingTrace(t *testing.T) {
	recorder := setupTestTracing(t)

	handler := Tracing("spk")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	const parentTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodPost, FindPrinterPath, nil)
	req.Header.Set("traceparent", "00-"+parentTraceID+"-00f067aa0ba902b7-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if got := spans[0].SpanContext().TraceID().String(); got != parentTraceID {
		t.Errorf("expected trace ID %s, got %s", parentTraceID, got)
	}
}

func TestGetTraceID_NoSpan(t *testing.T) {
	if id := GetTraceID(httptest.NewRequest(http.MethodGet, "/", nil)); id != "" {
		t.Errorf("expected empty trace ID, got %q", id)
	}
}
