package tracing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "http exporter",
			cfg:  Config{ServiceName: "spk", ExporterType: ExporterOTLPHTTP, SamplingRate: 0.5},
		},
		{
			name: "grpc exporter",
			cfg:  Config{ServiceName: "spk", ExporterType: ExporterOTLPGRPC, SamplingRate: 1},
		},
		{
			name: "default exporter",
			cfg:  Config{ServiceName: "spk"},
		},
		{
			name:    "missing service name",
			cfg:     Config{SamplingRate: 0.1},
			wantErr: "service name is required",
		},
		{
			name:    "negative sampling rate",
			cfg:     Config{ServiceName: "spk", SamplingRate: -0.1},
			wantErr: "sampling rate",
		},
		{
			name:    "sampling rate above one",
			cfg:     Config{ServiceName: "spk", SamplingRate: 1.5},
			wantErr: "sampling rate",
		},
		{
			name:    "unsupported exporter",
			cfg:     Config{ServiceName: "spk", ExporterType: "zipkin"},
			wantErr: "unsupported exporter type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(Config{ServiceName: "spk"})
	if err != nil {
		t.Fatalf("expected no error for disabled tracing, got %v", err)
	}
	if provider.IsEnabled() {
		t.Error("expected tracing to be disabled")
	}

	// Disabled providers still hand out a usable tracer.
	_, span := provider.Tracer("test").Start(context.Background(), "noop")
	span.End()

	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestNewProvider_MissingServiceName(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, SamplingRate: 0.1})
	if !errors.Is(err, ErrMissingServiceName) {
		t.Fatalf("expected ErrMissingServiceName, got %v", err)
	}
}

func TestNewProvider_Exporters(t *testing.T) {
	tests := []struct {
		name         string
		exporterType string
		endpoint     string
		samplingRate float64
	}{
		{name: "otlp-http", exporterType: ExporterOTLPHTTP, endpoint: "localhost:4318", samplingRate: 0.1},
		{name: "otlp-grpc", exporterType: ExporterOTLPGRPC, endpoint: "localhost:4317", samplingRate: 1},
		{name: "default exporter", samplingRate: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(Config{
				ServiceName:  "spk",
				Enabled:      true,
				Environment:  "test",
				ExporterType: tt.exporterType,
				OTLPEndpoint: tt.endpoint,
				SamplingRate: tt.samplingRate,
				InsecureMode: true,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !provider.IsEnabled() {
				t.Error("expected tracing to be enabled")
			}
			if provider.Tracer("test") == nil {
				t.Error("expected non-nil tracer")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(ctx); err != nil {
				t.Errorf("unexpected shutdown error: %v", err)
			}
		})
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{rate: 1, want: "AlwaysOnSampler"},
		{rate: 0, want: "AlwaysOffSampler"},
		{rate: 0.25, want: "TraceIDRatioBased"},
	}

	for _, tt := range tests {
		got := samplerFor(tt.rate).Description()
		if !strings.HasPrefix(got, "ParentBased{root:"+tt.want) {
			t.Errorf("samplerFor(%v) = %q, want parent-based %s", tt.rate, got, tt.want)
		}
	}
}
