// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func TestNewProviderDisabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		Enabled:      false,
		ServiceName:  "test-service",
		ExporterType: "grpc",
	})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if provider.tp != nil {
		t.Error("disabled provider should not hold a tracer provider")
	}

	// The installed global must be the noop implementation.
	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	defer span.End()
	if span.IsRecording() {
		t.Error("noop span should not be recording")
	}
}

func TestNewProviderInvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "test-service",
		ExporterType: "carrier-pigeon",
	})
	if err == nil {
		t.Fatal("expected error for unknown exporter type")
	}
	if !strings.Contains(err.Error(), "unsupported exporter type") {
		t.Errorf("error = %q, want mention of unsupported exporter type", err)
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		wantDesc []string
	}{
		{"full rate", 1.0, []string{"AlwaysOnSampler"}},
		{"above full", 2.5, []string{"AlwaysOnSampler"}},
		{"zero", 0.0, []string{"AlwaysOffSampler"}},
		{"negative", -0.3, []string{"AlwaysOffSampler"}},
		{"ratio keeps parent decision", 0.25, []string{"ParentBased", "TraceIDRatioBased"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := samplerFor(tt.rate).Description()
			for _, want := range tt.wantDesc {
				if !strings.Contains(desc, want) {
					t.Errorf("samplerFor(%v) = %q, want it to contain %q", tt.rate, desc, want)
				}
			}
		})
	}
}

func TestShutdownWithoutProvider(t *testing.T) {
	provider := &Provider{}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown returned %v", err)
	}

	// Even a dead context is fine when there is nothing to flush.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("noop shutdown with canceled context returned %v", err)
	}
}

func TestTracerStartsSpans(t *testing.T) {
	if _, err := NewProvider(context.Background(), Config{Enabled: false}); err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	tracer := Tracer("test-tracer")
	ctx, span := tracer.Start(context.Background(), "test-span")
	defer span.End()

	if trace.SpanFromContext(ctx) == nil {
		t.Error("started span missing from context")
	}
}

func TestConcurrentShutdown(t *testing.T) {
	provider := &Provider{}

	done := make(chan struct{}, 5)
	for i := 0; i < 5; i++ {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = provider.Shutdown(ctx)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for concurrent shutdown")
		}
	}
}
