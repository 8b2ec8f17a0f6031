// SPDX-License-Identifier: MIT
package middleware

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ManuGH/teamdir/internal/telemetry"
)

// installNoopTracing installs the disabled provider, which is what the
// daemon runs with when tracing is off.
func installNoopTracing(t *testing.T) {
	t.Helper()
	_, err := telemetry.NewProvider(context.Background(), telemetry.Config{
		Enabled:     false,
		ServiceName: "test",
	})
	if err != nil {
		t.Fatalf("install noop provider: %v", err)
	}
}

func TestTracingPassesThrough(t *testing.T) {
	installNoopTracing(t)

	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{"success", "/api/status", http.StatusOK, "OK"},
		{"server error", "/api/error", http.StatusInternalServerError, "Internal Server Error"},
		{"client error", "/api/profiles/unknown", http.StatusNotFound, "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				// Even the noop tracer must put a span in the context.
				if span := trace.SpanFromContext(r.Context()); span == nil {
					t.Error("expected span in context")
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			traced := Tracing("test-tracer")(handler)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			traced.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestTracingSpanRecording(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	r := chi.NewRouter()
	r.Use(Tracing("test-tracer"))
	r.Get("/api/profiles/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	})
	r.Get("/api/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	// Route params and query values stay out of the span; the chi pattern
	// names it after routing.
	req := httptest.NewRequest(http.MethodGet, "/api/profiles/p042?details=full", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if got := spans[0].Name; got != "GET /api/profiles/{id}" {
		t.Errorf("span name = %q, want route pattern", got)
	}
	for _, attr := range spans[0].Attributes {
		if string(attr.Key) == telemetry.HTTPURLKey && attr.Value.AsString() != "/api/profiles/p042?" {
			t.Errorf("url attribute leaked query values: %s", attr.Value.AsString())
		}
	}

	exporter.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/broken", nil))

	spans = exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("5xx span status = %v, want error", spans[0].Status.Code)
	}
}

type testResponseWriter struct {
	*httptest.ResponseRecorder
}

func (t testResponseWriter) Flush() {}

func (t testResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return nil, nil, errors.New("not implemented")
}

func (t testResponseWriter) ReadFrom(src io.Reader) (int64, error) {
	return io.Copy(t.ResponseRecorder, src)
}

func TestTracingPreservesResponseWriterInterfaces(t *testing.T) {
	installNoopTracing(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, ok := w.(http.Flusher); !ok {
			t.Error("expected ResponseWriter to implement http.Flusher")
		}
		if _, ok := w.(http.Hijacker); !ok {
			t.Error("expected ResponseWriter to implement http.Hijacker")
		}
		w.WriteHeader(http.StatusOK)
	})

	traced := Tracing("test-tracer")(handler)
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := testResponseWriter{ResponseRecorder: httptest.NewRecorder()}
	traced.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
