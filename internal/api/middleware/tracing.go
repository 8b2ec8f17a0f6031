// SPDX-License-Identifier: MIT

// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/teamdir/internal/log"
	"github.com/ManuGH/teamdir/internal/telemetry"
)

// Tracing creates a middleware that adds OpenTelemetry tracing to HTTP requests.
func Tracing(tracerName string) func(http.Handler) http.Handler {
	tracer := telemetry.Tracer(tracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Join the caller's trace when W3C Trace Context headers are present.
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			// Query values never reach span attributes; a bare "?" records
			// that a query existed without copying tokens or search terms.
			urlLabel := r.URL.Path
			if r.URL.RawQuery != "" {
				urlLabel += "?"
			}

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
			)
			defer span.End()

			// chi's wrapper keeps Flush and Hijack working for streaming
			// handlers while capturing the status code.
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			attrs := telemetry.HTTPAttributes(r.Method, r.URL.Path, urlLabel, 0)
			if reqID := log.RequestIDFromContext(ctx); reqID != "" {
				attrs = append(attrs, attribute.String("http.request_id", reqID))
			}
			span.SetAttributes(attrs...)

			next.ServeHTTP(ww, r.WithContext(ctx))

			// The route pattern is known only after routing, so the span is
			// renamed once chi has matched. Photo filenames and profile IDs
			// stay out of span names.
			route := r.URL.Path
			if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
				if pattern := routeCtx.RoutePattern(); pattern != "" {
					route = pattern
					span.SetName(r.Method + " " + pattern)
				}
			}

			status := ww.Status()
			if status == 0 {
				// A handler that never writes still sends an implicit 200.
				status = http.StatusOK
			}
			span.SetAttributes(telemetry.HTTPAttributes(r.Method, route, urlLabel, status)...)

			if status >= 500 {
				span.SetStatus(codes.Error, http.StatusText(status))
			} else {
				// 4xx is the client's problem; only server faults mark the span.
				span.SetStatus(codes.Ok, "")
			}
		})
	}
}
