// SPDX-License-Identifier: MIT

// Package telemetry provides OpenTelemetry tracing utilities for the teamdir application.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPUserAgentKey  = "http.user_agent"

	// Search attributes
	SearchCountryKey = "search.country"
	SearchResultsKey = "search.results"
	SearchCachedKey  = "search.cached"

	// Photo attributes
	PhotoFileKey     = "photo.file"
	PhotoWidthKey    = "photo.width"
	PhotoCacheHitKey = "photo.cache_hit"

	// Refresh attributes
	RefreshTriggerKey   = "refresh.trigger"
	RefreshProfilesKey  = "refresh.profiles"
	RefreshCountriesKey = "refresh.countries"
	RefreshPhotosKey    = "refresh.photos"
	RefreshMatchedKey   = "refresh.matched"

	// Job attributes
	JobTypeKey     = "job.type"
	JobStatusKey   = "job.status"
	JobDurationKey = "job.duration_ms"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// SearchAttributes creates search-related span attributes. The query text
// itself is never attached; names are personal data.
func SearchAttributes(country string, results int, cached bool) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if country != "" {
		attrs = append(attrs, attribute.String(SearchCountryKey, country))
	}
	attrs = append(attrs,
		attribute.Int(SearchResultsKey, results),
		attribute.Bool(SearchCachedKey, cached),
	)
	return attrs
}

// PhotoAttributes creates thumbnail-related span attributes.
func PhotoAttributes(file string, width int, cacheHit bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(PhotoFileKey, file),
		attribute.Int(PhotoWidthKey, width),
		attribute.Bool(PhotoCacheHitKey, cacheHit),
	}
}

// RefreshAttributes creates refresh-run span attributes.
func RefreshAttributes(profiles, countries, photos, matched int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(RefreshProfilesKey, profiles),
		attribute.Int(RefreshCountriesKey, countries),
		attribute.Int(RefreshPhotosKey, photos),
		attribute.Int(RefreshMatchedKey, matched),
	}
}

// JobAttributes creates job-related span attributes.
func JobAttributes(jobType, status string, durationMS int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(JobTypeKey, jobType),
		attribute.String(JobStatusKey, status),
		attribute.Int64(JobDurationKey, durationMS),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
