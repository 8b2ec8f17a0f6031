// SPDX-License-Identifier: MIT
package telemetry

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("GET", "/api/profiles", "http://localhost:8080/api/profiles", 200)

	if len(attrs) != 4 {
		t.Fatalf("Expected 4 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, HTTPMethodKey, "GET")
	verifyAttribute(t, attrs, HTTPRouteKey, "/api/profiles")
	verifyAttribute(t, attrs, HTTPURLKey, "http://localhost:8080/api/profiles")
	verifyIntAttribute(t, attrs, HTTPStatusCodeKey, 200)
}

func TestSearchAttributes(t *testing.T) {
	tests := []struct {
		name    string
		country string
		results int
		cached  bool
		wantLen int
	}{
		{
			name:    "with country",
			country: "Spain",
			results: 7,
			cached:  false,
			wantLen: 3,
		},
		{
			name:    "no country filter",
			country: "",
			results: 42,
			cached:  true,
			wantLen: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := SearchAttributes(tt.country, tt.results, tt.cached)

			if len(attrs) != tt.wantLen {
				t.Errorf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}

			if tt.country != "" {
				verifyAttribute(t, attrs, SearchCountryKey, tt.country)
			}
			verifyIntAttribute(t, attrs, SearchResultsKey, tt.results)
			verifyBoolAttribute(t, attrs, SearchCachedKey, tt.cached)
		})
	}
}

func TestPhotoAttributes(t *testing.T) {
	attrs := PhotoAttributes("maria_beach.jpg", 200, true)

	if len(attrs) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, PhotoFileKey, "maria_beach.jpg")
	verifyIntAttribute(t, attrs, PhotoWidthKey, 200)
	verifyBoolAttribute(t, attrs, PhotoCacheHitKey, true)
}

func TestRefreshAttributes(t *testing.T) {
	attrs := RefreshAttributes(25, 6, 18, 17)

	if len(attrs) != 4 {
		t.Fatalf("Expected 4 attributes, got %d", len(attrs))
	}

	verifyIntAttribute(t, attrs, RefreshProfilesKey, 25)
	verifyIntAttribute(t, attrs, RefreshCountriesKey, 6)
	verifyIntAttribute(t, attrs, RefreshPhotosKey, 18)
	verifyIntAttribute(t, attrs, RefreshMatchedKey, 17)
}

func TestJobAttributes(t *testing.T) {
	attrs := JobAttributes("refresh", "completed", 45000)

	if len(attrs) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, JobTypeKey, "refresh")
	verifyAttribute(t, attrs, JobStatusKey, "completed")
	verifyInt64Attribute(t, attrs, JobDurationKey, 45000)
}

func TestErrorAttributes(t *testing.T) {
	err := errors.New("test error")
	attrs := ErrorAttributes(err, "network_error")

	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}

	verifyBoolAttribute(t, attrs, ErrorKey, true)
	verifyAttribute(t, attrs, ErrorTypeKey, "network_error")
}

func TestAttributeKeys_Consistency(t *testing.T) {
	// Verify attribute keys follow OpenTelemetry conventions
	keys := []string{
		HTTPMethodKey,
		HTTPStatusCodeKey,
		HTTPRouteKey,
		SearchResultsKey,
		PhotoFileKey,
		RefreshProfilesKey,
		JobTypeKey,
		ErrorKey,
	}

	for _, key := range keys {
		if key == "" {
			t.Errorf("Expected non-empty attribute key")
		}
	}
}

// Helper functions for attribute verification

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, expectedValue string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsString() != expectedValue {
				t.Errorf("Expected %s=%s, got %s", key, expectedValue, attr.Value.AsString())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyIntAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != int64(expectedValue) {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyInt64Attribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int64) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != expectedValue {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyBoolAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue bool) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsBool() != expectedValue {
				t.Errorf("Expected %s=%t, got %t", key, expectedValue, attr.Value.AsBool())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}
