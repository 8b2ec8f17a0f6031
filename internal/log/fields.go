// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldRunID     = "run_id"
	FieldProfileID = "profile_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Roster fields
	FieldProfiles  = "profiles"
	FieldCountries = "countries"
	FieldQuery     = "query"
	FieldCountry   = "country"

	// Photo fields
	FieldPhoto   = "photo"
	FieldPhotos  = "photos"
	FieldMatched = "matched"
	FieldThumb   = "thumb"

	// Path / URL fields
	FieldPath    = "path"
	FieldBaseURL = "base_url"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
)
