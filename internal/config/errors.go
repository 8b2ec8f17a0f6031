// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "errors"

// Sentinels for config load failures. Callers and tests classify with
// errors.Is instead of matching message text.
var (
	// ErrUnknownConfigField marks strict YAML parse failures caused by
	// unknown keys, usually a typo in the config file.
	ErrUnknownConfigField = errors.New("unknown config field")

	// ErrUnsupportedFormat marks a config path whose extension is not
	// .yaml or .yml.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrTrailingDocument marks a config file holding more than one
	// YAML document.
	ErrTrailingDocument = errors.New("config file contains multiple documents or trailing content")
)
