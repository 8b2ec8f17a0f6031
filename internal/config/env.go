// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/teamdir/internal/log"
)

// ParseString reads a string from an environment variable or returns the
// default. The chosen source is logged; values of sensitive-looking keys are
// not.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	value, ok := os.LookupEnv(key)
	if !ok {
		logger.Debug().
			Str("key", key).
			Str("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	if value == "" {
		logger.Debug().
			Str("key", key).
			Str("default", defaultValue).
			Str("source", "default").
			Msg("using default value (environment variable is empty)")
		return defaultValue
	}
	if sensitiveKey(key) {
		logger.Debug().
			Str("key", key).
			Str("source", "environment").
			Bool("sensitive", true).
			Msg("using environment variable")
		return value
	}
	logger.Debug().
		Str("key", key).
		Str("value", value).
		Str("source", "environment").
		Msg("using environment variable")
	return value
}

// ParseInt reads an integer, falling back to the default on parse errors.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(key, "integer", defaultValue, strconv.Atoi)
}

// ParseDuration reads a Go duration string such as "5s" or "2m30s".
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, "duration", defaultValue, time.ParseDuration)
}

// ParseBool reads a boolean. It accepts "true", "false", "1", "0", "yes"
// and "no", case-insensitive.
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(key, "boolean", defaultValue, parseBoolValue)
}

// ParseFloat reads a float64, falling back to the default on parse errors.
func ParseFloat(key string, defaultValue float64) float64 {
	return parseEnv(key, "float", defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// parseEnv is the shared lookup-parse-or-default path behind the typed
// Parse helpers. An unset or empty variable takes the default silently at
// debug level, an unparsable one warns so a typo in a unit file is visible.
func parseEnv[T any](key, what string, defaultValue T, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")
	raw, ok := os.LookupEnv(key)
	if !ok {
		logger.Debug().
			Str("key", key).
			Any("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	if raw == "" {
		logger.Debug().
			Str("key", key).
			Any("default", defaultValue).
			Str("source", "default").
			Msg("using default value (environment variable is empty)")
		return defaultValue
	}
	value, err := parse(raw)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", raw).
			Any("default", defaultValue).
			Msg("invalid " + what + " in environment variable, using default")
		return defaultValue
	}
	logger.Debug().
		Str("key", key).
		Any("value", value).
		Str("source", "environment").
		Msg("using environment variable")
	return value
}

func parseBoolValue(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

// sensitiveKey mirrors the keyword list the config sanitizer masks.
func sensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range []string{"token", "password", "secret"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
