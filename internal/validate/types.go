// SPDX-License-Identifier: MIT
package validate

import "strings"

// LogLevel is a configured log verbosity. The set matches what the
// runtime logger honors; fatal and panic are deliberately not
// configurable because they would suppress normal operation logs.
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ParseLogLevel normalizes and validates a log level string. Case and
// surrounding whitespace are forgiven so "Info" from a YAML file works.
func ParseLogLevel(s string) (LogLevel, error) {
	level := LogLevel(strings.ToLower(strings.TrimSpace(s)))
	if !level.IsValid() {
		return "", ErrInvalidLogLevel
	}
	return level, nil
}

// IsValid reports whether the level is one the runtime logger honors.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	}
	return false
}

func (l LogLevel) String() string {
	return string(l)
}

// ErrInvalidLogLevel rejects levels the runtime logger would ignore.
var ErrInvalidLogLevel = &Error{
	Field:   "logLevel",
	Message: "invalid log level (must be: trace, debug, info, warn, error)",
}
