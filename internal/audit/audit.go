// SPDX-License-Identifier: MIT

// Package audit provides structured audit logging for operations that
// change what the service serves. Events follow the WHO/WHAT/WHEN
// pattern and carry a log_type marker so they can be filtered out of
// the operational stream.
package audit

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/teamdir/internal/log"
)

// EventType classifies an audit event.
type EventType string

const (
	EventConfigReload   EventType = "config.reload"
	EventRefreshStart   EventType = "refresh.start"
	EventRefreshSuccess EventType = "refresh.success"
	EventRefreshError   EventType = "refresh.error"
)

// Event is one audit record.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"type"`
	Actor     string            `json:"actor"`    // WHO: remote addr or "system"
	Action    string            `json:"action"`   // WHAT happened, human readable
	Resource  string            `json:"resource"` // what it happened to
	Result    string            `json:"result"`   // success, failure, applied
	Details   map[string]string `json:"details,omitempty"`
}

// Logger writes audit events through the shared zerolog pipeline.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger returns a Logger tagged with the dedicated audit component.
func NewLogger() *Logger {
	return &Logger{
		logger: log.WithComponent("audit").With().
			Str("log_type", "audit").
			Logger(),
	}
}

// Log writes one event. A zero timestamp is filled with the current time.
func (l *Logger) Log(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	e := l.logger.Info().
		Time("timestamp", event.Timestamp).
		Str("event_type", string(event.Type)).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("resource", event.Resource).
		Str("result", event.Result)

	for key, value := range event.Details {
		e = e.Str(key, value)
	}

	e.Msg("audit event")
}

// ConfigReload records a configuration reload with its outcome.
func (l *Logger) ConfigReload(actor, result string, details map[string]string) {
	l.Log(Event{
		Type:     EventConfigReload,
		Actor:    actor,
		Action:   "reloaded configuration",
		Resource: "config",
		Result:   result,
		Details:  details,
	})
}

// RefreshStart records the start of a refresh run. source names the
// roster source the run reads from.
func (l *Logger) RefreshStart(actor, source string) {
	l.Log(Event{
		Type:     EventRefreshStart,
		Actor:    actor,
		Action:   "started refresh",
		Resource: "refresh",
		Result:   "started",
		Details:  map[string]string{"source": source},
	})
}

// RefreshComplete records a successful refresh run.
func (l *Logger) RefreshComplete(actor string, profiles, matched int, durationMS int64) {
	l.Log(Event{
		Type:     EventRefreshSuccess,
		Actor:    actor,
		Action:   "completed refresh",
		Resource: "refresh",
		Result:   "success",
		Details: map[string]string{
			"profiles":    strconv.Itoa(profiles),
			"matched":     strconv.Itoa(matched),
			"duration_ms": strconv.FormatInt(durationMS, 10),
		},
	})
}

// RefreshError records a failed refresh run.
func (l *Logger) RefreshError(actor, reason string) {
	l.Log(Event{
		Type:     EventRefreshError,
		Actor:    actor,
		Action:   "refresh failed",
		Resource: "refresh",
		Result:   "failure",
		Details:  map[string]string{"error": reason},
	})
}
