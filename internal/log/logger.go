package log

import (
	"cmp"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/teamdir/internal/version"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.)
	Output  io.Writer // optional writer (defaults to os.Stdout)
	Service string    // optional service name attached to every log entry
}

var (
	once sync.Once
	base zerolog.Logger
)

// Configure initialises the global zerolog logger exactly once. The
// zero Config bootstraps from TEAMDIR_LOG_LEVEL and TEAMDIR_LOG_SERVICE
// so the earliest startup lines already honor the operator's level; the
// config loader re-applies the merged level later through SetLevel.
func Configure(cfg Config) {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339

		level := zerolog.InfoLevel
		if raw := cmp.Or(cfg.Level, os.Getenv("TEAMDIR_LOG_LEVEL")); raw != "" {
			if parsed, err := parseLevel(raw); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)

		writer := cfg.Output
		if writer == nil {
			writer = os.Stdout
		}

		base = zerolog.New(writer).With().
			Timestamp().
			Str("service", cmp.Or(cfg.Service, os.Getenv("TEAMDIR_LOG_SERVICE"), "teamdir")).
			Str("version", version.Version).
			Logger()
	})
}

// SetLevel changes the global log level at runtime. Unknown level
// strings are ignored so a bad config reload cannot silence the process.
func SetLevel(level string) {
	if parsed, err := parseLevel(level); err == nil {
		zerolog.SetGlobalLevel(parsed)
	}
}

// parseLevel forgives case and whitespace, matching the validation the
// config layer applies to logLevel.
func parseLevel(level string) (zerolog.Level, error) {
	return zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
}

// Base returns the base logger, bootstrapping it on first use.
func Base() zerolog.Logger {
	Configure(Config{})
	return base
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}

func init() {
	Configure(Config{})
}
