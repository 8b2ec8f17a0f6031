// SPDX-License-Identifier: MIT

package daemon

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ManuGH/teamdir/internal/config"
	"github.com/ManuGH/teamdir/internal/telemetry"
)

// SetupTelemetry initializes the OTLP trace provider from config.
// It returns nil when telemetry is disabled or initialization fails;
// tracing is never a reason to refuse to start.
func SetupTelemetry(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) *telemetry.Provider {
	if !cfg.Telemetry.Enabled {
		return nil
	}

	protocol := cfg.Telemetry.Protocol
	if protocol == "" {
		protocol = "grpc"
	}
	environment := cfg.Telemetry.Environment
	if environment == "" {
		environment = "production"
	}
	sampleRate := cfg.Telemetry.SampleRate
	if sampleRate <= 0 || sampleRate > 1 {
		sampleRate = 1.0
	}

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        true,
		ServiceName:    "teamdir",
		ServiceVersion: cfg.Version,
		Environment:    environment,
		ExporterType:   protocol,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   sampleRate,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry initialization failed, continuing without tracing")
		return nil
	}

	logger.Info().
		Str("endpoint", cfg.Telemetry.Endpoint).
		Str("protocol", protocol).
		Float64("sampling_rate", sampleRate).
		Msg("Telemetry initialized")

	return provider
}
