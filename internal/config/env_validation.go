// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ManuGH/teamdir/internal/log"
)

var securitySensitiveEnvTokens = []string{
	"AUTH",
	"TOKEN",
	"PASS",
	"PASSWORD",
	"TLS",
	"HTTPS",
	"ORIGIN",
	"CORS",
}

// envKeysOutsideLoader are TEAMDIR_* keys read before the loader runs.
var envKeysOutsideLoader = []string{
	"TEAMDIR_CONFIG",
	"TEAMDIR_LOG_SERVICE",
	"TEAMDIR_TLS_ENABLED",
}

// ValidateEnvUsage detects unknown TEAMDIR_* keys (dead flags / typos).
// In strict mode, unknown security-sensitive keys fail fast.
// Must be called after Load so ConsumedEnvKeys covers the supported surface.
func (l *Loader) ValidateEnvUsage(strict bool) error {
	known := make(map[string]struct{}, len(l.ConsumedEnvKeys)+len(envKeysOutsideLoader))
	for key := range l.ConsumedEnvKeys {
		known[key] = struct{}{}
	}
	for _, key := range envKeysOutsideLoader {
		known[key] = struct{}{}
	}

	unknown := make([]string, 0)
	fatal := make([]string, 0)

	for _, pair := range l.environ() {
		key := strings.SplitN(pair, "=", 2)[0]
		if !strings.HasPrefix(key, "TEAMDIR_") {
			continue
		}

		if _, ok := known[key]; ok {
			continue
		}

		unknown = append(unknown, key)
		if strict && isSecuritySensitiveEnvKey(key) {
			fatal = append(fatal, key)
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		logger := log.WithComponent("config")
		for _, key := range unknown {
			logger.Warn().
				Str("key", key).
				Msg("unknown TEAMDIR env key detected (dead flag or typo)")
		}
	}

	if len(fatal) > 0 {
		sort.Strings(fatal)
		return fmt.Errorf("unknown security-sensitive TEAMDIR env keys: %s", strings.Join(fatal, ", "))
	}

	return nil
}

func isSecuritySensitiveEnvKey(key string) bool {
	upper := strings.ToUpper(strings.TrimSpace(key))
	for _, token := range securitySensitiveEnvTokens {
		if strings.Contains(upper, token) {
			return true
		}
	}
	return false
}
