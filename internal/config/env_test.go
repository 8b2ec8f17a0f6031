// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		envSet       bool
		want         string
	}{
		{
			name:         "environment variable set",
			key:          "TEST_STRING",
			defaultValue: "default",
			envValue:     "from-env",
			envSet:       true,
			want:         "from-env",
		},
		{
			name:         "environment variable not set",
			key:          "TEST_STRING_UNSET",
			defaultValue: "default",
			envSet:       false,
			want:         "default",
		},
		{
			name:         "environment variable empty string",
			key:          "TEST_STRING_EMPTY",
			defaultValue: "default",
			envValue:     "",
			envSet:       true,
			want:         "default",
		},
		{
			name:         "sensitive variable (password)",
			key:          "TEST_PASSWORD",
			defaultValue: "default",
			envValue:     "secret123",
			envSet:       true,
			want:         "secret123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := ParseString(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("ParseString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		envSet       bool
		want         int
	}{
		{"valid integer", "TEST_INT", 42, "100", true, 100},
		{"invalid integer", "TEST_INT_INVALID", 42, "not-a-number", true, 42},
		{"negative integer", "TEST_INT_NEG", 42, "-7", true, -7},
		{"empty keeps default", "TEST_INT_EMPTY", 42, "", true, 42},
		{"not set", "TEST_INT_UNSET", 42, "", false, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := ParseInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("ParseInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue bool
		envValue     string
		envSet       bool
		want         bool
	}{
		{"true literal", "TEST_BOOL", false, "true", true, true},
		{"one", "TEST_BOOL_ONE", false, "1", true, true},
		{"yes", "TEST_BOOL_YES", false, "yes", true, true},
		{"false literal", "TEST_BOOL_FALSE", true, "false", true, false},
		{"zero", "TEST_BOOL_ZERO", true, "0", true, false},
		{"no", "TEST_BOOL_NO", true, "no", true, false},
		{"mixed case", "TEST_BOOL_CASE", false, "TRUE", true, true},
		{"invalid keeps default", "TEST_BOOL_INVALID", true, "maybe", true, true},
		{"not set keeps default", "TEST_BOOL_UNSET", true, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := ParseBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("ParseBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		envSet       bool
		want         time.Duration
	}{
		{"seconds", "TEST_DUR", time.Second, "30s", true, 30 * time.Second},
		{"minutes", "TEST_DUR_MIN", time.Second, "5m", true, 5 * time.Minute},
		{"invalid keeps default", "TEST_DUR_INVALID", 2 * time.Second, "soon", true, 2 * time.Second},
		{"not set keeps default", "TEST_DUR_UNSET", 2 * time.Second, "", false, 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := ParseDuration(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("ParseDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue float64
		envValue     string
		envSet       bool
		want         float64
	}{
		{"valid float", "TEST_FLOAT", 1.0, "0.25", true, 0.25},
		{"integer form", "TEST_FLOAT_INT", 1.0, "2", true, 2.0},
		{"invalid keeps default", "TEST_FLOAT_INVALID", 0.5, "fast", true, 0.5},
		{"not set keeps default", "TEST_FLOAT_UNSET", 0.5, "", false, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := ParseFloat(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("ParseFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"TEAMDIR_REDIS_PASSWORD", true},
		{"SOME_API_TOKEN", true},
		{"CLIENT_SECRET", true},
		{"TEAMDIR_ROSTER_URL", false},
		{"TEAMDIR_LISTEN", false},
	}
	for _, tt := range tests {
		if got := sensitiveKey(tt.key); got != tt.want {
			t.Errorf("sensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
