// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"reflect"
	"testing"
)

func TestParsePorts(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []int
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"single", "443", []int{443}, false},
		{"list", "80,443", []int{80, 443}, false},
		{"dedupe and sort", "443,80,443", []int{80, 443}, false},
		{"dotdot range", "8000..8003", []int{8000, 8001, 8002, 8003}, false},
		{"dash range", "8000-8002", []int{8000, 8001, 8002}, false},
		{"mixed", "80,8000..8001,443", []int{80, 443, 8000, 8001}, false},
		{"spaces tolerated", " 80 , 443 ", []int{80, 443}, false},
		{"trailing comma", "80,", []int{80}, false},
		{"zero invalid", "0", nil, true},
		{"too large", "70000", nil, true},
		{"reversed range", "90..80", nil, true},
		{"garbage", "http", nil, true},
		{"bad range end", "80..x", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePorts(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePorts(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseCommaSeparated(t *testing.T) {
	fallback := []string{"http", "https"}

	if got := parseCommaSeparated("", fallback); !reflect.DeepEqual(got, fallback) {
		t.Errorf("empty input should keep fallback, got %v", got)
	}
	if got := parseCommaSeparated(" a , b ,", nil); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("parseCommaSeparated = %v, want [a b]", got)
	}
	if got := parseCommaSeparated(" , ,", fallback); !reflect.DeepEqual(got, fallback) {
		t.Errorf("all-empty entries should keep fallback, got %v", got)
	}
}
