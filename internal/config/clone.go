// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

// Clone returns an alias-free deep copy of AppConfig.
// Only reference types (slices) are cloned; nested structs are copied by value.
func Clone(in AppConfig) AppConfig {
	out := in

	// --- Outbound allowlists (slices) ---
	out.Outbound.Hosts = cloneStringSlice(in.Outbound.Hosts)
	out.Outbound.CIDRs = cloneStringSlice(in.Outbound.CIDRs)
	out.Outbound.Schemes = cloneStringSlice(in.Outbound.Schemes)
	out.Outbound.Ports = cloneIntSlice(in.Outbound.Ports)

	// --- API settings ---
	out.API.AllowedOrigins = cloneStringSlice(in.API.AllowedOrigins)

	return out
}

func cloneStringSlice(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneIntSlice(in []int) []int {
	if in == nil {
		return nil
	}
	out := make([]int, len(in))
	copy(out, in)
	return out
}
