package config

import (
	"os"
	"strings"
	"testing"
)

// TestMain strips every TEAMDIR_ variable (and the container PORT
// contract) from the environment, so a developer shell that runs the
// daemon cannot leak overrides into the loader tests.
func TestMain(m *testing.M) {
	for _, kv := range os.Environ() {
		name, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if name == "PORT" || strings.HasPrefix(name, "TEAMDIR_") {
			if err := os.Unsetenv(name); err != nil {
				panic("unset " + name + ": " + err.Error())
			}
		}
	}

	os.Exit(m.Run())
}
