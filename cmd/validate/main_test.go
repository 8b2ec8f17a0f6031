// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ManuGH/teamdir/internal/testutil"
)

// setCISafeEnv points all data paths at a temp directory so validation
// does not try to create /data on the test host.
func setCISafeEnv(cmd *exec.Cmd, tmpDir string) {
	cmd.Env = append(os.Environ(),
		"TEAMDIR_DATA="+tmpDir,
	)
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func buildValidateBinary(t *testing.T) string {
	t.Helper()
	binaryPath := filepath.Join(t.TempDir(), "validate-test")
	// #nosec G204 -- Test code: building test binary with controlled arguments
	buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build validate binary: %v\n%s", err, out)
	}
	return binaryPath
}

// TestValidateCLI tests the validate binary with config and roster inputs
func TestValidateCLI(t *testing.T) {
	binaryPath := buildValidateBinary(t)

	validConfig := writeFixture(t, "valid.yaml", "logLevel: debug\n")
	unknownKey := writeFixture(t, "unknown.yaml", "bogusKey: true\n")
	typeMismatch := writeFixture(t, "badtype.yaml", "thumbs:\n  width: banana\n")
	validRoster := writeFixture(t, "roster.csv", "Name,Birthday,Town/County,Country\nMaria Lopez,14 March,Seville,Spain\n")
	emptyRoster := writeFixture(t, "empty.csv", "")

	tests := []struct {
		name       string
		args       []string
		wantExit   int
		wantOutput string // substring expected in combined output
	}{
		{
			name:       "valid config",
			args:       []string{"-f", validConfig},
			wantExit:   0,
			wantOutput: "is valid",
		},
		{
			name:       "invalid unknown key",
			args:       []string{"-f", unknownKey},
			wantExit:   1,
			wantOutput: "Configuration error",
		},
		{
			name:       "invalid type mismatch",
			args:       []string{"-f", typeMismatch},
			wantExit:   1,
			wantOutput: "Configuration error",
		},
		{
			name:       "no input flag provided",
			args:       nil,
			wantExit:   2,
			wantOutput: "--file or --roster is required",
		},
		{
			name:       "non-existent config",
			args:       []string{"-f", "does-not-exist.yaml"},
			wantExit:   1,
			wantOutput: "Configuration error",
		},
		{
			name:       "valid roster",
			args:       []string{"-roster", validRoster},
			wantExit:   0,
			wantOutput: "is valid (1 profiles)",
		},
		{
			name:       "empty roster",
			args:       []string{"-roster", emptyRoster},
			wantExit:   1,
			wantOutput: "Roster error",
		},
		{
			name:       "config and roster together",
			args:       []string{"-f", validConfig, "-roster", validRoster},
			wantExit:   0,
			wantOutput: "is valid",
		},
	}

	tmpDir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// #nosec G204 -- Test code: running test binary with controlled arguments
			cmd := exec.Command(binaryPath, tt.args...)
			setCISafeEnv(cmd, tmpDir)

			output, err := cmd.CombinedOutput()
			exitCode := 0
			if err != nil {
				if exitErr, ok := err.(*exec.ExitError); ok {
					exitCode = exitErr.ExitCode()
				} else {
					t.Fatalf("unexpected error running validate: %v", err)
				}
			}

			if exitCode != tt.wantExit {
				t.Errorf("exit code = %d, want %d\nOutput:\n%s", exitCode, tt.wantExit, output)
			}
			if tt.wantOutput != "" && !strings.Contains(string(output), tt.wantOutput) {
				t.Errorf("output does not contain %q\nGot:\n%s", tt.wantOutput, output)
			}
		})
	}
}

// TestValidateCLI_Version tests the -version flag
func TestValidateCLI_Version(t *testing.T) {
	binaryPath := buildValidateBinary(t)

	// #nosec G204 -- Test code: running test binary with controlled arguments
	cmd := exec.Command(binaryPath, "-version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("unexpected error running validate -version: %v", err)
	}

	if strings.TrimSpace(string(output)) == "" {
		t.Error("version output is empty")
	}
}

// TestValidateCLI_ExampleConfig lints the shipped example config
func TestValidateCLI_ExampleConfig(t *testing.T) {
	cfg := filepath.Join(testutil.MustRepoRoot(t), "config.example.yaml")
	if _, err := os.Stat(cfg); os.IsNotExist(err) {
		t.Skipf("%s not found, skipping", cfg)
	}

	binaryPath := buildValidateBinary(t)

	// #nosec G204 -- Test code: running test binary with controlled arguments
	cmd := exec.Command(binaryPath, "-f", cfg)
	setCISafeEnv(cmd, t.TempDir())
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("validate failed for %s: %v\nOutput:\n%s", cfg, err, output)
	}
	if !strings.Contains(string(output), "is valid") {
		t.Errorf("expected success message, got:\n%s", output)
	}
}
