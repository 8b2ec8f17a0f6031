// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// SPDX-License-Identifier: MIT

// validate is a CLI tool to lint teamdir configuration files and
// roster CSVs before deploying them.
//
// Usage:
//
//	validate -f config.yaml
//	validate -roster profiles.csv
//	validate -f config.yaml -roster profiles.csv
//
// Exit codes:
//   - 0: all inputs are valid
//   - 1: an input is invalid (parse or validation error)
//   - 2: usage error (no input given)
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ManuGH/teamdir/internal/config"
	"github.com/ManuGH/teamdir/internal/roster"
)

var Version = "dev"

func main() {
	var file string
	var rosterFile string
	var showVersion bool

	flag.StringVar(&file, "file", "", "path to YAML configuration file")
	flag.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	flag.StringVar(&rosterFile, "roster", "", "path to roster CSV file")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(Version)
		os.Exit(0)
	}

	if file == "" && rosterFile == "" {
		fmt.Fprintln(os.Stderr, "Error: --file or --roster is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  validate -f config.yaml")
		fmt.Fprintln(os.Stderr, "  validate -roster profiles.csv")
		os.Exit(2)
	}

	if file != "" {
		// Load applies strict YAML parsing plus business validation.
		loader := config.NewLoader(file, Version)
		if _, err := loader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error in %s:\n", file)
			fmt.Fprintf(os.Stderr, "  %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ %s is valid\n", file)
	}

	if rosterFile != "" {
		// #nosec G304 -- operator-provided path
		f, err := os.Open(rosterFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Roster error in %s:\n", rosterFile)
			fmt.Fprintf(os.Stderr, "  %v\n", err)
			os.Exit(1)
		}
		profiles, err := roster.DecodeCSV(f)
		_ = f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Roster error in %s:\n", rosterFile)
			fmt.Fprintf(os.Stderr, "  %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ %s is valid (%d profiles)\n", rosterFile, len(profiles))
	}
}
