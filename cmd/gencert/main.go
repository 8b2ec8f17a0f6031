// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// SPDX-License-Identifier: MIT

// Command gencert writes a self-signed TLS certificate pair for teamdir.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ManuGH/teamdir/internal/tls"
)

func main() {
	certPath := flag.String("cert", tls.DefaultCertPath, "certificate output path")
	keyPath := flag.String("key", tls.DefaultKeyPath, "private key output path")
	years := flag.Int("years", tls.DefaultValidityYears, "certificate validity in years")
	sans := flag.String("san", "", "comma-separated extra DNS names to include as SANs")
	autoIP := flag.Bool("auto-ip", false, "include this machine's interface addresses as SANs")
	flag.Parse()

	opts := tls.Options{ValidityYears: *years}
	for _, name := range strings.Split(*sans, ",") {
		if name = strings.TrimSpace(name); name != "" {
			opts.ExtraDNS = append(opts.ExtraDNS, name)
		}
	}
	if *autoIP {
		ips, err := tls.GetNetworkIPs()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: detect interface addresses: %v\n", err)
			os.Exit(1)
		}
		opts.ExtraIPs = ips
	}

	if err := tls.Generate(*certPath, *keyPath, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Self-signed TLS certificate pair generated\n")
	fmt.Printf("   certificate: %s\n", *certPath)
	fmt.Printf("   private key: %s\n", *keyPath)
	fmt.Printf("   valid for:   %d years\n", *years)
	if n := len(opts.ExtraIPs) + len(opts.ExtraDNS); n > 0 {
		fmt.Printf("   extra SANs:  %d\n", n)
	}
}
