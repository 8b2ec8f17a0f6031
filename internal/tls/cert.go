// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// SPDX-License-Identifier: MIT

package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultCertPath is where EnsureCertificates writes the certificate when
	// the config does not name one.
	DefaultCertPath = "certs/teamdir.crt"
	// DefaultKeyPath is the matching default for the private key.
	DefaultKeyPath = "certs/teamdir.key"
	// DefaultValidityYears is the lifetime of generated certificates.
	DefaultValidityYears = 10
)

// Config names the certificate pair EnsureCertificates manages.
type Config struct {
	CertPath string
	KeyPath  string
	Logger   zerolog.Logger
}

// Options controls what goes into a generated certificate. Extra SANs are
// merged after the localhost defaults, first occurrence wins.
type Options struct {
	ValidityYears int
	ExtraIPs      []net.IP
	ExtraDNS      []string
}

// EnsureCertificates returns the paths of a usable TLS pair, generating a
// self-signed one when either half is missing. Interface addresses are added
// as SANs so the certificate covers the LAN address people browse to.
func EnsureCertificates(cfg Config) (string, string, error) {
	certPath := cfg.CertPath
	if certPath == "" {
		certPath = DefaultCertPath
	}
	keyPath := cfg.KeyPath
	if keyPath == "" {
		keyPath = DefaultKeyPath
	}

	certExists := fileExists(certPath)
	keyExists := fileExists(keyPath)
	if certExists && keyExists {
		cfg.Logger.Debug().
			Str("event", "tls.pair_found").
			Str("cert", certPath).
			Str("key", keyPath).
			Msg("using existing TLS certificate pair")
		return certPath, keyPath, nil
	}
	if certExists != keyExists {
		cfg.Logger.Warn().
			Str("event", "tls.pair_incomplete").
			Bool("cert_exists", certExists).
			Bool("key_exists", keyExists).
			Msg("half of the TLS certificate pair is missing, regenerating both")
	}

	sans, err := GetNetworkIPs()
	if err != nil {
		cfg.Logger.Warn().
			Err(err).
			Msg("could not detect interface addresses, certificate will cover localhost only")
		sans = nil
	}

	if err := Generate(certPath, keyPath, Options{ValidityYears: DefaultValidityYears, ExtraIPs: sans}); err != nil {
		return "", "", fmt.Errorf("generate self-signed pair: %w", err)
	}

	sanStrings := make([]string, len(sans))
	for i, ip := range sans {
		sanStrings[i] = ip.String()
	}
	cfg.Logger.Info().
		Str("event", "tls.pair_generated").
		Str("cert", certPath).
		Str("key", keyPath).
		Int("validity_years", DefaultValidityYears).
		Strs("sans", sanStrings).
		Msg("generated self-signed TLS certificate pair")

	return certPath, keyPath, nil
}

// Generate writes a fresh self-signed certificate and ECDSA P-256 key to
// certPath and keyPath, creating parent directories as needed.
func Generate(certPath, keyPath string, opts Options) error {
	if opts.ValidityYears <= 0 {
		opts.ValidityYears = DefaultValidityYears
	}
	if err := os.MkdirAll(filepath.Dir(certPath), 0750); err != nil {
		return fmt.Errorf("create cert directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), 0750); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate private key: %w", err)
	}

	template, err := certTemplate(opts)
	if err != nil {
		return err
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	if err := writePEM(certPath, "CERTIFICATE", der, 0644); err != nil {
		return err
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshal private key: %w", err)
	}
	return writePEM(keyPath, "EC PRIVATE KEY", keyDER, 0600)
}

func certTemplate(opts Options) (*x509.Certificate, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("generate serial number: %w", err)
	}

	now := time.Now()

	ips := dedupIPs(append([]net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")}, opts.ExtraIPs...))
	dns := dedupDNS(append([]string{"localhost", "teamdir"}, opts.ExtraDNS...))

	return &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"teamdir"},
			CommonName:   "teamdir self-signed",
		},
		// Backdated an hour so a client with a skewed clock accepts a
		// freshly generated pair.
		NotBefore: now.Add(-time.Hour),
		NotAfter:  now.AddDate(opts.ValidityYears, 0, 0),
		// ECDSA keys sign, they do not encipher.
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IPAddresses:           ips,
		DNSNames:              dns,
	}, nil
}

// dedupIPs keeps the first occurrence of each address so the SAN order in
// the certificate is stable across regenerations.
func dedupIPs(in []net.IP) []net.IP {
	seen := make(map[string]struct{}, len(in))
	out := make([]net.IP, 0, len(in))
	for _, ip := range in {
		if ip == nil {
			continue
		}
		if _, dup := seen[ip.String()]; dup {
			continue
		}
		seen[ip.String()] = struct{}{}
		out = append(out, ip)
	}
	return out
}

func dedupDNS(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, name := range in {
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// writePEM writes a single PEM block. The 0644 mode on the certificate half
// is fine, certificates are public material.
func writePEM(path, blockType string, der []byte, mode os.FileMode) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	// #nosec G306 -- mode is chosen per block type by the caller
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// fileExists reports whether path is an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
