// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/hap/internal/discovery"
	"github.com/controlplaneio-fluxcd/hap/internal/verifier"
	"github.com/controlplaneio-fluxcd/hap/pkg/hap"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [ENVELOPE|URL]",
	Short: "Verify a signed claim",
	Long: `Verify the signature of a JWS or compact claim and evaluate its lifecycle.

The public keys are read from a key document file or URL with --keys, from the
HAP_PUBLIC_KEYS environment variable, or discovered from the issuer's
/.well-known/hap.json endpoint with --discover.

The command fails when the signature is invalid, the claim is expired or revoked,
or the claim does not target the domain given with --recipient.`,
	Example: `  # Verify a claim with the issuer's published keys
  hap verify --discover "$(cat claim.jws)"

  # Verify a compact URL against a local key document
  hap verify --keys=my-va-com-hap.json "https://my-va.com/v?c=HAP1.hap_..."

  # Verify that the claim targets acme.com and has not been revoked
  hap verify --discover --recipient=acme.com --check-revocation "$(cat claim.jws)"

  # Export the verification metrics for the node exporter textfile collector
  hap verify --discover --metrics-file=/var/lib/node_exporter/hap.prom "$(cat claim.jws)"
`,
	Args: cobra.ExactArgs(1),
	RunE: verifyCmdRun,
}

const publicKeysEnvVar = "HAP_PUBLIC_KEYS"

type verifyFlags struct {
	keysPath        string
	discover        bool
	recipient       string
	checkRevocation bool
	metricsFile     string
	plainHTTP       bool
}

var verifyArgs verifyFlags

func init() {
	verifyCmd.Flags().StringVarP(&verifyArgs.keysPath, "keys", "k", "",
		"path or HTTPS URL of the issuer's key document")
	verifyCmd.Flags().BoolVar(&verifyArgs.discover, "discover", false,
		"fetch the keys from the issuer's well-known endpoint")
	verifyCmd.Flags().StringVar(&verifyArgs.recipient, "recipient", "",
		"domain the claim must target")
	verifyCmd.Flags().BoolVar(&verifyArgs.checkRevocation, "check-revocation", false,
		"query the issuer's verification endpoint for revocation")
	verifyCmd.Flags().StringVar(&verifyArgs.metricsFile, "metrics-file", "",
		"write the verification metrics in the Prometheus text format to this file")
	verifyCmd.Flags().BoolVar(&verifyArgs.plainHTTP, "plain-http", false,
		"use plain HTTP for localhost issuers")
	_ = verifyCmd.Flags().MarkHidden("plain-http")
	rootCmd.AddCommand(verifyCmd)
}

func verifyCmdRun(cmd *cobra.Command, args []string) (err error) {
	envelope := envelopeFromArg(args[0])

	// Failed verifications are recorded too.
	if verifyArgs.metricsFile != "" {
		reg := prometheus.NewRegistry()
		verifier.MustRegisterMetrics(reg)
		defer func() {
			if werr := prometheus.WriteToTextfile(verifyArgs.metricsFile, reg); werr != nil && err == nil {
				err = fmt.Errorf("failed to write metrics: %w", werr)
			}
		}()
	}

	ctx, cancel := newCommandContext(cmd)
	defer cancel()

	var client *discovery.Client
	if verifyArgs.discover || verifyArgs.checkRevocation {
		var err error
		client, err = discovery.NewClient(discovery.ClientOpt.WithPlainHTTP(verifyArgs.plainHTTP))
		if err != nil {
			return err
		}
	}

	var keySource verifier.KeySource
	if verifyArgs.discover {
		if verifyArgs.keysPath != "" {
			return errors.New("--keys and --discover are mutually exclusive")
		}
		keySource = client
	} else {
		keys, err := loadPublicKeys(ctx, verifyArgs.keysPath)
		if err != nil {
			return err
		}
		keySource = verifier.StaticKeys(keys)
	}

	// A nil *discovery.Client must not be passed as a non-nil interface.
	var revocations verifier.RevocationSource
	if client != nil {
		revocations = client
	}

	result, err := verifier.New(keySource, revocations).Verify(ctx, verifier.Request{
		Envelope:        envelope,
		Recipient:       verifyArgs.recipient,
		CheckRevocation: verifyArgs.checkRevocation,
	})
	if err != nil {
		return err
	}

	claim := result.Verified.Claim
	rootCmd.Printf("✔ %s signature verified with key %s\n", result.Verified.Format, result.Verified.KeyID)
	rootCmd.Printf("✔ claim %s issued by %s on %s\n", claim.ID, claim.Issuer, claim.IssuedAt.Format(time.RFC3339))

	switch result.Outcome {
	case verifier.OutcomeRevoked:
		rev := result.Evaluation.Revocation
		msg := fmt.Sprintf("claim has been revoked (reason: %s)", rev.Reason)
		if !rev.RevokedAt.IsZero() {
			msg = fmt.Sprintf("%s on %s", msg, rev.RevokedAt.Format(time.RFC3339))
		}
		return errors.New(msg)
	case verifier.OutcomeExpired:
		return fmt.Errorf("claim has expired on %s", claim.Expires.Format(time.RFC3339))
	case verifier.OutcomeWrongRecipient:
		return fmt.Errorf("claim is issued for %s, not for %s", claim.Recipient().Domain, verifyArgs.recipient)
	}

	if claim.Expires.IsZero() {
		rootCmd.Println("✔ claim is valid and never expires")
	} else {
		rootCmd.Printf("✔ claim is valid until %s\n", claim.Expires.Format(time.RFC3339))
	}
	if hap.IsTestID(claim.ID) {
		rootCmd.Println("⚠ claim has a test identifier")
	}

	return nil
}

// envelopeFromArg returns the compact string embedded in a verification URL,
// or the trimmed argument itself.
func envelopeFromArg(arg string) string {
	arg = strings.TrimSpace(arg)
	if compact, ok := hap.CompactFromURL(arg); ok {
		return compact
	}
	return arg
}

// loadPublicKeys reads a key document from file, HTTP URL or environment variable.
func loadPublicKeys(ctx context.Context, keysPath string) ([]hap.PublicKey, error) {
	var data []byte
	var err error
	switch {
	case strings.HasPrefix(keysPath, "http://") || strings.HasPrefix(keysPath, "https://"):
		data, err = discovery.Fetch(ctx, keysPath)
	case keysPath != "":
		data, err = os.ReadFile(keysPath)
	default:
		keyData := os.Getenv(publicKeysEnvVar)
		if keyData == "" {
			return nil, fmt.Errorf("public keys must be specified with --keys or --discover flags or %s environment variable",
				publicKeysEnvVar)
		}
		data = []byte(keyData)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load key document: %w", err)
	}

	doc, err := hap.ParseKeyDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.PublicKeys()
}
