// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"
)

var (
	VERSION = "0.0.0-dev.0"
)

var rootCmd = &cobra.Command{
	Use:               "hap",
	Version:           VERSION,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
	Short:             "Command line utility for issuing and verifying HAP claims",
	Long: `Command line utility for issuing and verifying Human Attestation Protocol claims.

A Verification Authority uses this tool to generate signing keys, publish the
key discovery document and sign claims in JWS or compact form. Recipients use
it to verify claims against the keys published by the issuer.`,
}

type rootFlags struct {
	timeout time.Duration
	verbose int
}

var rootArgs = rootFlags{
	timeout: time.Minute,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&rootArgs.timeout, "timeout", rootArgs.timeout,
		"The length of time to wait before giving up on the current operation.")
	rootCmd.PersistentFlags().IntVarP(&rootArgs.verbose, "verbose", "v", 0,
		"Log verbosity level, 0 logs errors only and 1 logs debug messages.")
	rootCmd.SetOut(os.Stdout)
}

func main() {
	log.SetFlags(0)

	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrf("✗ %v\n", err)
		os.Exit(1)
	}
}

// newLogger returns a logger writing to w. Errors are always logged,
// info messages only when --verbose is set.
func newLogger(w io.Writer) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		_, _ = fmt.Fprintln(w, args)
	}, funcr.Options{
		Verbosity:    rootArgs.verbose - 1,
		LogTimestamp: rootArgs.verbose > 1,
	})
}

// newCommandContext returns a context bounded by --timeout carrying the
// command logger.
func newCommandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), rootArgs.timeout)
	return logr.NewContext(ctx, newLogger(cmd.ErrOrStderr())), cancel
}
