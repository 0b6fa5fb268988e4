// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/hap/pkg/hap"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the client and protocol version information",
	Args:  cobra.NoArgs,
	RunE:  versionCmdRun,
}

type versionFlags struct {
	clientOnly bool
}

var versionArgs versionFlags

func init() {
	versionCmd.Flags().BoolVar(&versionArgs.clientOnly, "client", false,
		"If true, shows client version only.")
	rootCmd.AddCommand(versionCmd)
}

func versionCmdRun(cmd *cobra.Command, args []string) error {
	_, err := fmt.Fprintln(rootCmd.OutOrStdout(), "client:", VERSION)
	if err != nil {
		return fmt.Errorf("failed to print client version: %w", err)
	}

	if versionArgs.clientOnly {
		return nil
	}

	_, err = fmt.Fprintln(rootCmd.OutOrStdout(), "protocol:", hap.ProtocolVersion)
	if err != nil {
		return fmt.Errorf("failed to print protocol version: %w", err)
	}

	_, err = fmt.Fprintln(rootCmd.OutOrStdout(), "compact:", fmt.Sprintf("HAP%d", hap.CompactVersion))
	if err != nil {
		return fmt.Errorf("failed to print compact version: %w", err)
	}

	return nil
}
