// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"github.com/spf13/cobra"
)

var completionFishCmd = &cobra.Command{
	Use:   "fish",
	Short: "Generates fish completion scripts",
	Args:  cobra.NoArgs,
	Example: `To configure your fish shell to load completions for each session write this script to your completions dir:

hap completion fish > ~/.config/fish/completions/hap.fish

See http://fishshell.com/docs/current/index.html#completion-own for more details`,
	Run: func(cmd *cobra.Command, args []string) {
		rootCmd.GenFishCompletion(rootCmd.OutOrStdout(), true) //nolint:errcheck
	},
}

func init() {
	completionCmd.AddCommand(completionFishCmd)
}
