// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"github.com/spf13/cobra"
)

var completionBashCmd = &cobra.Command{
	Use:   "bash",
	Short: "Generates bash completion scripts",
	Args:  cobra.NoArgs,
	Example: `To load completion run

. <(hap completion bash)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
command -v hap >/dev/null && . <(hap completion bash)`,
	Run: func(cmd *cobra.Command, args []string) {
		rootCmd.GenBashCompletion(rootCmd.OutOrStdout()) //nolint:errcheck
	},
}

func init() {
	completionCmd.AddCommand(completionBashCmd)
}
