// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"github.com/spf13/cobra"
)

var completionZshCmd = &cobra.Command{
	Use:   "zsh",
	Short: "Generates zsh completion scripts",
	Args:  cobra.NoArgs,
	Example: `To load completion run

. <(hap completion zsh) && compdef _hap hap

To configure your zsh shell to load completions for each session add to your zshrc

# ~/.zshrc or ~/.profile
command -v hap >/dev/null && . <(hap completion zsh) && compdef _hap hap

or write a cached file in one of the completion directories in your ${fpath}:

echo "${fpath// /\n}" | grep -i completion
hap completion zsh > _hap

mv _hap ~/.oh-my-zsh/completions  # oh-my-zsh
mv _hap ~/.zprezto/modules/completion/external/src/  # zprezto`,
	Run: func(cmd *cobra.Command, args []string) {
		rootCmd.GenZshCompletion(rootCmd.OutOrStdout()) //nolint:errcheck
	},
}

func init() {
	completionCmd.AddCommand(completionZshCmd)
}
