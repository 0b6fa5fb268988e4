// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/hap/pkg/hap"
)

var completionCmd = &cobra.Command{
	Use:   "completion",
	Short: "Generates completion scripts for various shells",
	Long:  "The completion sub-command generates completion scripts for various shells",
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// valuesCompletionFunc returns a flag completion function for a fixed set of values.
func valuesCompletionFunc[T ~string](values []T) func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var comps []string
		for _, v := range values {
			if strings.HasPrefix(string(v), toComplete) {
				comps = append(comps, string(v))
			}
		}
		return comps, cobra.ShellCompDirectiveNoFileComp
	}
}

// registerEnumCompletions wires shell completion for the claim enum flags of cmd.
func registerEnumCompletions(cmd *cobra.Command) {
	for name, fn := range map[string]func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective){
		"type":       valuesCompletionFunc(claimTypes),
		"method":     valuesCompletionFunc(hap.Methods),
		"commitment": valuesCompletionFunc(hap.Commitments),
		"format":     valuesCompletionFunc([]string{string(hap.FormatJWS), string(hap.FormatCompact)}),
	} {
		if cmd.Flags().Lookup(name) == nil {
			continue
		}
		if err := cmd.RegisterFlagCompletionFunc(name, fn); err != nil {
			panic(err)
		}
	}
}
