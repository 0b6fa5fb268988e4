// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/hap/pkg/hap"
)

var urlCmd = &cobra.Command{
	Use:   "url [COMPACT|URL]",
	Short: "Embed a compact claim into a verification URL or extract it",
	Example: `  # Embed a compact string into the issuer's verification page URL
  hap url --base=https://my-va.com/v "HAP1.hap_..."

  # Extract the compact string from a verification URL
  hap url "https://my-va.com/v?c=HAP1.hap_..."
`,
	Args: cobra.ExactArgs(1),
	RunE: urlCmdRun,
}

type urlFlags struct {
	base string
}

var urlArgs urlFlags

func init() {
	urlCmd.Flags().StringVar(&urlArgs.base, "base", "",
		"base URL of the issuer's verification page")
	rootCmd.AddCommand(urlCmd)
}

func urlCmdRun(cmd *cobra.Command, args []string) error {
	arg := args[0]

	if hap.IsCompact(arg) {
		if urlArgs.base == "" {
			return fmt.Errorf("--base is required to build a verification URL")
		}
		u, err := hap.CompactURL(urlArgs.base, arg)
		if err != nil {
			return err
		}
		rootCmd.Println(u)
		return nil
	}

	compact, ok := hap.CompactFromURL(arg)
	if !ok {
		return fmt.Errorf("argument is neither a compact string nor a URL with a %q query parameter",
			hap.CompactQueryParam)
	}
	rootCmd.Println(compact)
	return nil
}
