// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/hap/pkg/hap"
)

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Generate a new claim identifier",
	Example: `  # Generate a production claim ID
  hap id

  # Generate a test claim ID
  hap id --test
`,
	Args: cobra.NoArgs,
	RunE: idCmdRun,
}

type idFlags struct {
	test bool
}

var idArgs idFlags

func init() {
	idCmd.Flags().BoolVar(&idArgs.test, "test", false,
		"generate a test identifier (hap_test_ prefix)")
	rootCmd.AddCommand(idCmd)
}

func idCmdRun(cmd *cobra.Command, args []string) error {
	generate := hap.GenerateID
	if idArgs.test {
		generate = hap.GenerateTestID
	}

	id, err := generate()
	if err != nil {
		return fmt.Errorf("failed to generate claim ID: %w", err)
	}

	rootCmd.Println(id)
	return nil
}
