// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/olekukonko/tablewriter"
	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/controlplaneio-fluxcd/hap/pkg/hap"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [ENVELOPE|URL]",
	Short: "Print the contents of a claim without verifying it",
	Long: `Decode a JWS or compact claim and print its contents.

The signature is NOT verified. Use 'hap verify' before trusting any of the values.`,
	Example: `  # Print the claim fields as a table
  hap inspect "$(cat claim.jws)"

  # Print the claim as YAML
  hap inspect -o yaml "https://my-va.com/v?c=HAP1.hap_..."
`,
	Args: cobra.ExactArgs(1),
	RunE: inspectCmdRun,
}

type inspectFlags struct {
	output choiceFlag
}

func newInspectFlags() inspectFlags {
	return inspectFlags{
		output: newChoiceFlag("output", "table", "table", "yaml", "json"),
	}
}

var inspectArgs = newInspectFlags()

func init() {
	inspectCmd.Flags().VarP(&inspectArgs.output, "output", "o",
		"output format, one of: table, yaml, json")
	rootCmd.AddCommand(inspectCmd)
}

// inspectResult is the unverified view of an envelope.
type inspectResult struct {
	Format    hap.Format    `json:"format"`
	Algorithm string        `json:"alg,omitempty"`
	KeyID     string        `json:"kid,omitempty"`
	Digest    digest.Digest `json:"digest"`
	Claim     *hap.Claim    `json:"claim"`
}

func inspectCmdRun(cmd *cobra.Command, args []string) error {
	envelope := envelopeFromArg(args[0])

	format, err := hap.DetectFormat(envelope)
	if err != nil {
		return err
	}

	claim, err := hap.Peek(envelope)
	if err != nil {
		return fmt.Errorf("failed to decode claim: %w", err)
	}

	result := inspectResult{
		Format: format,
		Digest: digest.FromString(envelope),
		Claim:  claim,
	}

	if format == hap.FormatJWS {
		token, _, err := jwt.NewParser().ParseUnverified(envelope, jwt.MapClaims{})
		if err != nil {
			return fmt.Errorf("failed to parse JWS header: %w", err)
		}
		result.Algorithm, _ = token.Header["alg"].(string)
		result.KeyID, _ = token.Header["kid"].(string)
	}

	switch inspectArgs.output.String() {
	case "json":
		output, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("unable to marshal output to JSON: %w", err)
		}
		rootCmd.Println(string(output))
	case "yaml":
		output, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("unable to marshal output to YAML: %w", err)
		}
		_, err = rootCmd.OutOrStdout().Write(output)
		return err
	default:
		printTable(rootCmd.OutOrStdout(), []string{"Field", "Value"}, result.rows())
	}

	return nil
}

func (r inspectResult) rows() [][]string {
	c := r.Claim
	rows := [][]string{
		{"format", string(r.Format)},
	}
	if r.Algorithm != "" {
		rows = append(rows, []string{"alg", r.Algorithm})
	}
	if r.KeyID != "" {
		rows = append(rows, []string{"kid", r.KeyID})
	}
	rows = append(rows,
		[]string{"digest", r.Digest.String()},
		[]string{"id", c.ID},
		[]string{"type", string(c.Type)},
	)

	switch p := c.Payload.(type) {
	case hap.EffortPayload:
		rows = append(rows, []string{"method", string(p.Method)})
		if p.Tier != "" {
			rows = append(rows, []string{"tier", p.Tier})
		}
	case hap.CommitmentPayload:
		rows = append(rows, []string{"commitment", string(p.Commitment)})
	}

	recipient := c.Recipient()
	rows = append(rows,
		[]string{"recipient", recipient.Name},
		[]string{"domain", recipient.Domain},
		[]string{"issuer", c.Issuer},
		[]string{"issued", c.IssuedAt.Format(time.RFC3339)},
	)
	expires := "never"
	if !c.Expires.IsZero() {
		expires = c.Expires.Format(time.RFC3339)
	}
	return append(rows, []string{"expires", expires})
}

func printTable(writer io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}
