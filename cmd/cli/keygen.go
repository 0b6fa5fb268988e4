// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"
	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/hap/pkg/hap"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen [ISSUER]",
	Short: "Generate an Ed25519 signing key and publish its public half",
	Long: `Generate an Ed25519 signing key for the issuer.

The private key is written to <issuer>-private.jwks with 0600 permissions.
The public key is added to the <issuer>-hap.json key discovery document,
in front of any existing keys, ready to be served at /.well-known/hap.json.`,
	Example: `  # Generate the first key pair in the current directory
  hap keygen my-va.com

  # Rotate the signing key by generating a new pair in the same directory
  mv my-va-com-private.jwks my-va-com-private.jwks.old
  hap keygen my-va.com --kid 2026-10
`,
	Args: cobra.ExactArgs(1),
	RunE: keygenCmdRun,
}

type keygenFlags struct {
	outputDir string
	kid       string
}

var keygenArgs keygenFlags

func init() {
	keygenCmd.Flags().StringVarP(&keygenArgs.outputDir, "output-dir", "o", ".",
		"path to output directory (defaults to current directory)")
	keygenCmd.Flags().StringVar(&keygenArgs.kid, "kid", "",
		"key ID to publish (defaults to a generated UUID)")
	rootCmd.AddCommand(keygenCmd)
}

func keygenCmdRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 || len(args[0]) < 1 {
		return fmt.Errorf("issuer is required")
	}
	issuer := args[0]

	if err := isDir(keygenArgs.outputDir); err != nil {
		return err
	}

	issuerSlug := slug.Make(issuer)
	privateKeySetPath := filepath.Join(keygenArgs.outputDir, fmt.Sprintf("%s-private.jwks", issuerSlug))
	keyDocumentPath := filepath.Join(keygenArgs.outputDir, fmt.Sprintf("%s-hap.json", issuerSlug))

	privateKey, publicKey, err := hap.GenerateKeyPair(issuer, keygenArgs.kid)
	if err != nil {
		return err
	}

	privateKeySet, err := hap.NewPrivateKeySet(privateKey)
	if err != nil {
		return err
	}

	doc := hap.NewKeyDocument(issuer)
	if err := doc.AddKey(publicKey); err != nil {
		return err
	}

	// Reject key ID conflicts before the private key is written.
	if existing, err := hap.KeyDocumentFromFile(keyDocumentPath); err == nil {
		if err := existing.AddKey(publicKey); err != nil {
			return fmt.Errorf("cannot rotate keys in %s: %w", keyDocumentPath, err)
		}
	}

	if err := privateKeySet.WriteFile(privateKeySetPath); err != nil {
		return fmt.Errorf("failed to write private key set: %w", err)
	}

	if err := doc.WriteFile(keyDocumentPath); err != nil {
		return fmt.Errorf("failed to write key document: %w", err)
	}

	rootCmd.Printf("✔ private key set written to: %s\n", privateKeySetPath)
	rootCmd.Printf("✔ key document written to: %s\n", keyDocumentPath)
	rootCmd.Printf("✔ key ID: %s\n", publicKey.KeyID)

	return nil
}

// isDir validates that the given path exists and is a directory
func isDir(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to check path %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", path)
	}
	return nil
}
