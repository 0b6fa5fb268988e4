// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/controlplaneio-fluxcd/hap/pkg/hap"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Issue and sign a claim",
	Long: `Issue a claim for a recipient and sign it with the issuer's private key.

The claim is printed as a JWS by default. With --format=compact the claim is
printed as a HAP1 compact string, or as a verification URL when --url-base is set.`,
	Example: `  # Sign a human effort claim with the private key set from file
  hap sign --key-set=my-va-com-private.jwks \
    --method=physical_mail --name="Acme Corp" --domain=acme.com

  # Sign a recipient commitment claim reading the key set from env
  export HAP_PRIVATE_JWKS="$(cat my-va-com-private.jwks)"
  hap sign --type=recipient_commitment --commitment=review_verified \
    --name="Acme Corp" --domain=acme.com

  # Print a compact verification URL for a QR code
  hap sign --method=physical_mail --name="Acme Corp" \
    --format=compact --url-base=https://my-va.com/v
`,
	Args: cobra.NoArgs,
	RunE: signCmdRun,
}

const (
	privateKeySetEnvVar = "HAP_PRIVATE_JWKS"
	defaultExpiryDays   = 730
)

type signFlags struct {
	claimType         claimTypeFlag
	method            methodFlag
	commitment        commitmentFlag
	name              string
	domain            string
	tier              string
	expiresDays       int
	format            choiceFlag
	urlBase           string
	privateKeySetPath string
	testID            bool
}

func newSignFlags() signFlags {
	return signFlags{
		claimType:   claimTypeFlag(hap.ClaimTypeHumanEffort),
		expiresDays: defaultExpiryDays,
		format:      newChoiceFlag("format", string(hap.FormatJWS), string(hap.FormatJWS), string(hap.FormatCompact)),
	}
}

var signArgs = newSignFlags()

func init() {
	signCmd.Flags().Var(&signArgs.claimType, "type", signArgs.claimType.Description())
	signCmd.Flags().Var(&signArgs.method, "method", signArgs.method.Description())
	signCmd.Flags().Var(&signArgs.commitment, "commitment", signArgs.commitment.Description())
	signCmd.Flags().StringVar(&signArgs.name, "name", "",
		"name of the recipient the claim is issued for")
	signCmd.Flags().StringVar(&signArgs.domain, "domain", "",
		"domain of the recipient, used for targeting checks")
	signCmd.Flags().StringVar(&signArgs.tier, "tier", "",
		"optional effort tier, not carried by the compact format")
	signCmd.Flags().IntVar(&signArgs.expiresDays, "expires-days", signArgs.expiresDays,
		"number of days until the claim expires, 0 for no expiry")
	signCmd.Flags().Var(&signArgs.format, "format", "output format, one of: jws, compact")
	signCmd.Flags().StringVar(&signArgs.urlBase, "url-base", "",
		"base URL to embed the compact string into, requires --format=compact")
	signCmd.Flags().StringVarP(&signArgs.privateKeySetPath, "key-set", "k", "",
		"path to the private key set file or /dev/stdin")
	signCmd.Flags().BoolVar(&signArgs.testID, "test-id", false,
		"issue the claim with a test identifier")
	registerEnumCompletions(signCmd)
	rootCmd.AddCommand(signCmd)
}

func signCmdRun(cmd *cobra.Command, args []string) error {
	if signArgs.name == "" {
		return fmt.Errorf("--name is required")
	}
	if signArgs.urlBase != "" && signArgs.format.String() != string(hap.FormatCompact) {
		return fmt.Errorf("--url-base requires --format=compact")
	}

	keyData, err := loadPrivateKeySet(signArgs.privateKeySetPath)
	if err != nil {
		return err
	}
	privateKey, err := hap.PrivateKeyFromSet(keyData)
	if err != nil {
		return err
	}

	claim, err := newClaimFromFlags(privateKey.Issuer)
	if err != nil {
		return err
	}

	var output string
	switch hap.Format(signArgs.format.String()) {
	case hap.FormatCompact:
		output, err = hap.SignCompact(claim, privateKey)
		if err != nil {
			return err
		}
		if signArgs.urlBase != "" {
			output, err = hap.CompactURL(signArgs.urlBase, output)
			if err != nil {
				return err
			}
		}
	default:
		output, err = hap.SignJWS(claim, privateKey)
		if err != nil {
			return err
		}
	}

	rootCmd.Println(output)
	return nil
}

// newClaimFromFlags builds the claim described by the sign flags.
func newClaimFromFlags(issuer string) (*hap.Claim, error) {
	target := hap.Target{
		Name:   signArgs.name,
		Domain: signArgs.domain,
	}

	opts := []hap.ClaimOption{
		hap.ClaimOpt.WithExpiryDays(signArgs.expiresDays),
	}
	if signArgs.testID {
		opts = append(opts, hap.ClaimOpt.WithTestID())
	}

	claimType := hap.ClaimType(signArgs.claimType)
	if claimType.IsCommitment() {
		if signArgs.method != "" {
			return nil, fmt.Errorf("--method cannot be used with --type=%s", claimType)
		}
		if signArgs.commitment == "" {
			return nil, fmt.Errorf("--commitment is required for --type=%s", claimType)
		}
		return hap.NewRecipientCommitmentClaim(target, hap.Commitment(signArgs.commitment), issuer, opts...)
	}

	if signArgs.commitment != "" {
		return nil, fmt.Errorf("--commitment can only be used with --type=%s", hap.ClaimTypeRecipientCommitment)
	}
	if signArgs.method == "" {
		return nil, fmt.Errorf("--method is required for --type=%s", claimType)
	}
	if signArgs.tier != "" {
		opts = append(opts, hap.ClaimOpt.WithTier(signArgs.tier))
	}
	return hap.NewEffortClaim(claimType, hap.Method(signArgs.method), target, issuer, opts...)
}

// loadPrivateKeySet reads the private JWKS from file or environment variable.
func loadPrivateKeySet(keySetPath string) ([]byte, error) {
	if keySetPath != "" {
		return os.ReadFile(keySetPath)
	}
	if keyData := os.Getenv(privateKeySetEnvVar); keyData != "" {
		return []byte(keyData), nil
	}
	return nil, errors.New("private JWKS must be specified with --key-set flag or " +
		privateKeySetEnvVar + " environment variable")
}
