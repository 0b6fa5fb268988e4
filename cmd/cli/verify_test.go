// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/controlplaneio-fluxcd/hap/pkg/hap"
)

func TestVerifyCmd_StaticKeys(t *testing.T) {
	keySetPath, docPath := newTestKeys(t, "my-va.com")
	_, otherDocPath := newTestKeys(t, "my-va.com")

	jws := signTestClaim(t, keySetPath)
	compactURL := signTestClaim(t, keySetPath, "--format", "compact", "--url-base", "https://my-va.com/v")

	privateKey, err := hap.PrivateKeyFromFile(keySetPath)
	NewWithT(t).Expect(err).ToNot(HaveOccurred())
	expiredClaim, err := hap.NewHumanEffortClaim(hap.MethodPhysicalMail,
		hap.Target{Name: "Acme Corp", Domain: "acme.com"}, "my-va.com",
		hap.ClaimOpt.WithIssuedAt(time.Now().AddDate(0, 0, -3)),
		hap.ClaimOpt.WithExpiryDays(1))
	NewWithT(t).Expect(err).ToNot(HaveOccurred())
	expired, err := hap.SignJWS(expiredClaim, privateKey)
	NewWithT(t).Expect(err).ToNot(HaveOccurred())

	tests := []struct {
		name           string
		args           []string
		expectError    bool
		errorMessage   string
		expectedOutput []string
	}{
		{
			name: "valid jws",
			args: []string{"verify", "--keys", docPath, jws},
			expectedOutput: []string{
				"jws signature verified with key",
				"issued by my-va.com",
				"claim is valid until",
			},
		},
		{
			name: "valid compact url",
			args: []string{"verify", "--keys", docPath, compactURL},
			expectedOutput: []string{
				"compact signature verified with key",
				"claim is valid until",
			},
		},
		{
			name:           "matching recipient",
			args:           []string{"verify", "--keys", docPath, "--recipient", "ACME.com", jws},
			expectedOutput: []string{"claim is valid"},
		},
		{
			name:         "wrong recipient",
			args:         []string{"verify", "--keys", docPath, "--recipient", "other.com", jws},
			expectError:  true,
			errorMessage: "claim is issued for acme.com, not for other.com",
		},
		{
			name:         "unknown signing key",
			args:         []string{"verify", "--keys", otherDocPath, jws},
			expectError:  true,
			errorMessage: hap.ErrSignatureInvalid.Error(),
		},
		{
			name:         "expired claim",
			args:         []string{"verify", "--keys", docPath, expired},
			expectError:  true,
			errorMessage: "claim has expired on",
		},
		{
			name:         "malformed envelope",
			args:         []string{"verify", "--keys", docPath, "not-a-claim"},
			expectError:  true,
			errorMessage: hap.ErrInvalidFormat.Error(),
		},
		{
			name:         "missing keys",
			args:         []string{"verify", jws},
			expectError:  true,
			errorMessage: publicKeysEnvVar,
		},
		{
			name:         "keys and discover",
			args:         []string{"verify", "--keys", docPath, "--discover", jws},
			expectError:  true,
			errorMessage: "mutually exclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			output, err := executeCommand(tt.args)

			if tt.expectError {
				g.Expect(err).To(HaveOccurred())
				if tt.errorMessage != "" {
					g.Expect(err.Error()).To(ContainSubstring(tt.errorMessage))
				}
				return
			}

			g.Expect(err).ToNot(HaveOccurred())
			for _, expected := range tt.expectedOutput {
				g.Expect(output).To(ContainSubstring(expected))
			}
		})
	}
}

func TestVerifyCmd_KeysFromEnv(t *testing.T) {
	g := NewWithT(t)

	keySetPath, docPath := newTestKeys(t, "my-va.com")
	jws := signTestClaim(t, keySetPath)

	docData, err := os.ReadFile(docPath)
	g.Expect(err).ToNot(HaveOccurred())
	t.Setenv(publicKeysEnvVar, string(docData))

	output, err := executeCommand([]string{"verify", jws})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(output).To(ContainSubstring("claim is valid"))
}

func TestVerifyCmd_MetricsFile(t *testing.T) {
	keySetPath, docPath := newTestKeys(t, "my-va.com")
	_, otherDocPath := newTestKeys(t, "my-va.com")
	jws := signTestClaim(t, keySetPath)

	tests := []struct {
		name           string
		keysPath       string
		expectError    bool
		expectedSeries string
	}{
		{
			name:           "valid claim",
			keysPath:       docPath,
			expectedSeries: `hap_verifications_total{format="jws",outcome="valid"}`,
		},
		{
			name:           "invalid signature",
			keysPath:       otherDocPath,
			expectError:    true,
			expectedSeries: `hap_verifications_total{format="jws",outcome="invalid_signature"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			metricsFile := filepath.Join(t.TempDir(), "hap.prom")

			_, err := executeCommand([]string{"verify", "--keys", tt.keysPath, "--metrics-file", metricsFile, jws})
			if tt.expectError {
				g.Expect(err).To(HaveOccurred())
			} else {
				g.Expect(err).ToNot(HaveOccurred())
			}

			data, err := os.ReadFile(metricsFile)
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(string(data)).To(ContainSubstring(tt.expectedSeries))
			g.Expect(string(data)).To(ContainSubstring(`hap_verification_duration_seconds_count{format="jws"}`))
		})
	}
}

func TestVerifyCmd_Discover(t *testing.T) {
	g := NewWithT(t)

	// The issuer is only known once the server listens, so the key
	// document is published after keygen.
	ti := newTestIssuer(t, writeEmptyDoc(t))
	keySetPath, docPath := newTestKeys(t, ti.host())
	docData, err := os.ReadFile(docPath)
	g.Expect(err).ToNot(HaveOccurred())
	ti.mu.Lock()
	ti.doc = docData
	ti.mu.Unlock()

	jws := signTestClaim(t, keySetPath)
	claim, err := hap.Peek(jws)
	g.Expect(err).ToNot(HaveOccurred())

	t.Run("valid with discovered keys", func(t *testing.T) {
		g := NewWithT(t)

		output, err := executeCommand([]string{"verify", "--discover", "--plain-http", jws})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(output).To(ContainSubstring("issued by " + ti.host()))
		g.Expect(output).To(ContainSubstring("claim is valid until"))
	})

	t.Run("valid with key document url", func(t *testing.T) {
		g := NewWithT(t)

		output, err := executeCommand([]string{"verify", "--keys", ti.URL + hap.WellKnownPath, jws})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(output).To(ContainSubstring("claim is valid"))
	})

	t.Run("not revoked", func(t *testing.T) {
		g := NewWithT(t)

		ti.setResponse(claim.ID, hap.VerificationResponse{
			Valid:  true,
			ID:     claim.ID,
			Issuer: ti.host(),
		})

		output, err := executeCommand([]string{"verify", "--discover", "--plain-http", "--check-revocation", jws})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(output).To(ContainSubstring("claim is valid"))
	})

	t.Run("revoked", func(t *testing.T) {
		g := NewWithT(t)

		ti.setResponse(claim.ID, hap.VerificationResponse{
			Valid:            true,
			ID:               claim.ID,
			Issuer:           ti.host(),
			Revoked:          true,
			RevocationReason: string(hap.RevocationReasonFraud),
			RevokedAt:        "2026-03-01T00:00:00Z",
		})

		_, err := executeCommand([]string{"verify", "--discover", "--plain-http", "--check-revocation", jws})
		g.Expect(err).To(HaveOccurred())
		g.Expect(err.Error()).To(ContainSubstring("claim has been revoked (reason: fraud) on 2026-03-01T00:00:00Z"))
	})
}

// writeEmptyDoc writes a placeholder key document.
func writeEmptyDoc(t *testing.T) string {
	t.Helper()
	path := t.TempDir() + "/placeholder.json"
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
