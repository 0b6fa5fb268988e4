// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/go-jose/go-jose/v4"
	. "github.com/onsi/gomega"
)

func TestSignJWS(t *testing.T) {
	t.Run("produces a compact JWS with kid header", func(t *testing.T) {
		g := NewWithT(t)
		_, privateKey := genTestKeys(t)

		token, err := SignJWS(newTestClaim(t), privateKey)
		g.Expect(err).ToNot(HaveOccurred())

		parts := strings.Split(token, ".")
		g.Expect(parts).To(HaveLen(3))

		header, err := base64.RawURLEncoding.DecodeString(parts[0])
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(string(header)).To(Equal(`{"alg":"EdDSA","kid":"test-key-id"}`))
	})

	t.Run("does not mutate the claim", func(t *testing.T) {
		g := NewWithT(t)
		_, privateKey := genTestKeys(t)
		c := newTestClaim(t)
		before := *c

		_, err := SignJWS(c, privateKey)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(*c).To(Equal(before))
	})

	t.Run("requires a private key", func(t *testing.T) {
		g := NewWithT(t)

		_, err := SignJWS(newTestClaim(t), nil)
		g.Expect(err).To(MatchError(ErrPrivateKeyRequired))

		_, err = SignJWS(newTestClaim(t), &PrivateKey{KeyID: "empty"})
		g.Expect(err).To(MatchError(ErrPrivateKeyRequired))
	})
}

func TestVerifyJWS(t *testing.T) {
	t.Run("verifies signed claims", func(t *testing.T) {
		g := NewWithT(t)
		publicKey, privateKey := genTestKeys(t)
		c := newTestClaim(t, ClaimOpt.WithTier("gold"))

		token, err := SignJWS(c, privateKey)
		g.Expect(err).ToNot(HaveOccurred())

		verified, err := VerifyJWS(token, []PublicKey{*publicKey})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(verified.Format).To(Equal(FormatJWS))
		g.Expect(verified.KeyID).To(Equal(publicKey.KeyID))
		g.Expect(verified.Claim).To(Equal(c))
	})

	t.Run("treats the payload as opaque bytes", func(t *testing.T) {
		g := NewWithT(t)
		publicKey, privateKey := genTestKeys(t)

		// Reversed field order, extra fields and fractional seconds,
		// as produced by a different serializer.
		payload := `{"vendor":{"x":1},"iss":"my-va.com","exp":"2028-01-02T03:04:05.000Z",` +
			`"at":"2026-01-02T03:04:05.000Z","to":{"domain":"acme.com","name":"Acme Corp"},` +
			`"method":"physical_mail","type":"human_effort","id":"hap_abc123XYZ9","v":"0.1"}`

		signerOpts := jose.SignerOptions{}
		signerOpts.WithHeader("kid", privateKey.KeyID)
		signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: privateKey.Key}, &signerOpts)
		g.Expect(err).ToNot(HaveOccurred())
		signed, err := signer.Sign([]byte(payload))
		g.Expect(err).ToNot(HaveOccurred())
		token, err := signed.CompactSerialize()
		g.Expect(err).ToNot(HaveOccurred())

		verified, err := VerifyJWS(token, []PublicKey{*publicKey})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(string(verified.Payload)).To(Equal(payload))
		g.Expect(verified.Claim.ID).To(Equal("hap_abc123XYZ9"))
		g.Expect(verified.Claim.IssuedAt).To(Equal(testIssuedAt))
		g.Expect(verified.Claim.Recipient()).To(Equal(Target{Name: "Acme Corp", Domain: "acme.com"}))
	})

	t.Run("tries rotated keys in order", func(t *testing.T) {
		g := NewWithT(t)
		current, privateKey := genTestKeys(t)
		_, retired, err := GenerateKeyPair("my-va.com", "retired")
		g.Expect(err).ToNot(HaveOccurred())
		_, other, err := GenerateKeyPair("my-va.com", "other")
		g.Expect(err).ToNot(HaveOccurred())

		token, err := SignJWS(newTestClaim(t), privateKey)
		g.Expect(err).ToNot(HaveOccurred())

		verified, err := VerifyJWS(token, []PublicKey{*retired, {KeyID: "broken"}, *current})
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(verified.KeyID).To(Equal("test-key-id"))

		_, err = VerifyJWS(token, []PublicKey{*retired, *other})
		g.Expect(err).To(MatchError(ErrSignatureInvalid))

		_, err = VerifyJWS(token, nil)
		g.Expect(err).To(MatchError(ErrSignatureInvalid))
	})

	t.Run("fails when the payload changes", func(t *testing.T) {
		g := NewWithT(t)
		publicKey, privateKey := genTestKeys(t)

		token, err := SignJWS(newTestClaim(t), privateKey)
		g.Expect(err).ToNot(HaveOccurred())

		parts := strings.Split(token, ".")
		payload, err := base64.RawURLEncoding.DecodeString(parts[1])
		g.Expect(err).ToNot(HaveOccurred())

		for i := range payload {
			tampered := append([]byte{}, payload...)
			tampered[i] ^= 0x01
			forged := parts[0] + "." + base64.RawURLEncoding.EncodeToString(tampered) + "." + parts[2]

			_, err := VerifyJWS(forged, []PublicKey{*publicKey})
			g.Expect(err).To(MatchError(ErrSignatureInvalid), "byte %d", i)
		}
	})

	t.Run("rejects malformed tokens", func(t *testing.T) {
		g := NewWithT(t)
		publicKey, _ := genTestKeys(t)

		for _, token := range []string{
			"",
			"invalid-token",
			"eyJhbGciOiJFZERTQSJ9.eyJpc3MiOiJteS12YS5jb20ifQ",
			"eyJhbGciOiJIUzI1NiJ9.eyJpc3MiOiJteS12YS5jb20ifQ.c2ln",
		} {
			_, err := VerifyJWS(token, []PublicKey{*publicKey})
			g.Expect(err).To(MatchError(ErrInvalidFormat), token)
		}
	})

	t.Run("rejects verified payloads that are not claims", func(t *testing.T) {
		g := NewWithT(t)
		publicKey, privateKey := genTestKeys(t)

		signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.EdDSA, Key: privateKey.Key}, nil)
		g.Expect(err).ToNot(HaveOccurred())
		signed, err := signer.Sign([]byte(`{"iss":"my-va.com","type":"human_effort","method":"physical_mail"}`))
		g.Expect(err).ToNot(HaveOccurred())
		token, err := signed.CompactSerialize()
		g.Expect(err).ToNot(HaveOccurred())

		_, err = VerifyJWS(token, []PublicKey{*publicKey})
		g.Expect(err).To(HaveOccurred())
		g.Expect(err).ToNot(MatchError(ErrSignatureInvalid))
	})
}
