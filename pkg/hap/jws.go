// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// SignJWS signs the JSON encoding of the claim with the private key and
// returns a compact JWS. The protected header is {"alg":"EdDSA","kid":...}.
func SignJWS(c *Claim, key *PrivateKey) (string, error) {
	if key == nil || len(key.Key) != ed25519.PrivateKeySize {
		return "", ErrPrivateKeyRequired
	}
	if err := c.Validate(); err != nil {
		return "", err
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claim: %w", err)
	}

	signerOpts := jose.SignerOptions{}
	signerOpts.WithHeader("kid", key.KeyID)

	signer, err := jose.NewSigner(jose.SigningKey{
		Algorithm: jose.EdDSA,
		Key:       key.Key,
	}, &signerOpts)
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}

	signed, err := signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("failed to sign payload: %w", err)
	}

	token, err := signed.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize signed claim: %w", err)
	}
	return token, nil
}

// VerifyJWS verifies a compact JWS against the candidate keys, tried in
// the given order. The claim is decoded from the verified payload bytes
// as carried in the envelope. If no key matches, ErrSignatureInvalid is returned.
func VerifyJWS(token string, keys []PublicKey) (*Verified, error) {
	jws, err := parseJWS(token)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		if len(key.Key) != ed25519.PublicKeySize {
			continue
		}
		payload, err := jws.Verify(key.Key)
		if err != nil {
			continue
		}

		c, err := decodeJSONClaim(payload)
		if err != nil {
			return nil, err
		}
		return &Verified{
			Claim:   c,
			KeyID:   key.KeyID,
			Format:  FormatJWS,
			Payload: payload,
		}, nil
	}

	return nil, ErrSignatureInvalid
}

func parseJWS(token string) (*jose.JSONWebSignature, error) {
	jws, err := jose.ParseSignedCompact(token, []jose.SignatureAlgorithm{jose.EdDSA})
	if err != nil {
		return nil, InvalidEnvelopeError(fmt.Errorf("%w: %w", ErrInvalidFormat, err))
	}
	if len(jws.Signatures) == 0 {
		return nil, InvalidEnvelopeError(fmt.Errorf("%w: signature not found", ErrInvalidFormat))
	}
	return jws, nil
}

func decodeJSONClaim(payload []byte) (*Claim, error) {
	var c Claim
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, InvalidEnvelopeError(err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
