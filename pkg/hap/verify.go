// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format is the envelope encoding of a signed claim.
type Format string

const (
	// FormatJWS is the JSON claim wrapped in a compact JWS.
	FormatJWS Format = "jws"

	// FormatCompact is the dot-delimited HAP line.
	FormatCompact Format = "compact"
)

// Verified is the result of a successful signature verification.
type Verified struct {
	// Claim is decoded from the verified payload.
	Claim *Claim

	// KeyID is the ID of the key that verified the signature.
	KeyID string

	// Format is the envelope encoding.
	Format Format

	// Payload holds the exact bytes covered by the signature.
	Payload []byte
}

// DetectFormat returns the envelope format of s without validating it.
func DetectFormat(envelope string) (Format, error) {
	token, _, _ := strings.Cut(envelope, ".")
	switch {
	case compactVersionPattern.MatchString(token):
		return FormatCompact, nil
	case strings.Count(envelope, ".") == 2:
		return FormatJWS, nil
	default:
		return "", InvalidEnvelopeError(ErrInvalidFormat)
	}
}

// Verify verifies a JWS or compact envelope against the candidate keys.
func Verify(envelope string, keys []PublicKey) (*Verified, error) {
	format, err := DetectFormat(envelope)
	if err != nil {
		return nil, err
	}
	if format == FormatCompact {
		return VerifyCompact(envelope, keys)
	}
	return VerifyJWS(envelope, keys)
}

// Peek decodes the claim of an envelope without verifying its signature.
// The result must not be trusted; it is meant for inspection and for
// locating the issuer's keys.
func Peek(envelope string) (*Claim, error) {
	format, err := DetectFormat(envelope)
	if err != nil {
		return nil, err
	}

	if format == FormatCompact {
		c, _, err := DecodeCompact(envelope)
		return c, err
	}

	jws, err := parseJWS(envelope)
	if err != nil {
		return nil, err
	}
	return decodeJSONClaim(jws.UnsafePayloadWithoutVerification())
}

// PeekIssuer returns the unverified issuer of an envelope so that the
// caller can fetch the issuer's keys before verifying.
func PeekIssuer(envelope string) (string, error) {
	format, err := DetectFormat(envelope)
	if err != nil {
		return "", err
	}

	var issuer string
	if format == FormatCompact {
		c, _, err := DecodeCompact(envelope)
		if err != nil {
			return "", err
		}
		issuer = c.Issuer
	} else {
		jws, err := parseJWS(envelope)
		if err != nil {
			return "", err
		}
		var claims struct {
			Issuer string `json:"iss"`
		}
		if err := json.Unmarshal(jws.UnsafePayloadWithoutVerification(), &claims); err != nil {
			return "", InvalidEnvelopeError(fmt.Errorf("%w: %w", ErrInvalidFormat, err))
		}
		issuer = claims.Issuer
	}

	if issuer == "" {
		return "", InvalidEnvelopeError(ErrClaimIssuerEmpty)
	}
	return issuer, nil
}
