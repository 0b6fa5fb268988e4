// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	compactFields        = 10
	compactPayloadFields = 9
)

var (
	compactPattern        = regexp.MustCompile(`^HAP1\.hap_[A-Za-z0-9_]+\.[a-z_]+\.[a-z_]+\.[^.]+\.[^.]*\.\d+\.\d+\.[^.]+\.[A-Za-z0-9_-]+$`)
	compactVersionPattern = regexp.MustCompile(`^HAP\d+$`)
)

// compactVersionToken returns the leading token of compact strings, e.g. HAP1.
func compactVersionToken() string {
	return "HAP" + strconv.Itoa(CompactVersion)
}

// IsCompact reports whether s is a well-formed signed compact string.
func IsCompact(s string) bool {
	return compactPattern.MatchString(s)
}

// EncodeCompactPayload returns the nine field compact payload of the claim.
// This exact string is the message signed by SignCompact.
func EncodeCompactPayload(c *Claim) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if c.IssuedAt.Nanosecond() != 0 || c.Expires.Nanosecond() != 0 {
		return "", InvalidClaimError(ErrClaimTimestampPrecision)
	}

	to := c.Recipient()
	exp := "0"
	if !c.Expires.IsZero() {
		exp = strconv.FormatInt(c.Expires.Unix(), 10)
	}

	fields := []string{
		compactVersionToken(),
		c.ID,
		string(c.Type),
		c.Selector(),
		escapeField(to.Name),
		escapeField(to.Domain),
		strconv.FormatInt(c.IssuedAt.Unix(), 10),
		exp,
		escapeField(c.Issuer),
	}
	return strings.Join(fields, "."), nil
}

// EncodeCompact returns the signed compact string of the claim with
// the raw signature appended as base64url without padding.
func EncodeCompact(c *Claim, signature []byte) (string, error) {
	if len(signature) == 0 {
		return "", InvalidEnvelopeError(fmt.Errorf("%w: empty signature", ErrInvalidFormat))
	}
	payload, err := EncodeCompactPayload(c)
	if err != nil {
		return "", err
	}
	return payload + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}

// DecodeCompact parses a signed compact string without verifying it and
// returns the claim together with the raw signature bytes.
func DecodeCompact(s string) (*Claim, []byte, error) {
	fields, err := splitCompact(s)
	if err != nil {
		return nil, nil, err
	}

	signature, err := base64.RawURLEncoding.DecodeString(fields[compactFields-1])
	if err != nil {
		return nil, nil, InvalidEnvelopeError(fmt.Errorf("%w: signature: %w", ErrInvalidFormat, err))
	}

	c, err := decodeCompactPayload(fields[:compactPayloadFields])
	if err != nil {
		return nil, nil, err
	}
	return c, signature, nil
}

// SignCompact signs the compact payload of the claim with the private key
// and returns the signed compact string.
func SignCompact(c *Claim, key *PrivateKey) (string, error) {
	if key == nil || len(key.Key) != ed25519.PrivateKeySize {
		return "", ErrPrivateKeyRequired
	}
	payload, err := EncodeCompactPayload(c)
	if err != nil {
		return "", err
	}
	signature := ed25519.Sign(key.Key, []byte(payload))
	return payload + "." + base64.RawURLEncoding.EncodeToString(signature), nil
}

// VerifyCompact verifies a signed compact string against the candidate keys,
// tried in the given order. The claim is decoded from the payload only after
// a key verifies the signature. If no key matches, ErrSignatureInvalid is returned.
func VerifyCompact(s string, keys []PublicKey) (*Verified, error) {
	fields, err := splitCompact(s)
	if err != nil {
		return nil, err
	}

	sep := strings.LastIndexByte(s, '.')
	payload := s[:sep]
	signature, err := base64.RawURLEncoding.DecodeString(s[sep+1:])
	if err != nil || len(signature) != ed25519.SignatureSize {
		return nil, ErrSignatureInvalid
	}

	for _, key := range keys {
		if len(key.Key) != ed25519.PublicKeySize {
			continue
		}
		if !ed25519.Verify(key.Key, []byte(payload), signature) {
			continue
		}

		c, err := decodeCompactPayload(fields[:compactPayloadFields])
		if err != nil {
			return nil, err
		}
		return &Verified{
			Claim:   c,
			KeyID:   key.KeyID,
			Format:  FormatCompact,
			Payload: []byte(payload),
		}, nil
	}

	return nil, ErrSignatureInvalid
}

// splitCompact checks the version token and the compact pattern,
// then splits s into its ten fields.
func splitCompact(s string) ([]string, error) {
	token, _, _ := strings.Cut(s, ".")
	if compactVersionPattern.MatchString(token) && token != compactVersionToken() {
		return nil, InvalidEnvelopeError(fmt.Errorf("%w: %s", ErrUnsupportedVersion, token))
	}
	if !compactPattern.MatchString(s) {
		return nil, InvalidEnvelopeError(ErrInvalidFormat)
	}

	fields := strings.Split(s, ".")
	if len(fields) != compactFields {
		return nil, InvalidEnvelopeError(fmt.Errorf("%w: expected %d fields, got %d", ErrInvalidFormat, compactFields, len(fields)))
	}
	return fields, nil
}

// decodeCompactPayload builds a claim from the nine payload fields.
func decodeCompactPayload(fields []string) (*Claim, error) {
	claimType, err := ParseClaimType(fields[2])
	if err != nil {
		return nil, InvalidEnvelopeError(err)
	}

	name, err := unescapeField(fields[4])
	if err != nil {
		return nil, InvalidEnvelopeError(err)
	}
	domain, err := unescapeField(fields[5])
	if err != nil {
		return nil, InvalidEnvelopeError(err)
	}
	issuer, err := unescapeField(fields[8])
	if err != nil {
		return nil, InvalidEnvelopeError(err)
	}

	at, err := strconv.ParseInt(fields[6], 10, 64)
	if err != nil {
		return nil, InvalidEnvelopeError(fmt.Errorf("%w: at: %w", ErrInvalidFormat, err))
	}
	exp, err := strconv.ParseInt(fields[7], 10, 64)
	if err != nil {
		return nil, InvalidEnvelopeError(fmt.Errorf("%w: exp: %w", ErrInvalidFormat, err))
	}

	target := Target{Name: name, Domain: domain}
	var payload Payload
	if claimType.IsCommitment() {
		commitment, err := ParseCommitment(fields[3])
		if err != nil {
			return nil, InvalidEnvelopeError(err)
		}
		payload = CommitmentPayload{Recipient: target, Commitment: commitment}
	} else {
		method, err := ParseMethod(fields[3])
		if err != nil {
			return nil, InvalidEnvelopeError(err)
		}
		payload = EffortPayload{Method: method, To: target}
	}

	c := &Claim{
		Version:  ProtocolVersion,
		ID:       fields[1],
		Type:     claimType,
		IssuedAt: time.Unix(at, 0).UTC(),
		Issuer:   issuer,
		Payload:  payload,
	}
	// Zero means the claim never expires.
	if exp != 0 {
		c.Expires = time.Unix(exp, 0).UTC()
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
