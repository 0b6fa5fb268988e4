// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"encoding/json"
	"fmt"
)

// VerificationResponse is the document returned by the issuer's
// verification endpoint https://<issuer>/api/v1/verify/<id>.
type VerificationResponse struct {
	Valid            bool            `json:"valid"`
	ID               string          `json:"id,omitempty"`
	Claims           json.RawMessage `json:"claims,omitempty"`
	JWS              string          `json:"jws,omitempty"`
	Issuer           string          `json:"issuer,omitempty"`
	VerifyURL        string          `json:"verifyUrl,omitempty"`
	Revoked          bool            `json:"revoked,omitempty"`
	RevocationReason string          `json:"revocationReason,omitempty"`
	RevokedAt        string          `json:"revokedAt,omitempty"`
	Error            string          `json:"error,omitempty"`
}

// ParseVerificationResponse decodes a verification response.
// Unknown fields are ignored while unknown revocation reasons and
// malformed revocation timestamps are rejected.
func ParseVerificationResponse(data []byte) (*VerificationResponse, error) {
	var r VerificationResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verification response: %w", err)
	}

	if r.RevocationReason != "" {
		if _, err := ParseRevocationReason(r.RevocationReason); err != nil {
			return nil, err
		}
	}
	if r.RevokedAt != "" {
		if _, err := parseTimestamp(r.RevokedAt); err != nil {
			return nil, fmt.Errorf("failed to parse revokedAt: %w", err)
		}
	}
	return &r, nil
}

// Revocation returns the revocation state carried by the response.
func (r *VerificationResponse) Revocation() RevocationStatus {
	status := RevocationStatus{
		Revoked: r.Revoked,
		Reason:  RevocationReason(r.RevocationReason),
	}
	if r.RevokedAt != "" {
		if t, err := parseTimestamp(r.RevokedAt); err == nil {
			status.RevokedAt = t
		}
	}
	return status
}

// Claim decodes the unsigned claims field of the response.
// The result is informational; use VerifyWith to obtain a trusted claim.
func (r *VerificationResponse) Claim() (*Claim, error) {
	if len(r.Claims) == 0 {
		return nil, fmt.Errorf("verification response has no claims")
	}
	return decodeJSONClaim(r.Claims)
}

// VerifyWith verifies the JWS carried by the response against the keys.
// Signature validity is independent of the revocation state.
func (r *VerificationResponse) VerifyWith(keys []PublicKey) (*Verified, error) {
	if r.JWS == "" {
		return nil, InvalidEnvelopeError(fmt.Errorf("%w: verification response has no jws", ErrInvalidFormat))
	}

	verified, err := VerifyJWS(r.JWS, keys)
	if err != nil {
		return nil, err
	}
	if r.ID != "" && verified.Claim.ID != r.ID {
		return nil, fmt.Errorf("%w: response id %s, claim id %s", ErrResponseMismatch, r.ID, verified.Claim.ID)
	}
	return verified, nil
}
