// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is returned when an identifier, compact string or JWS
// does not match the expected wire format.
var ErrInvalidFormat = errors.New("invalid format")

// ErrUnsupportedVersion is returned when the envelope or claim carries a
// protocol version this package does not implement.
var ErrUnsupportedVersion = errors.New("unsupported version")

// ErrSignatureInvalid is returned when none of the candidate keys verifies
// the envelope signature.
var ErrSignatureInvalid = errors.New("signature verification failed")

// ErrPrivateKeyRequired is returned when a private key is required but not provided.
var ErrPrivateKeyRequired = errors.New("private key is required")

// ErrPublicKeyInvalid is returned when a JWK does not hold an Ed25519 public key.
var ErrPublicKeyInvalid = errors.New("public key is not a valid Ed25519 JWK")

// ErrUnknownClaimType is returned for a claim type outside the protocol registry.
var ErrUnknownClaimType = errors.New("unknown claim type")

// ErrUnknownMethod is returned for a verification method outside the protocol registry.
var ErrUnknownMethod = errors.New("unknown method")

// ErrUnknownCommitment is returned for a commitment outside the protocol registry.
var ErrUnknownCommitment = errors.New("unknown commitment")

// ErrUnknownRevocationReason is returned for a revocation reason outside the protocol registry.
var ErrUnknownRevocationReason = errors.New("unknown revocation reason")

// ErrClaimIDInvalid is returned when the claim ID is neither a production nor a test ID.
var ErrClaimIDInvalid = errors.New("id is not a valid claim identifier")

// ErrClaimIssuerEmpty is returned when the claim issuer is empty.
var ErrClaimIssuerEmpty = errors.New("issuer (iss) cannot be empty")

// ErrClaimIssuedAtZero is returned when the claim issuance time is not set.
var ErrClaimIssuedAtZero = errors.New("issued at (at) cannot be zero")

// ErrClaimTimestampBeforeEpoch is returned when at or exp is not after the Unix epoch.
var ErrClaimTimestampBeforeEpoch = errors.New("timestamps (at, exp) must be after the Unix epoch")

// ErrClaimTimestampPrecision is returned when a claim with sub-second
// timestamps is encoded in the compact form, which carries Unix seconds.
var ErrClaimTimestampPrecision = errors.New("compact timestamps (at, exp) must be whole seconds")

// ErrClaimExpiryBeforeIssue is returned when the claim expires before it was issued.
var ErrClaimExpiryBeforeIssue = errors.New("expiry (exp) cannot be before issued at (at)")

// ErrClaimRecipientEmpty is returned when the claim target has no name.
var ErrClaimRecipientEmpty = errors.New("recipient name cannot be empty")

// ErrClaimPayloadMismatch is returned when the payload shape does not match the claim type.
var ErrClaimPayloadMismatch = errors.New("payload does not match claim type")

// ErrResponseMismatch is returned when a verification response carries
// a signed claim whose ID differs from the response ID.
var ErrResponseMismatch = errors.New("verification response does not match the signed claim")

// InvalidClaimError wraps an error with the "invalid claim" prefix.
func InvalidClaimError(err error) error {
	return fmt.Errorf("invalid claim: %w", err)
}

// InvalidEnvelopeError wraps an error with the "invalid envelope" prefix.
func InvalidEnvelopeError(err error) error {
	return fmt.Errorf("invalid envelope: %w", err)
}
