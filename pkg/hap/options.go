// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"time"
)

// claimOptions holds the internal configuration for the claim constructors.
type claimOptions struct {
	tier       string
	expiryDays int
	issuedAt   time.Time
	id         string
	testID     bool
}

// ClaimOption configures a claim constructor.
type ClaimOption func(*claimOptions)

// ClaimOpt contains options for the claim constructors.
var ClaimOpt claimOptionBuilder

// claimOptionBuilder is the internal builder for ClaimOption functions.
type claimOptionBuilder struct{}

// WithTier sets the optional effort tier. Ignored for commitment claims.
func (claimOptionBuilder) WithTier(tier string) ClaimOption {
	return func(opts *claimOptions) {
		opts.tier = tier
	}
}

// WithExpiryDays sets the claim to expire the given number of days after
// issuance. Zero or negative values produce a claim that never expires.
func (claimOptionBuilder) WithExpiryDays(days int) ClaimOption {
	return func(opts *claimOptions) {
		opts.expiryDays = days
	}
}

// WithIssuedAt overrides the issuance time, which defaults to now.
// The time is converted to UTC and truncated to whole seconds.
func (claimOptionBuilder) WithIssuedAt(t time.Time) ClaimOption {
	return func(opts *claimOptions) {
		opts.issuedAt = t
	}
}

// WithID sets an explicit claim ID instead of generating one.
func (claimOptionBuilder) WithID(id string) ClaimOption {
	return func(opts *claimOptions) {
		opts.id = id
	}
}

// WithTestID generates a test ID (hap_test_...) for non-production previews.
func (claimOptionBuilder) WithTestID() ClaimOption {
	return func(opts *claimOptions) {
		opts.testID = true
	}
}

// NewEffortClaim creates a claim of an effort type (human_effort,
// physical_delivery, financial_commitment or content_attestation).
// Unknown types or methods are rejected.
func NewEffortClaim(typ ClaimType, method Method, to Target, issuer string, opts ...ClaimOption) (*Claim, error) {
	if typ.IsCommitment() {
		return nil, InvalidClaimError(ErrClaimPayloadMismatch)
	}
	o := applyClaimOptions(opts)
	payload := EffortPayload{
		Method: method,
		Tier:   o.tier,
		To:     to,
	}
	return newClaim(typ, payload, issuer, o)
}

// NewHumanEffortClaim creates a human_effort claim.
func NewHumanEffortClaim(method Method, to Target, issuer string, opts ...ClaimOption) (*Claim, error) {
	return NewEffortClaim(ClaimTypeHumanEffort, method, to, issuer, opts...)
}

// NewRecipientCommitmentClaim creates a recipient_commitment claim.
func NewRecipientCommitmentClaim(recipient Target, commitment Commitment, issuer string, opts ...ClaimOption) (*Claim, error) {
	o := applyClaimOptions(opts)
	payload := CommitmentPayload{
		Recipient:  recipient,
		Commitment: commitment,
	}
	return newClaim(ClaimTypeRecipientCommitment, payload, issuer, o)
}

func applyClaimOptions(opts []ClaimOption) *claimOptions {
	o := &claimOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func newClaim(typ ClaimType, payload Payload, issuer string, o *claimOptions) (*Claim, error) {
	id := o.id
	if id == "" {
		var err error
		if o.testID {
			id, err = GenerateTestID()
		} else {
			id, err = GenerateID()
		}
		if err != nil {
			return nil, err
		}
	}

	issuedAt := o.issuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}
	issuedAt = issuedAt.UTC().Truncate(time.Second)

	c := &Claim{
		Version:  ProtocolVersion,
		ID:       id,
		Type:     typ,
		IssuedAt: issuedAt,
		Issuer:   issuer,
		Payload:  payload,
	}
	if o.expiryDays > 0 {
		c.Expires = issuedAt.AddDate(0, 0, o.expiryDays)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
