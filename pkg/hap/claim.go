// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"encoding/json"
	"fmt"
	"time"
)

// Target identifies the party a claim is about.
type Target struct {
	// Name is the display name of the party, e.g. a company name.
	// +required
	Name string `json:"name"`

	// Domain is the internet domain of the party.
	// +optional
	Domain string `json:"domain,omitempty"`
}

// Payload is the variant-specific part of a claim.
// It is implemented by EffortPayload and CommitmentPayload only.
type Payload interface {
	isPayload()
}

// EffortPayload is carried by human_effort, physical_delivery,
// financial_commitment and content_attestation claims.
type EffortPayload struct {
	// Method is how the VA verified the effort.
	// +required
	Method Method

	// Tier is an optional VA-defined grade of the effort.
	// +optional
	Tier string

	// To is the recipient the effort was made for.
	// +required
	To Target
}

func (EffortPayload) isPayload() {}

// CommitmentPayload is carried by recipient_commitment claims.
type CommitmentPayload struct {
	// Recipient is the party that made the commitment.
	// +required
	Recipient Target

	// Commitment is the outcome the recipient committed to.
	// +required
	Commitment Commitment
}

func (CommitmentPayload) isPayload() {}

// Claim is a statement a VA signs about a verification event or commitment.
// Claims are values: once signed their fields must not change.
type Claim struct {
	// Version is the protocol version (JSON "v").
	// +required
	Version string

	// ID is the opaque claim identifier (JSON "id").
	// +required
	ID string

	// Type selects the payload shape (JSON "type").
	// +required
	Type ClaimType

	// IssuedAt is the issuance time in UTC with second precision (JSON "at").
	// +required
	IssuedAt time.Time

	// Expires is the expiration time (JSON "exp"). The zero value means
	// the claim never expires.
	// +optional
	Expires time.Time

	// Issuer is the domain of the VA (JSON "iss").
	// +required
	Issuer string

	// Payload is an EffortPayload or a CommitmentPayload depending on Type.
	// +required
	Payload Payload
}

// Recipient returns the party the claim targets: To for effort claims
// and Recipient for commitment claims.
func (c *Claim) Recipient() Target {
	switch p := c.Payload.(type) {
	case EffortPayload:
		return p.To
	case CommitmentPayload:
		return p.Recipient
	default:
		return Target{}
	}
}

// Selector returns the method of effort claims or the commitment of
// commitment claims.
func (c *Claim) Selector() string {
	switch p := c.Payload.(type) {
	case EffortPayload:
		return string(p.Method)
	case CommitmentPayload:
		return string(p.Commitment)
	default:
		return ""
	}
}

var unixEpoch = time.Unix(0, 0)

// Validate checks that the claim has all the required fields, that its
// enums are registered values and that the payload matches the type.
func (c *Claim) Validate() error {
	if !IsValidID(c.ID) && !IsTestID(c.ID) {
		return InvalidClaimError(ErrClaimIDInvalid)
	}
	if !IsSupportedVersion(c.Version) {
		return InvalidClaimError(fmt.Errorf("%w: %q", ErrUnsupportedVersion, c.Version))
	}
	if !c.Type.Valid() {
		return InvalidClaimError(fmt.Errorf("%w: %q", ErrUnknownClaimType, c.Type))
	}
	if c.Issuer == "" {
		return InvalidClaimError(ErrClaimIssuerEmpty)
	}
	if c.IssuedAt.IsZero() {
		return InvalidClaimError(ErrClaimIssuedAtZero)
	}
	if !c.IssuedAt.After(unixEpoch) || (!c.Expires.IsZero() && !c.Expires.After(unixEpoch)) {
		return InvalidClaimError(ErrClaimTimestampBeforeEpoch)
	}
	if !c.Expires.IsZero() && c.Expires.Before(c.IssuedAt) {
		return InvalidClaimError(ErrClaimExpiryBeforeIssue)
	}

	switch p := c.Payload.(type) {
	case EffortPayload:
		if c.Type.IsCommitment() {
			return InvalidClaimError(ErrClaimPayloadMismatch)
		}
		if !p.Method.Valid() {
			return InvalidClaimError(fmt.Errorf("%w: %q", ErrUnknownMethod, p.Method))
		}
		if p.To.Name == "" {
			return InvalidClaimError(ErrClaimRecipientEmpty)
		}
	case CommitmentPayload:
		if !c.Type.IsCommitment() {
			return InvalidClaimError(ErrClaimPayloadMismatch)
		}
		if !p.Commitment.Valid() {
			return InvalidClaimError(fmt.Errorf("%w: %q", ErrUnknownCommitment, p.Commitment))
		}
		if p.Recipient.Name == "" {
			return InvalidClaimError(ErrClaimRecipientEmpty)
		}
	default:
		return InvalidClaimError(ErrClaimPayloadMismatch)
	}
	return nil
}

// claimJSON is the flat wire shape of a claim.
type claimJSON struct {
	Version    string  `json:"v"`
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Method     string  `json:"method,omitempty"`
	Tier       string  `json:"tier,omitempty"`
	To         *Target `json:"to,omitempty"`
	Recipient  *Target `json:"recipient,omitempty"`
	Commitment string  `json:"commitment,omitempty"`
	At         string  `json:"at"`
	Exp        string  `json:"exp,omitempty"`
	Issuer     string  `json:"iss"`
}

// MarshalJSON encodes the claim in its flat wire shape with
// ISO-8601 UTC timestamps.
func (c Claim) MarshalJSON() ([]byte, error) {
	wire := claimJSON{
		Version: c.Version,
		ID:      c.ID,
		Type:    string(c.Type),
		At:      c.IssuedAt.UTC().Format(time.RFC3339),
		Issuer:  c.Issuer,
	}
	if !c.Expires.IsZero() {
		wire.Exp = c.Expires.UTC().Format(time.RFC3339)
	}

	switch p := c.Payload.(type) {
	case EffortPayload:
		to := p.To
		wire.Method = string(p.Method)
		wire.Tier = p.Tier
		wire.To = &to
	case CommitmentPayload:
		recipient := p.Recipient
		wire.Commitment = string(p.Commitment)
		wire.Recipient = &recipient
	default:
		return nil, InvalidClaimError(ErrClaimPayloadMismatch)
	}

	return json.Marshal(wire)
}

// UnmarshalJSON decodes a claim from its wire shape. Unknown fields are
// ignored while unknown enum values are rejected.
func (c *Claim) UnmarshalJSON(data []byte) error {
	var wire claimJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	claimType, err := ParseClaimType(wire.Type)
	if err != nil {
		return err
	}

	issuedAt, err := parseTimestamp(wire.At)
	if err != nil {
		return fmt.Errorf("failed to parse issued at (at): %w", err)
	}

	var expires time.Time
	if wire.Exp != "" {
		expires, err = parseTimestamp(wire.Exp)
		if err != nil {
			return fmt.Errorf("failed to parse expiry (exp): %w", err)
		}
	}

	var payload Payload
	if claimType.IsCommitment() {
		commitment, err := ParseCommitment(wire.Commitment)
		if err != nil {
			return err
		}
		p := CommitmentPayload{Commitment: commitment}
		if wire.Recipient != nil {
			p.Recipient = *wire.Recipient
		}
		payload = p
	} else {
		method, err := ParseMethod(wire.Method)
		if err != nil {
			return err
		}
		p := EffortPayload{Method: method, Tier: wire.Tier}
		if wire.To != nil {
			p.To = *wire.To
		}
		payload = p
	}

	*c = Claim{
		Version:  wire.Version,
		ID:       wire.ID,
		Type:     claimType,
		IssuedAt: issuedAt,
		Expires:  expires,
		Issuer:   wire.Issuer,
		Payload:  payload,
	}
	return nil
}

// String returns an indented JSON representation of the claim.
func (c Claim) String() string {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "invalid claim"
	}
	return string(data)
}

// parseTimestamp parses an ISO-8601 timestamp with optional fractional seconds.
func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
