// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"strings"
	"time"
)

// IsExpired reports whether the claim has an expiry and now is past it.
// A claim expiring exactly at now is not expired.
func (c *Claim) IsExpired(now time.Time) bool {
	return !c.Expires.IsZero() && now.After(c.Expires)
}

// IsForRecipient reports whether the claim targets the given domain.
// The comparison is case-insensitive and a claim without a domain
// matches no domain.
func (c *Claim) IsForRecipient(domain string) bool {
	target := c.Recipient().Domain
	if target == "" || domain == "" {
		return false
	}
	return strings.EqualFold(target, domain)
}

// RevocationStatus is the issuer-side revocation state of a claim
// as reported by the verification endpoint.
type RevocationStatus struct {
	Revoked   bool
	Reason    RevocationReason
	RevokedAt time.Time
}

// Evaluation is the lifecycle state of a verified claim.
// Revocation does not invalidate the signature.
type Evaluation struct {
	Expired    bool
	Revocation RevocationStatus
}

// Active reports whether the claim is neither expired nor revoked.
func (e Evaluation) Active() bool {
	return !e.Expired && !e.Revocation.Revoked
}

// Evaluate checks the claim's lifecycle at the given time.
func Evaluate(c *Claim, status RevocationStatus, now time.Time) Evaluation {
	return Evaluation{
		Expired:    c.IsExpired(now),
		Revocation: status,
	}
}
