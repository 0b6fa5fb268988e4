// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package verifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/opencontainers/go-digest"

	"github.com/controlplaneio-fluxcd/hap/pkg/hap"
)

// Outcome is the final state of a verification.
type Outcome string

const (
	OutcomeValid            Outcome = "valid"
	OutcomeExpired          Outcome = "expired"
	OutcomeRevoked          Outcome = "revoked"
	OutcomeWrongRecipient   Outcome = "wrong_recipient"
	OutcomeInvalidSignature Outcome = "invalid_signature"
	OutcomeMalformed        Outcome = "malformed"
	OutcomeKeysUnavailable  Outcome = "keys_unavailable"
	OutcomeRevocationFailed Outcome = "revocation_failed"
)

// KeySource resolves the public keys of an issuer.
type KeySource interface {
	PublicKeys(ctx context.Context, issuer string) ([]hap.PublicKey, error)
}

// RevocationSource fetches the issuer's verification response for a claim.
type RevocationSource interface {
	Verification(ctx context.Context, issuer, id string) (*hap.VerificationResponse, error)
}

// invalidator is implemented by key sources that cache keys.
// Invalidate reports whether the cached keys were discarded.
type invalidator interface {
	Invalidate(issuer string) bool
}

// StaticKeys is a KeySource that serves the same keys for every issuer.
type StaticKeys []hap.PublicKey

// PublicKeys returns the static keys.
func (k StaticKeys) PublicKeys(context.Context, string) ([]hap.PublicKey, error) {
	if len(k) == 0 {
		return nil, errors.New("no public keys configured")
	}
	return k, nil
}

// Request describes a verification.
type Request struct {
	// Envelope is a JWS or compact string.
	Envelope string

	// Recipient is the domain the claim must target. Optional.
	Recipient string

	// CheckRevocation queries the issuer's verification endpoint.
	CheckRevocation bool
}

// Result is the outcome of a verification with a valid signature.
type Result struct {
	Outcome    Outcome
	Issuer     string
	Digest     digest.Digest
	Verified   *hap.Verified
	Evaluation hap.Evaluation
}

// Verifier verifies envelopes against the keys published by their issuers.
type Verifier struct {
	keys        KeySource
	revocations RevocationSource
	now         func() time.Time
}

// New returns a Verifier. The revocation source may be nil, in which
// case revocation checks are rejected.
func New(keys KeySource, revocations RevocationSource) *Verifier {
	return &Verifier{
		keys:        keys,
		revocations: revocations,
		now:         time.Now,
	}
}

// Verify peeks the issuer of the envelope, resolves its keys, verifies
// the signature and evaluates the claim. A returned error means the
// signature could not be established; expiry, revocation and recipient
// mismatches are reported in the Result outcome.
func (v *Verifier) Verify(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	dgst := digest.FromString(req.Envelope)
	log := logr.FromContextOrDiscard(ctx).WithValues("digest", dgst.String())

	format := "unknown"
	if f, err := hap.DetectFormat(req.Envelope); err == nil {
		format = string(f)
	}

	issuer, err := hap.PeekIssuer(req.Envelope)
	if err != nil {
		recordMetrics(format, OutcomeMalformed, start)
		return nil, err
	}
	log = log.WithValues("issuer", issuer)

	verified, err := v.verifySignature(ctx, log, issuer, req.Envelope)
	if err != nil {
		outcome := OutcomeMalformed
		switch {
		case errors.Is(err, hap.ErrSignatureInvalid):
			outcome = OutcomeInvalidSignature
		case errors.Is(err, errKeysUnavailable):
			outcome = OutcomeKeysUnavailable
		}
		recordMetrics(format, outcome, start)
		log.V(1).Info("verification failed", "outcome", outcome, "error", err.Error())
		return nil, err
	}

	var status hap.RevocationStatus
	if req.CheckRevocation {
		status, err = v.revocation(ctx, issuer, verified.Claim.ID)
		if err != nil {
			recordMetrics(format, OutcomeRevocationFailed, start)
			return nil, err
		}
	}

	result := &Result{
		Issuer:     issuer,
		Digest:     dgst,
		Verified:   verified,
		Evaluation: hap.Evaluate(verified.Claim, status, v.now()),
	}

	switch {
	case result.Evaluation.Revocation.Revoked:
		result.Outcome = OutcomeRevoked
	case result.Evaluation.Expired:
		result.Outcome = OutcomeExpired
	case req.Recipient != "" && !verified.Claim.IsForRecipient(req.Recipient):
		result.Outcome = OutcomeWrongRecipient
	default:
		result.Outcome = OutcomeValid
	}

	recordMetrics(format, result.Outcome, start)
	log.Info("envelope verified",
		"id", verified.Claim.ID,
		"kid", verified.KeyID,
		"outcome", result.Outcome)

	return result, nil
}

var errKeysUnavailable = errors.New("issuer keys unavailable")

// verifySignature verifies the envelope with the issuer's keys. When the
// keys come from a cache and none of them matches, the cache entry is
// invalidated and the verification is retried once with fresh keys.
func (v *Verifier) verifySignature(ctx context.Context, log logr.Logger, issuer, envelope string) (*hap.Verified, error) {
	keys, err := v.keys.PublicKeys(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errKeysUnavailable, err)
	}

	verified, err := hap.Verify(envelope, keys)
	if err == nil || !errors.Is(err, hap.ErrSignatureInvalid) {
		return verified, err
	}

	inv, ok := v.keys.(invalidator)
	if !ok {
		return nil, err
	}

	if !inv.Invalidate(issuer) {
		log.V(1).Info("no cached key matched, keys were refreshed recently")
		return nil, err
	}
	log.V(1).Info("no cached key matched, refreshing keys")

	keys, err = v.keys.PublicKeys(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errKeysUnavailable, err)
	}
	return hap.Verify(envelope, keys)
}

func (v *Verifier) revocation(ctx context.Context, issuer, id string) (hap.RevocationStatus, error) {
	if v.revocations == nil {
		return hap.RevocationStatus{}, errors.New("revocation source is not configured")
	}

	resp, err := v.revocations.Verification(ctx, issuer, id)
	if err != nil {
		return hap.RevocationStatus{}, fmt.Errorf("failed to check revocation: %w", err)
	}
	return resp.Revocation(), nil
}
