// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import "fmt"

// ClaimType identifies the kind of statement a claim makes.
type ClaimType string

const (
	// ClaimTypeHumanEffort attests that the sender spent verifiable effort on the recipient.
	ClaimTypeHumanEffort ClaimType = "human_effort"

	// ClaimTypeRecipientCommitment attests that the recipient committed to an outcome.
	ClaimTypeRecipientCommitment ClaimType = "recipient_commitment"

	// ClaimTypePhysicalDelivery attests that the sender delivered a physical item.
	ClaimTypePhysicalDelivery ClaimType = "physical_delivery"

	// ClaimTypeFinancialCommitment attests that the sender put money at stake.
	ClaimTypeFinancialCommitment ClaimType = "financial_commitment"

	// ClaimTypeContentAttestation attests that the sender authored reviewed content.
	ClaimTypeContentAttestation ClaimType = "content_attestation"

	// claimTypeEmployerCommitment is the legacy name of ClaimTypeRecipientCommitment.
	claimTypeEmployerCommitment ClaimType = "employer_commitment"
)

// Valid reports whether t is a registered claim type.
func (t ClaimType) Valid() bool {
	switch t {
	case ClaimTypeHumanEffort, ClaimTypeRecipientCommitment, ClaimTypePhysicalDelivery,
		ClaimTypeFinancialCommitment, ClaimTypeContentAttestation:
		return true
	}
	return false
}

// IsCommitment reports whether claims of type t carry a CommitmentPayload.
func (t ClaimType) IsCommitment() bool {
	return t == ClaimTypeRecipientCommitment
}

// ParseClaimType returns the ClaimType for s. The legacy employer_commitment
// name is accepted and mapped to recipient_commitment.
func ParseClaimType(s string) (ClaimType, error) {
	t := ClaimType(s)
	if t == claimTypeEmployerCommitment {
		return ClaimTypeRecipientCommitment, nil
	}
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownClaimType, s)
	}
	return t, nil
}

// Method is the verification method a VA used to attest effort.
type Method string

const (
	MethodPhysicalMail      Method = "physical_mail"
	MethodVideoInterview    Method = "video_interview"
	MethodPaidAssessment    Method = "paid_assessment"
	MethodReferral          Method = "referral"
	MethodCertifiedDelivery Method = "certified_delivery"
	MethodEscrowDeposit     Method = "escrow_deposit"
	MethodContentReview     Method = "content_review"
)

// Methods lists every registered verification method.
var Methods = []Method{
	MethodPhysicalMail,
	MethodVideoInterview,
	MethodPaidAssessment,
	MethodReferral,
	MethodCertifiedDelivery,
	MethodEscrowDeposit,
	MethodContentReview,
}

// Valid reports whether m is a registered method.
func (m Method) Valid() bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMethod returns the Method for s.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
	return m, nil
}

// Commitment is the outcome a recipient committed to.
type Commitment string

const (
	CommitmentReviewVerified      Commitment = "review_verified"
	CommitmentInterviewGuaranteed Commitment = "interview_guaranteed"
	CommitmentResponseGuaranteed  Commitment = "response_guaranteed"
	CommitmentFeedbackProvided    Commitment = "feedback_provided"
)

// Commitments lists every registered commitment.
var Commitments = []Commitment{
	CommitmentReviewVerified,
	CommitmentInterviewGuaranteed,
	CommitmentResponseGuaranteed,
	CommitmentFeedbackProvided,
}

// Valid reports whether c is a registered commitment.
func (c Commitment) Valid() bool {
	for _, known := range Commitments {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCommitment returns the Commitment for s.
func ParseCommitment(s string) (Commitment, error) {
	c := Commitment(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommitment, s)
	}
	return c, nil
}

// RevocationReason explains why an issuer revoked a claim.
type RevocationReason string

const (
	RevocationReasonFraud       RevocationReason = "fraud"
	RevocationReasonError       RevocationReason = "error"
	RevocationReasonLegal       RevocationReason = "legal"
	RevocationReasonUserRequest RevocationReason = "user_request"
)

// Valid reports whether r is a registered revocation reason.
func (r RevocationReason) Valid() bool {
	switch r {
	case RevocationReasonFraud, RevocationReasonError, RevocationReasonLegal, RevocationReasonUserRequest:
		return true
	}
	return false
}

// ParseRevocationReason returns the RevocationReason for s.
func ParseRevocationReason(s string) (RevocationReason, error) {
	r := RevocationReason(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRevocationReason, s)
	}
	return r, nil
}
