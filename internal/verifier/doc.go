// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package verifier runs the end-to-end verification of HAP envelopes:
// it locates the issuer, resolves the issuer's keys, verifies the
// signature and evaluates the claim lifecycle.
package verifier
