// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package hap implements the HAP attestation claim protocol: signed statements
// that a Verification Authority (VA) makes about an action a sender took for a
// recipient.
//
// The package is built on the following primitives:
//
//   - Ed25519 digital signatures (EdDSA) for every envelope format
//   - JSON Web Key (JWK) format for publishing the VA public keys
//   - JSON Web Signature (JWS) compact serialization for the JSON envelope
//   - A dot-delimited, URL-embeddable compact line (HAP1) for short links
//
// Claims are immutable values. Signing never mutates a claim and verification
// decodes the claim from the exact bytes covered by the signature, so an
// envelope produced by any conforming implementation verifies here without
// re-serialization.
//
// Verification answers whether a claim is authentically signed by one of the
// candidate keys. Expiration, revocation and recipient targeting are evaluated
// separately on the decoded claim; revocation is carried as already-fetched
// data and never alters the signature verdict.
//
// The package performs no network I/O and holds no mutable shared state, so
// every function is safe for concurrent use. Fetching the issuer key document
// is the caller's responsibility. File I/O is limited to the key persistence
// helpers: KeyDocument.WriteFile, KeyDocumentFromFile, PrivateKeySet.WriteFile
// and PrivateKeyFromFile.
package hap
