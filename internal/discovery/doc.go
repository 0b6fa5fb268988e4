// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

// Package discovery fetches the key discovery documents and verification
// responses that HAP issuers publish over HTTPS.
//
// Key documents are cached per issuer with a TTL and concurrent lookups
// for the same issuer are coalesced into a single request.
package discovery
