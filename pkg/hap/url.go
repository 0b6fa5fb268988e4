// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"fmt"
	"net/url"
)

const (
	// CompactQueryParam is the query parameter that carries a compact string.
	CompactQueryParam = "c"

	// WellKnownPath is where issuers publish their key document.
	WellKnownPath = "/.well-known/hap.json"

	// VerifyPath is the prefix of the issuer's verification endpoint.
	// The claim ID is appended to it.
	VerifyPath = "/api/v1/verify/"
)

// CompactURL embeds the signed compact string into the base URL
// as the query parameter c. Existing query parameters are preserved.
func CompactURL(base, compact string) (string, error) {
	if !IsCompact(compact) {
		return "", InvalidEnvelopeError(ErrInvalidFormat)
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set(CompactQueryParam, compact)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// CompactFromURL extracts the compact string from the c query parameter.
// It returns false when the URL cannot be parsed or the parameter is
// absent or malformed.
func CompactFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return "", false
	}

	c := values.Get(CompactQueryParam)
	if !IsCompact(c) {
		return "", false
	}
	return c, true
}
