// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"fmt"
	"net/url"
	"strings"
)

const upperHex = "0123456789ABCDEF"

// escapeField percent-encodes a compact field. Bytes outside the
// unreserved set A-Z a-z 0-9 - _ . ! ~ * ' ( ) are escaped, then the
// delimiter '.' is escaped as %2E.
func escapeField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '.':
			b.WriteString("%2E")
		case isUnreserved(c):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0x0f])
		}
	}
	return b.String()
}

// unescapeField reverses escapeField. '+' is kept as a literal plus.
func unescapeField(s string) (string, error) {
	v, err := url.PathUnescape(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return v, nil
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
