// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const (
	// IDPrefix is the prefix of every production claim identifier.
	IDPrefix = "hap_"

	// TestIDPrefix is the prefix of identifiers used for non-production previews.
	TestIDPrefix = "hap_test_"

	idLength     = 12
	testIDLength = 8
	idAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	idPattern     = regexp.MustCompile(`^hap_[A-Za-z0-9]{12}$`)
	testIDPattern = regexp.MustCompile(`^hap_test_[A-Za-z0-9]{8}$`)
)

// GenerateID returns a new production claim identifier made of the "hap_"
// prefix and 12 alphanumeric characters drawn from crypto/rand.
func GenerateID() (string, error) {
	suffix, err := randomAlphanumeric(idLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate claim ID: %w", err)
	}
	return IDPrefix + suffix, nil
}

// GenerateTestID returns a new test claim identifier made of the "hap_test_"
// prefix and 8 alphanumeric characters drawn from crypto/rand.
func GenerateTestID() (string, error) {
	suffix, err := randomAlphanumeric(testIDLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate test claim ID: %w", err)
	}
	return TestIDPrefix + suffix, nil
}

// IsValidID reports whether s is a production claim identifier.
func IsValidID(s string) bool {
	return idPattern.MatchString(s)
}

// IsTestID reports whether s is a test claim identifier.
func IsTestID(s string) bool {
	return testIDPattern.MatchString(s)
}

// randomAlphanumeric draws n characters uniformly from the 62 character alphabet.
func randomAlphanumeric(n int) (string, error) {
	limit := big.NewInt(int64(len(idAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = idAlphabet[idx.Int64()]
	}
	return string(buf), nil
}
