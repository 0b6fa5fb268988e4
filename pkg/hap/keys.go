// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

// PublicKey is an envelope for an Ed25519 public key and its key ID.
type PublicKey struct {
	// Key is the Ed25519 public key.
	Key ed25519.PublicKey

	// KeyID is the identifier published in the issuer's key document.
	KeyID string
}

// PrivateKey is an envelope for an Ed25519 private key,
// including its key ID and the issuer domain.
type PrivateKey struct {
	// Key is the Ed25519 private key.
	Key ed25519.PrivateKey

	// KeyID is set as the kid header of signed envelopes.
	KeyID string

	// Issuer is the domain of the VA that owns the key.
	Issuer string
}

// Public returns the public half of the key.
func (k *PrivateKey) Public() *PublicKey {
	return &PublicKey{
		Key:   k.Key.Public().(ed25519.PublicKey),
		KeyID: k.KeyID,
	}
}

// GenerateKeyPair generates a new Ed25519 key pair for the issuer
// using crypto/rand. If kid is empty, a UUID v6 is used.
func GenerateKeyPair(issuer, kid string) (*PrivateKey, *PublicKey, error) {
	if kid == "" {
		id, err := uuid.NewV6()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate key ID: %w", err)
		}
		kid = id.String()
	}

	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key pair: %w", err)
	}

	return &PrivateKey{
			Key:    privateKey,
			KeyID:  kid,
			Issuer: issuer,
		}, &PublicKey{
			Key:   publicKey,
			KeyID: kid,
		}, nil
}
