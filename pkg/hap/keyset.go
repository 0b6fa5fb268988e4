// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-jose/go-jose/v4"
)

// PrivateKeySet is a JWK Set holding the issuer's single Ed25519 signing key.
type PrivateKeySet struct {
	// Issuer is the domain of the VA that owns the key.
	Issuer string `json:"issuer"`

	// Keys holds exactly one private JWK.
	Keys []jose.JSONWebKey `json:"keys"`
}

// NewPrivateKeySet creates a key set holding the given private key.
func NewPrivateKeySet(key *PrivateKey) (*PrivateKeySet, error) {
	if key == nil || len(key.Key) != ed25519.PrivateKeySize {
		return nil, ErrPrivateKeyRequired
	}
	if key.Issuer == "" {
		return nil, fmt.Errorf("issuer must be set on the private key")
	}
	if key.KeyID == "" {
		return nil, fmt.Errorf("key ID must be set on the private key")
	}

	return &PrivateKeySet{
		Issuer: key.Issuer,
		Keys: []jose.JSONWebKey{{
			Key:       key.Key,
			KeyID:     key.KeyID,
			Algorithm: string(jose.EdDSA),
			Use:       "sig",
		}},
	}, nil
}

// ToJSON converts the PrivateKeySet to an indented JSON byte slice.
func (k *PrivateKeySet) ToJSON() ([]byte, error) {
	return json.MarshalIndent(*k, "", "  ")
}

// WriteFile writes the key set to the given path with owner only
// permissions (0600). Existing files are never overwritten.
func (k *PrivateKeySet) WriteFile(filePath string) error {
	if len(k.Keys) != 1 {
		return fmt.Errorf("private key set must contain exactly one key")
	}

	if _, err := os.Stat(filePath); !os.IsNotExist(err) {
		return fmt.Errorf("file %s already exists, refusing to overwrite", filePath)
	}

	data, err := k.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0600)
}

// PrivateKeyFromSet extracts the Ed25519 private key from a byte slice
// representing a PrivateKeySet in JSON format.
func PrivateKeyFromSet(data []byte) (*PrivateKey, error) {
	var keySet PrivateKeySet
	if err := json.Unmarshal(data, &keySet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal private key set: %w", err)
	}

	if keySet.Issuer == "" {
		return nil, fmt.Errorf("private key set has no issuer")
	}
	if len(keySet.Keys) != 1 {
		return nil, fmt.Errorf("private key set must contain exactly one key, found %d", len(keySet.Keys))
	}

	key := keySet.Keys[0]
	if key.KeyID == "" {
		return nil, fmt.Errorf("key ID is missing")
	}
	if key.Algorithm != string(jose.EdDSA) {
		return nil, fmt.Errorf("key has unsupported algorithm %s, expected %s", key.Algorithm, jose.EdDSA)
	}
	if key.Use != "sig" {
		return nil, fmt.Errorf("key has unsupported use %s, expected 'sig'", key.Use)
	}

	privateKey, ok := key.Key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key is not an Ed25519 private key")
	}

	return &PrivateKey{
		Key:    privateKey,
		KeyID:  key.KeyID,
		Issuer: keySet.Issuer,
	}, nil
}

// PrivateKeyFromFile reads the signing key from a PrivateKeySet JSON file.
func PrivateKeyFromFile(filePath string) (*PrivateKey, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key set from file %s: %w", filePath, err)
	}
	return PrivateKeyFromSet(data)
}
