// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-jose/go-jose/v4"
)

const (
	keyTypeOKP   = "OKP"
	curveEd25519 = "Ed25519"
)

// JWK is the published form of an Ed25519 public key.
// The field order and the unpadded x value are part of the wire contract.
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
}

// ExportPublicKeyJWK returns the JWK of the public key.
func ExportPublicKeyJWK(pub *PublicKey) JWK {
	return JWK{
		Kid: pub.KeyID,
		Kty: keyTypeOKP,
		Crv: curveEd25519,
		X:   base64.RawURLEncoding.EncodeToString(pub.Key),
	}
}

// PublicKey parses the JWK into an Ed25519 public key.
// Keys that are not OKP/Ed25519 are rejected with ErrPublicKeyInvalid.
func (j JWK) PublicKey() (*PublicKey, error) {
	if j.Kty != keyTypeOKP || j.Crv != curveEd25519 {
		return nil, fmt.Errorf("%w: kid %q has kty %q crv %q", ErrPublicKeyInvalid, j.Kid, j.Kty, j.Crv)
	}

	data, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}

	var jwk jose.JSONWebKey
	if err := jwk.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("%w: kid %q: %w", ErrPublicKeyInvalid, j.Kid, err)
	}

	key, ok := jwk.Key.(ed25519.PublicKey)
	if !ok || len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: kid %q", ErrPublicKeyInvalid, j.Kid)
	}

	return &PublicKey{
		Key:   key,
		KeyID: j.Kid,
	}, nil
}

// KeyDocument is the key discovery document an issuer publishes at
// https://<issuer>/.well-known/hap.json.
type KeyDocument struct {
	// Issuer is the domain of the VA.
	Issuer string `json:"issuer"`

	// Keys holds the active public keys, most recent first.
	Keys []JWK `json:"keys"`

	// VA is the optional self-description of the VA, carried opaquely.
	VA json.RawMessage `json:"va,omitempty"`
}

// NewKeyDocument creates an empty key document for the issuer.
func NewKeyDocument(issuer string) *KeyDocument {
	return &KeyDocument{
		Issuer: issuer,
		Keys:   []JWK{},
	}
}

// AddKey prepends the public key to the document so that the most
// recent key is first. Duplicate key IDs are rejected.
func (d *KeyDocument) AddKey(pub *PublicKey) error {
	for _, existing := range d.Keys {
		if existing.Kid == pub.KeyID {
			return fmt.Errorf("key with ID %s already exists in the document", pub.KeyID)
		}
	}
	d.Keys = append([]JWK{ExportPublicKeyJWK(pub)}, d.Keys...)
	return nil
}

// PublicKeys returns the Ed25519 keys of the document in published order.
// Keys of other types are skipped. An error is returned when no usable key remains.
func (d *KeyDocument) PublicKeys() ([]PublicKey, error) {
	keys := make([]PublicKey, 0, len(d.Keys))
	for _, jwk := range d.Keys {
		pub, err := jwk.PublicKey()
		if err != nil {
			continue
		}
		keys = append(keys, *pub)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: document for %s has no Ed25519 keys", ErrPublicKeyInvalid, d.Issuer)
	}
	return keys, nil
}

// ToJSON converts the KeyDocument to an indented JSON byte slice.
func (d *KeyDocument) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// WriteFile writes the document to the given path with 0644 permissions.
// If the file exists, the new keys are merged in front of the existing ones.
func (d *KeyDocument) WriteFile(filePath string) error {
	if len(d.Keys) == 0 {
		return fmt.Errorf("cannot write key document without keys")
	}

	doc := d
	if _, err := os.Stat(filePath); !os.IsNotExist(err) {
		existing, err := KeyDocumentFromFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read existing key document from file %s: %w", filePath, err)
		}
		if existing.Issuer != d.Issuer {
			return fmt.Errorf("file %s belongs to issuer %s, cannot add keys for %s", filePath, existing.Issuer, d.Issuer)
		}

		for _, newKey := range d.Keys {
			for _, existingKey := range existing.Keys {
				if existingKey.Kid == newKey.Kid {
					return fmt.Errorf("key with ID %s already exists in file %s", newKey.Kid, filePath)
				}
			}
		}

		merged := *existing
		merged.Keys = append(append([]JWK{}, d.Keys...), existing.Keys...)
		if len(d.VA) > 0 {
			merged.VA = d.VA
		}
		doc = &merged
	}

	data, err := doc.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// ParseKeyDocument decodes a key discovery document.
// Unknown fields are ignored.
func ParseKeyDocument(data []byte) (*KeyDocument, error) {
	var doc KeyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key document: %w", err)
	}
	if doc.Issuer == "" {
		return nil, fmt.Errorf("key document has no issuer")
	}
	if len(doc.Keys) == 0 {
		return nil, fmt.Errorf("key document for %s has no keys", doc.Issuer)
	}
	return &doc, nil
}

// KeyDocumentFromFile reads a key discovery document from a JSON file.
func KeyDocumentFromFile(filePath string) (*KeyDocument, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key document from file %s: %w", filePath, err)
	}
	return ParseKeyDocument(data)
}
