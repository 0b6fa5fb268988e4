// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package discovery

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemas embed.FS

var (
	keyDocumentSchema          = sync.OnceValues(func() (*gojsonschema.Schema, error) { return loadSchema("key-document.json") })
	verificationResponseSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) { return loadSchema("verification-response.json") })
)

func loadSchema(name string) (*gojsonschema.Schema, error) {
	data, err := schemas.ReadFile("schemas/" + name)
	if err != nil {
		return nil, err
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return schema, nil
}

// ValidateKeyDocument checks a key discovery document against its JSON schema.
func ValidateKeyDocument(data []byte) error {
	return validate(keyDocumentSchema, "key document", data)
}

// ValidateVerificationResponse checks a verification response against its JSON schema.
func ValidateVerificationResponse(data []byte) error {
	return validate(verificationResponseSchema, "verification response", data)
}

func validate(load func() (*gojsonschema.Schema, error), kind string, data []byte) error {
	schema, err := load()
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidDocument, kind, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s: %s", ErrInvalidDocument, kind, strings.Join(msgs, "; "))
	}
	return nil
}
