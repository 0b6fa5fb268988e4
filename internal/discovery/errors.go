// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package discovery

import "errors"

// ErrInvalidIssuer is returned when the issuer is not a bare host name.
var ErrInvalidIssuer = errors.New("issuer must be a host name")

// ErrInvalidDocument is returned when a fetched document fails schema validation.
var ErrInvalidDocument = errors.New("document does not match schema")

// ErrIssuerMismatch is returned when a fetched document names another issuer.
var ErrIssuerMismatch = errors.New("document issuer does not match the requested issuer")
