// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package hap

import (
	"github.com/Masterminds/semver/v3"
)

const (
	// ProtocolVersion is the claim version stamped in the "v" field.
	ProtocolVersion = "0.1"

	// CompactVersion is the version of the compact line format.
	CompactVersion = 1

	// supportedVersions is the range of claim versions this package decodes.
	supportedVersions = "~0.1"
)

// IsSupportedVersion reports whether a claim with version v can be decoded.
func IsSupportedVersion(v string) bool {
	version, err := semver.NewVersion(v)
	if err != nil {
		return false
	}
	constraint, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		return false
	}
	return constraint.Check(version)
}
