// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/controlplaneio-fluxcd/hap/pkg/hap"
)

var claimTypes = []hap.ClaimType{
	hap.ClaimTypeHumanEffort,
	hap.ClaimTypeRecipientCommitment,
	hap.ClaimTypePhysicalDelivery,
	hap.ClaimTypeFinancialCommitment,
	hap.ClaimTypeContentAttestation,
}

// claimTypeFlag is a pflag.Value accepting registered claim types.
type claimTypeFlag hap.ClaimType

var _ pflag.Value = (*claimTypeFlag)(nil)

func (f *claimTypeFlag) String() string { return string(*f) }

func (f *claimTypeFlag) Set(s string) error {
	t, err := hap.ParseClaimType(s)
	if err != nil {
		return err
	}
	*f = claimTypeFlag(t)
	return nil
}

func (f *claimTypeFlag) Type() string { return "type" }

func (f *claimTypeFlag) Description() string {
	return fmt.Sprintf("claim type, one of: %s", joinValues(claimTypes))
}

// methodFlag is a pflag.Value accepting registered verification methods.
type methodFlag hap.Method

var _ pflag.Value = (*methodFlag)(nil)

func (f *methodFlag) String() string { return string(*f) }

func (f *methodFlag) Set(s string) error {
	m, err := hap.ParseMethod(s)
	if err != nil {
		return err
	}
	*f = methodFlag(m)
	return nil
}

func (f *methodFlag) Type() string { return "method" }

func (f *methodFlag) Description() string {
	return fmt.Sprintf("verification method, one of: %s", joinValues(hap.Methods))
}

// commitmentFlag is a pflag.Value accepting registered commitments.
type commitmentFlag hap.Commitment

var _ pflag.Value = (*commitmentFlag)(nil)

func (f *commitmentFlag) String() string { return string(*f) }

func (f *commitmentFlag) Set(s string) error {
	c, err := hap.ParseCommitment(s)
	if err != nil {
		return err
	}
	*f = commitmentFlag(c)
	return nil
}

func (f *commitmentFlag) Type() string { return "commitment" }

func (f *commitmentFlag) Description() string {
	return fmt.Sprintf("recipient commitment, one of: %s", joinValues(hap.Commitments))
}

// choiceFlag is a pflag.Value restricted to a fixed set of strings.
type choiceFlag struct {
	value   string
	choices []string
	name    string
}

var _ pflag.Value = (*choiceFlag)(nil)

func newChoiceFlag(name, defaultValue string, choices ...string) choiceFlag {
	return choiceFlag{value: defaultValue, choices: choices, name: name}
}

func (f *choiceFlag) String() string { return f.value }

func (f *choiceFlag) Set(s string) error {
	if !slices.Contains(f.choices, s) {
		return fmt.Errorf("unsupported %s %q, must be one of: %s", f.name, s, strings.Join(f.choices, ", "))
	}
	f.value = s
	return nil
}

func (f *choiceFlag) Type() string { return f.name }

func joinValues[T ~string](values []T) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = string(v)
	}
	return strings.Join(s, ", ")
}
