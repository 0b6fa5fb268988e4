// Copyright 2026 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name           string
		clientOnly     bool
		expectedOutput []string
		notExpected    []string
	}{
		{
			name:       "client only",
			clientOnly: true,
			expectedOutput: []string{
				"client: " + VERSION,
			},
			notExpected: []string{
				"protocol:",
			},
		},
		{
			name: "with protocol",
			expectedOutput: []string{
				"client: " + VERSION,
				"protocol: 0.1",
				"compact: HAP1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			// Prepare command arguments
			args := []string{"version"}
			if tt.clientOnly {
				args = append(args, "--client")
			}

			// Execute command
			output, err := executeCommand(args)
			g.Expect(err).ToNot(HaveOccurred())

			// Check output
			for _, expected := range tt.expectedOutput {
				g.Expect(output).To(ContainSubstring(expected))
			}
			for _, unexpected := range tt.notExpected {
				g.Expect(output).ToNot(ContainSubstring(unexpected))
			}
		})
	}
}
