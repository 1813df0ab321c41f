package cli

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Short secret", "abc123", "****"},
		{"Exactly 8 chars", "12345678", "****"},
		{"Long secret", "eyJhbGciOiJIUzI1NiJ9.payload", "eyJh...load"},
		{"Empty secret", "", "****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskSecret(tt.input))
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{"Empty input returns default", "", 2, 1, 1},
		{"Valid choice", "2", 2, 1, 2},
		{"Below minimum returns default", "0", 2, 1, 1},
		{"Above maximum returns default", "3", 2, 1, 1},
		{"Not a number returns default", "x", 2, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseChoice(tt.input, tt.maxVal, tt.defaultVal))
		})
	}
}

func TestReadSecret_NonTerminal(t *testing.T) {
	in := strings.NewReader("  s3cret \nnext\n")
	reader := bufio.NewReader(in)

	assert.Equal(t, "s3cret", readSecret(in, reader))
	assert.Equal(t, "next", readLine(reader))
}
