package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskCPF(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"123", "123"},
		{"1234", "123.4"},
		{"1234567", "123.456.7"},
		{"123456789", "123.456.789"},
		{"1234567890", "123.456.789-0"},
		{"12345678901", "123.456.789-01"},
		{"123.456.789-01", "123.456.789-01"},
		{"abc12345678901xyz", "123.456.789-01"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskCPF(tt.input))
		})
	}
}

func TestMaskMobile(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1", "1"},
		{"119", "(11) 9"},
		{"1198765", "(11) 98765"},
		{"11987654321", "(11) 98765-4321"},
		{"(11) 98765-4321", "(11) 98765-4321"},
		{"1198765432199", "(11) 98765-4321"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskMobile(tt.input))
		})
	}
}

func TestMaskCEP(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"01001", "01001"},
		{"010010", "01001-0"},
		{"01001000", "01001-000"},
		{"01001-000", "01001-000"},
		{"0100100099", "01001-000"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskCEP(tt.input))
		})
	}
}

func TestGenderValid(t *testing.T) {
	assert.True(t, GenderFemale.Valid())
	assert.True(t, GenderUnspecified.Valid())
	assert.False(t, Gender("outro").Valid())
}
