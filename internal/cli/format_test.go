package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		amount   int64
	}{
		{name: "zero", amount: 0, expected: "0원"},
		{name: "small", amount: 999, expected: "999원"},
		{name: "thousand", amount: 1000, expected: "1,000원"},
		{name: "uneven groups", amount: 1234567, expected: "1,234,567원"},
		{name: "even groups", amount: 123456789, expected: "123,456,789원"},
		{name: "negative", amount: -45000, expected: "-45,000원"},
		{name: "negative small", amount: -5, expected: "-5원"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCurrency(tt.amount))
		})
	}
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "0.00%", FormatRate(0))
	assert.Equal(t, "12.50%", FormatRate(12.5))
	assert.Equal(t, "33.33%", FormatRate(33.333333))
	assert.Equal(t, "100.00%", FormatRate(100))
}
