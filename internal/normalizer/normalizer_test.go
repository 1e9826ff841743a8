package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "store number",
			input:    "CUB FOODS #01693",
			expected: "CUB FOODS",
		},
		{
			name:     "full trailing address",
			input:    "CUB FOODS #01693 1104 LAGOON AVE MINNEAPOLIS 55408 MN USA",
			expected: "CUB FOODS",
		},
		{
			name:     "dotted domain kept, address dropped",
			input:    "SLING.COM 9601 S MERIDIAN BLVD. ENGLEWOOD 80112 CO USA",
			expected: "SLING.COM",
		},
		{
			name:     "letter code with digits",
			input:    "UHG OPTUM CAFE QPS1100",
			expected: "UHG OPTUM CAFE",
		},
		{
			name:     "phone number",
			input:    "COMCAST 8005266384",
			expected: "COMCAST",
		},
		{
			name:     "building number and street word",
			input:    "PIZZA LUCE 3200 LYNDALE AVE S",
			expected: "PIZZA LUCE",
		},
		{
			name:     "bare zip",
			input:    "HOLIDAY STATIONS 55408",
			expected: "HOLIDAY STATIONS",
		},
		{
			name:     "city name",
			input:    "MCDONALD'S MINNEAPOLIS",
			expected: "MCDONALD'S",
		},
		{
			name:     "state with USA",
			input:    "JIMMY JOHNS MN USA",
			expected: "JIMMY JOHNS",
		},
		{
			name:     "parenthetical suffix",
			input:    "TARGET (RETURN)",
			expected: "TARGET",
		},
		{
			name:     "no contamination",
			input:    "NETFLIX.COM",
			expected: "NETFLIX.COM",
		},
		{
			name:     "whitespace trimmed",
			input:    "  SPOTIFY  ",
			expected: "SPOTIFY",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
		{
			name:     "long reference number",
			input:    "PAYPAL TRANSFER 123456789012",
			expected: "PAYPAL TRANSFER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

// Contaminated and clean spellings of the same payee must land on one key.
func TestNormalize_ContaminatedEqualsClean(t *testing.T) {
	assert.Equal(t,
		Normalize("CUB FOODS"),
		Normalize("CUB FOODS #01693 1104 LAGOON AVE MINNEAPOLIS 55408 MN USA"))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"CUB FOODS #01693 1104 LAGOON AVE MINNEAPOLIS 55408 MN USA",
		"UHG OPTUM CAFE QPS1100",
		"NETFLIX.COM",
		"TARGET (RETURN)",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalize_FirstMatchWins(t *testing.T) {
	// The store-number pattern must claim "#01693" before the broader
	// patterns see the rest of the address.
	assert.Equal(t, "CUB FOODS", Normalize("CUB FOODS #01693 MINNEAPOLIS"))
}

func TestContaminated(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"CUB FOODS 55408", true},
		{"JIMMY JOHNS MN", true},
		{"PIZZA LUCE 3200 AVE", true},
		{"NETFLIX.COM", false},
		{"SPOTIFY", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Contaminated(tt.input), "input %q", tt.input)
	}
}
