package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhagen/fintrack/internal/models"
)

func TestValidateThreshold(t *testing.T) {
	assert.NoError(t, ValidateThreshold(0.5))
	assert.NoError(t, ValidateThreshold(0.75))
	assert.NoError(t, ValidateThreshold(0.95))

	assert.Error(t, ValidateThreshold(0.49))
	assert.Error(t, ValidateThreshold(0.96))
	assert.Error(t, ValidateThreshold(0))
	assert.Error(t, ValidateThreshold(-1))
}

func TestPredict_RejectsOutOfBandThreshold(t *testing.T) {
	_, err := Predict("NETFLIX", "NETFLIX.COM", 0.3)
	assert.Error(t, err)

	_, err = Predict("NETFLIX", "NETFLIX.COM", 0.99)
	assert.Error(t, err)
}

func TestPredict_Classification(t *testing.T) {
	tests := []struct {
		name        string
		a, b        string
		threshold   float64
		isDuplicate bool
		confidence  string
	}{
		{
			name:        "identical is high confidence",
			a:           "NETFLIX",
			b:           "NETFLIX",
			threshold:   0.75,
			isDuplicate: true,
			confidence:  models.ConfidenceHigh,
		},
		{
			name:        "whitespace variant is high confidence",
			a:           "CUB FOODS",
			b:           "CUB  FOODS",
			threshold:   0.75,
			isDuplicate: true,
			confidence:  models.ConfidenceHigh,
		},
		{
			name:        "suffix variant above a permissive threshold",
			a:           "NETFLIX",
			b:           "NETFLIX.COM",
			threshold:   0.6,
			isDuplicate: true,
			confidence:  models.ConfidenceMedium,
		},
		{
			name:        "suffix variant below the default threshold",
			a:           "NETFLIX",
			b:           "NETFLIX.COM",
			threshold:   0.75,
			isDuplicate: false,
			confidence:  models.ConfidenceLow,
		},
		{
			name:        "unrelated merchants",
			a:           "NETFLIX",
			b:           "SPOTIFY",
			threshold:   0.5,
			isDuplicate: false,
			confidence:  models.ConfidenceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Predict(tt.a, tt.b, tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.isDuplicate, p.IsDuplicate)
			assert.Equal(t, tt.confidence, p.Confidence)
			assert.Equal(t, tt.threshold, p.Threshold)
		})
	}
}

// Raising the threshold can only flip predictions from true to false.
func TestPredict_ThresholdMonotonic(t *testing.T) {
	pairs := [][2]string{
		{"NETFLIX", "NETFLIX.COM"},
		{"CUB FOODS", "CUB  FOODS"},
		{"NETFLIX", "SPOTIFY"},
	}
	thresholds := []float64{0.5, 0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95}

	for _, pair := range pairs {
		wasDuplicate := true
		for _, th := range thresholds {
			p, err := Predict(pair[0], pair[1], th)
			require.NoError(t, err)
			if !wasDuplicate {
				assert.False(t, p.IsDuplicate,
					"pair %v flipped back to duplicate at threshold %v", pair, th)
			}
			wasDuplicate = p.IsDuplicate
		}
	}
}

func TestRecommendation(t *testing.T) {
	assert.Equal(t, "Safe to auto-consolidate", Recommendation(0.9))
	assert.Equal(t, "Review before consolidating", Recommendation(0.8))
	assert.Equal(t, "Manual review recommended", Recommendation(0.6))
}
