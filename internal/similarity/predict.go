package similarity

import (
	"fmt"

	"mhagen/fintrack/internal/models"
)

// Threshold bounds. Outside this band the classification is meaningless:
// below 0.5 nearly everything pairs up, above 0.95 nearly nothing does.
const (
	MinThreshold = 0.5
	MaxThreshold = 0.95

	// DefaultThreshold balances recall against false merges.
	DefaultThreshold = 0.75

	// HighConfidenceFloor marks pairs safe for automatic consolidation.
	HighConfidenceFloor = 0.85

	mediumConfidenceFloor = 0.6
)

// ValidateThreshold rejects out-of-band thresholds. Callers must fail fast;
// this is a usage error, never a data condition.
func ValidateThreshold(threshold float64) error {
	if threshold < MinThreshold || threshold > MaxThreshold {
		return fmt.Errorf("threshold must be between %v and %v, got %v",
			MinThreshold, MaxThreshold, threshold)
	}
	return nil
}

// Predict classifies a merchant pair as duplicate or not at the given
// threshold. Raising the threshold can only flip predictions from true to
// false, never the reverse.
func Predict(a, b string, threshold float64) (models.Prediction, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return models.Prediction{}, err
	}

	score := Score(a, b).Combined
	isDuplicate := score >= threshold

	confidence := models.ConfidenceLow
	switch {
	case score >= HighConfidenceFloor:
		confidence = models.ConfidenceHigh
	case isDuplicate && score >= mediumConfidenceFloor:
		confidence = models.ConfidenceMedium
	}

	return models.Prediction{
		IsDuplicate: isDuplicate,
		Score:       score,
		Confidence:  confidence,
		Threshold:   threshold,
	}, nil
}

// Analyze returns the full per-algorithm breakdown for a merchant pair, with
// a human-readable recommendation. Used by the analyze action and nowhere
// else on the hot path.
func Analyze(a, b string) models.PairMatch {
	score := Score(a, b)

	confidence := models.ConfidenceLow
	switch {
	case score.Combined >= HighConfidenceFloor:
		confidence = models.ConfidenceHigh
	case score.Combined >= DefaultThreshold:
		confidence = models.ConfidenceMedium
	}

	return models.PairMatch{
		Merchant1:      a,
		Merchant2:      b,
		Score:          score,
		Confidence:     confidence,
		Recommendation: Recommendation(score.Combined),
	}
}

// Recommendation translates a combined score into operator guidance.
func Recommendation(combined float64) string {
	switch {
	case combined >= HighConfidenceFloor:
		return "Safe to auto-consolidate"
	case combined >= DefaultThreshold:
		return "Review before consolidating"
	default:
		return "Manual review recommended"
	}
}
