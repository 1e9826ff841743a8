package models

import "regexp"

var dateRe = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// Confidence tiers for a duplicate prediction.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// SimilarityScore holds the five component similarity signals between two
// merchant strings plus their weighted combination, all in [0, 1]. Scores are
// computed fresh per pair and never cached: the merchant set mutates.
type SimilarityScore struct {
	CharacterEdit    float64 `json:"levenshtein"`
	PositionWeighted float64 `json:"jaroWinkler"`
	TokenOverlap     float64 `json:"jaccard"`
	PrefixOverlap    float64 `json:"prefix"`
	LengthRatio      float64 `json:"length"`
	Combined         float64 `json:"combined"`
}

// Prediction is the threshold classification of a merchant pair.
type Prediction struct {
	IsDuplicate bool    `json:"isDuplicate"`
	Score       float64 `json:"score"`
	Confidence  string  `json:"confidence"`
	Threshold   float64 `json:"threshold"`
}

// PairMatch is one scored merchant pair in an analysis report.
type PairMatch struct {
	Merchant1      string          `json:"merchant1"`
	Merchant2      string          `json:"merchant2"`
	Score          SimilarityScore `json:"score"`
	Confidence     string          `json:"confidence"`
	Recommendation string          `json:"recommendation"`
}

// DuplicateGroup is a transient cluster of merchant strings believed to
// denote one real-world payee. It is built per clustering run, consumed by
// reconciliation, and discarded.
type DuplicateGroup struct {
	Canonical    string      `json:"canonical"`
	Variants     []string    `json:"variants"`
	Pairs        []PairMatch `json:"pairs"`
	NeedsReview  bool        `json:"needsReview"`
	ReviewReason string      `json:"reviewReason,omitempty"`
}

// Fix is one manual consolidation instruction: merge the listed transactions
// under the canonical merchant spelling.
type Fix struct {
	GroupID           string   `json:"groupId"`
	CanonicalMerchant string   `json:"canonicalMerchant"`
	TransactionIDs    []string `json:"transactionIds"`
}
