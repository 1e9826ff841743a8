// Package cluster groups merchant strings into probable-duplicate clusters
// using greedy single-linkage agglomeration over pairwise similarity scores.
package cluster

import (
	"sort"

	"github.com/agnivade/levenshtein"

	"mhagen/fintrack/internal/models"
	"mhagen/fintrack/internal/normalizer"
	"mhagen/fintrack/internal/similarity"
)

// CanonicalMode selects how a group's representative spelling is chosen.
type CanonicalMode int

const (
	// CanonicalShortest picks the shortest variant: with address-contaminated
	// input, shorter is usually cleaner.
	CanonicalShortest CanonicalMode = iota

	// CanonicalMostHistory picks the variant with the most existing
	// transaction history, on the theory that the spelling the store has seen
	// most often is the most authoritative.
	CanonicalMostHistory
)

// reviewEditMargin is the edit distance between normalized forms beyond
// which a variant is considered too far from its canonical to auto-merge.
const reviewEditMargin = 5

// Options tunes a clustering run.
type Options struct {
	Mode CanonicalMode

	// History supplies per-merchant transaction counts; required for
	// CanonicalMostHistory, ignored otherwise.
	History map[string]int

	// ReviewMargin overrides the edit-distance margin beyond which a group
	// is flagged for review. Zero means the default.
	ReviewMargin int
}

// scoredPair is one merchant pair at or above the threshold.
type scoredPair struct {
	i, j  int
	match models.PairMatch
}

// Cluster scores every merchant pair, keeps those at or above threshold, and
// agglomerates them greedily: pairs are visited in descending score order,
// each merchant is claimed by the first group that reaches it and never
// reconsidered. Resulting groups are seed-linked above threshold but not
// guaranteed pairwise-above-threshold; that recall/precision trade-off is
// deliberate, and wide or drifted groups come back flagged for review
// instead of being auto-applied.
func Cluster(merchants []string, threshold float64, opts Options) ([]models.DuplicateGroup, error) {
	if err := similarity.ValidateThreshold(threshold); err != nil {
		return nil, err
	}

	var pairs []scoredPair
	for i := 0; i < len(merchants); i++ {
		for j := i + 1; j < len(merchants); j++ {
			match := similarity.Analyze(merchants[i], merchants[j])
			if match.Score.Combined >= threshold {
				pairs = append(pairs, scoredPair{i: i, j: j, match: match})
			}
		}
	}

	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].match.Score.Combined > pairs[b].match.Score.Combined
	})

	// claimed maps a merchant index to its group index. Local to the run: no
	// process-wide state survives between calls.
	claimed := make(map[int]int)
	var groups []group

	for _, p := range pairs {
		gi, iClaimed := claimed[p.i]
		gj, jClaimed := claimed[p.j]

		switch {
		case !iClaimed && !jClaimed:
			groups = append(groups, group{
				seed:    p.i,
				members: []int{p.i, p.j},
				pairs:   []models.PairMatch{p.match},
			})
			claimed[p.i] = len(groups) - 1
			claimed[p.j] = len(groups) - 1

		case iClaimed && !jClaimed:
			groups[gi].members = append(groups[gi].members, p.j)
			groups[gi].pairs = append(groups[gi].pairs, p.match)
			claimed[p.j] = gi

		case !iClaimed && jClaimed:
			groups[gj].members = append(groups[gj].members, p.i)
			groups[gj].pairs = append(groups[gj].pairs, p.match)
			claimed[p.i] = gj

		default:
			// Both already claimed: single linkage never re-links.
		}
	}

	result := make([]models.DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		result = append(result, g.finalize(merchants, opts))
	}
	return result, nil
}

type group struct {
	seed    int
	members []int
	pairs   []models.PairMatch
}

// finalize picks the canonical variant and decides whether the group needs
// manual review.
func (g group) finalize(merchants []string, opts Options) models.DuplicateGroup {
	variants := make([]string, len(g.members))
	for i, m := range g.members {
		variants[i] = merchants[m]
	}

	canonical := pickCanonical(variants, opts)

	dg := models.DuplicateGroup{
		Canonical: canonical,
		Variants:  variants,
		Pairs:     g.pairs,
	}

	if len(variants) > 2 {
		dg.NeedsReview = true
		dg.ReviewReason = "more than two variants; may span distinct payees"
		return dg
	}

	margin := opts.ReviewMargin
	if margin <= 0 {
		margin = reviewEditMargin
	}

	canonNorm := normalizer.Normalize(canonical)
	for _, v := range variants {
		vNorm := normalizer.Normalize(v)
		if vNorm == canonNorm {
			continue
		}
		if levenshtein.ComputeDistance(vNorm, canonNorm) > margin {
			dg.NeedsReview = true
			dg.ReviewReason = "variant normalizes far from canonical"
			return dg
		}
	}

	return dg
}

// pickCanonical selects the representative spelling for a variant set.
func pickCanonical(variants []string, opts Options) string {
	if len(variants) == 0 {
		return ""
	}

	canonical := variants[0]
	switch opts.Mode {
	case CanonicalMostHistory:
		for _, v := range variants[1:] {
			if opts.History[v] > opts.History[canonical] {
				canonical = v
			}
		}
	default:
		for _, v := range variants[1:] {
			if len(v) < len(canonical) {
				canonical = v
			}
		}
	}
	return canonical
}
