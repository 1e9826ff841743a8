package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCluster_RejectsOutOfBandThreshold(t *testing.T) {
	_, err := Cluster([]string{"A", "B"}, 0.3, Options{})
	assert.Error(t, err)

	_, err = Cluster([]string{"A", "B"}, 0.99, Options{})
	assert.Error(t, err)
}

func TestCluster_GroupsSuffixVariant(t *testing.T) {
	merchants := []string{"NETFLIX", "NETFLIX.COM", "SPOTIFY"}

	groups, err := Cluster(merchants, 0.65, Options{Mode: CanonicalShortest})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, "NETFLIX", g.Canonical)
	assert.ElementsMatch(t, []string{"NETFLIX", "NETFLIX.COM"}, g.Variants)
	assert.NotContains(t, g.Variants, "SPOTIFY")
	assert.False(t, g.NeedsReview)
	require.Len(t, g.Pairs, 1)
	assert.GreaterOrEqual(t, g.Pairs[0].Score.Combined, 0.65)
}

func TestCluster_NoPairsAboveThreshold(t *testing.T) {
	groups, err := Cluster([]string{"NETFLIX", "SPOTIFY", "TARGET"}, 0.75, Options{})
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestCluster_CanonicalShortestWins(t *testing.T) {
	groups, err := Cluster([]string{"NETFLIX.COM", "NETFLIX"}, 0.65, Options{Mode: CanonicalShortest})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "NETFLIX", groups[0].Canonical)
}

func TestCluster_CanonicalMostHistoryWins(t *testing.T) {
	history := map[string]int{
		"NETFLIX":     2,
		"NETFLIX.COM": 9,
	}
	groups, err := Cluster([]string{"NETFLIX", "NETFLIX.COM"}, 0.65, Options{
		Mode:    CanonicalMostHistory,
		History: history,
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "NETFLIX.COM", groups[0].Canonical)
}

func TestCluster_WideGroupFlaggedForReview(t *testing.T) {
	merchants := []string{"CUB FOODS", "CUB  FOODS", "CUB   FOODS"}

	groups, err := Cluster(merchants, 0.65, Options{Mode: CanonicalShortest})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Len(t, g.Variants, 3)
	assert.True(t, g.NeedsReview)
	assert.Contains(t, g.ReviewReason, "more than two variants")
}

func TestCluster_DriftedVariantFlaggedForReview(t *testing.T) {
	// The pair clears the threshold, but the variants normalize to strings
	// ten edits apart; that is far beyond the trivial margin.
	merchants := []string{"STARBUCKS", "STARBUCKS COFFEE CO"}

	groups, err := Cluster(merchants, 0.6, Options{Mode: CanonicalShortest})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].NeedsReview)
	assert.Contains(t, groups[0].ReviewReason, "normalizes far")
}

func TestCluster_ReviewMarginOverride(t *testing.T) {
	merchants := []string{"STARBUCKS", "STARBUCKS COFFEE CO"}

	groups, err := Cluster(merchants, 0.6, Options{
		Mode:         CanonicalShortest,
		ReviewMargin: 15,
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.False(t, groups[0].NeedsReview)
}

// A merchant, once claimed by a group, must never appear in a second group.
func TestCluster_MerchantsClaimedOnce(t *testing.T) {
	merchants := []string{
		"NETFLIX", "NETFLIX.COM",
		"CUB FOODS", "CUB  FOODS",
		"SPOTIFY",
	}

	groups, err := Cluster(merchants, 0.65, Options{Mode: CanonicalShortest})
	require.NoError(t, err)

	seen := map[string]int{}
	for _, g := range groups {
		for _, v := range g.Variants {
			seen[v]++
		}
	}
	for merchant, n := range seen {
		assert.Equal(t, 1, n, "merchant %q claimed %d times", merchant, n)
	}
}

func TestCluster_EmptyInput(t *testing.T) {
	groups, err := Cluster(nil, 0.75, Options{})
	require.NoError(t, err)
	assert.Empty(t, groups)
}
