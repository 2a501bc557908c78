package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionTime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0:00", PositionTime(0))
	assert.Equal(t, "1:12", PositionTime(12))
	assert.Equal(t, "12:54", PositionTime(129))
}

func TestPositionPage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, PositionPage(0))
	assert.Equal(t, 1, PositionPage(9))
	assert.Equal(t, 2, PositionPage(10))
}

func TestComplexityRank(t *testing.T) {
	t.Parallel()

	assert.Less(t, ComplexityBasic.Rank(), ComplexityStandard.Rank())
	assert.Less(t, ComplexityStandard.Rank(), ComplexityIntermediate.Rank())
	assert.Less(t, ComplexityIntermediate.Rank(), ComplexityAdvanced.Rank())
	assert.Less(t, ComplexityAdvanced.Rank(), ComplexityHigh.Rank())
	assert.Zero(t, Complexity("Pun").Rank())
}

func TestParseTier(t *testing.T) {
	t.Parallel()

	tier, ok := ParseTier("pro")
	assert.True(t, ok)
	assert.Equal(t, TierPro, tier)

	_, ok = ParseTier("")
	assert.False(t, ok)
	_, ok = ParseTier("platinum")
	assert.False(t, ok)
}

func TestJokePageOr(t *testing.T) {
	t.Parallel()

	page := 4
	zero := 0
	assert.Equal(t, 4, Joke{Page: &page}.PageOr(9))
	assert.Equal(t, 9, Joke{Page: &zero}.PageOr(9))
	assert.Equal(t, 9, Joke{}.PageOr(9))
}
