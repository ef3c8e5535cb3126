package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Catalog {
	c, err := NewCatalog([]CatalogEntry{
		{
			Ref:           ModelRef{Provider: "anthropic", Model: "claude-haiku"},
			ContextWindow: 200_000,
			Capabilities:  Capabilities{Code: true, Tools: true},
			CostTier:      CostLow,
			SpeedTier:     "fast",
			Aliases:       []string{"haiku"},
		},
		{
			Ref:           ModelRef{Provider: "anthropic", Model: "claude-opus"},
			ContextWindow: 200_000,
			Capabilities:  Capabilities{Code: true, Reasoning: true, Vision: true, Tools: true},
			CostTier:      CostPremium,
			SpeedTier:     "slow",
		},
		{
			Ref:           ModelRef{Provider: "openai", Model: "gpt-4o-mini"},
			ContextWindow: 128_000,
			Capabilities:  Capabilities{Code: true, Tools: true},
			CostTier:      CostMedium,
			SpeedTier:     "standard",
		},
	}, ModelRef{Provider: "anthropic", Model: "claude-haiku"})
	require.NoError(t, err)
	return c
}

func TestNewCatalogRejectsEmptyEntries(t *testing.T) {
	_, err := NewCatalog(nil, ModelRef{})
	assert.Error(t, err)
}

func TestNewCatalogRejectsUnknownDefault(t *testing.T) {
	_, err := NewCatalog([]CatalogEntry{{Ref: ModelRef{Provider: "a", Model: "b"}}}, ModelRef{Provider: "x", Model: "y"})
	assert.Error(t, err)
}

func TestCatalogResolveByRefAndAlias(t *testing.T) {
	c := testCatalog(t)

	ref, ok := c.Resolve("anthropic/claude-opus")
	require.True(t, ok)
	assert.Equal(t, ModelRef{Provider: "anthropic", Model: "claude-opus"}, ref)

	ref, ok = c.Resolve("haiku")
	require.True(t, ok)
	assert.Equal(t, ModelRef{Provider: "anthropic", Model: "claude-haiku"}, ref)

	_, ok = c.Resolve("nonexistent")
	assert.False(t, ok)
}

func TestCatalogDefaultAndEntriesIsDefensiveCopy(t *testing.T) {
	c := testCatalog(t)
	entries := c.Entries()
	entries[0].Ref.Model = "mutated"
	assert.Equal(t, "claude-haiku", c.Default().Ref.Model)
}
