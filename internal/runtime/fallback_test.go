package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFallbackChainAlwaysIncludesPrimary(t *testing.T) {
	c := testCatalog(t)
	chain := BuildFallbackChain(ModelRef{Provider: "anthropic", Model: "claude-haiku"}, c, FallbackOptions{MaxChainLength: 1})
	assert.Equal(t, []ModelRef{{Provider: "anthropic", Model: "claude-haiku"}}, chain)
}

func TestBuildFallbackChainPrefersSameProviderBeforeCrossProvider(t *testing.T) {
	c := testCatalog(t)
	chain := BuildFallbackChain(ModelRef{Provider: "anthropic", Model: "claude-haiku"}, c, FallbackOptions{
		MaxChainLength:        3,
		PreferSameProvider:    true,
		CrossProviderFallback: true,
	})
	assert.Equal(t, ModelRef{Provider: "anthropic", Model: "claude-haiku"}, chain[0])
	assert.Equal(t, ModelRef{Provider: "anthropic", Model: "claude-opus"}, chain[1])
	assert.Equal(t, ModelRef{Provider: "openai", Model: "gpt-4o-mini"}, chain[2])
}

func TestBuildFallbackChainRespectsExcludedProviders(t *testing.T) {
	c := testCatalog(t)
	chain := BuildFallbackChain(ModelRef{Provider: "anthropic", Model: "claude-haiku"}, c, FallbackOptions{
		MaxChainLength:        5,
		CrossProviderFallback: true,
		ExcludedProviders:     []string{"openai"},
	})
	for _, ref := range chain {
		assert.NotEqual(t, "openai", ref.Provider)
	}
}

func TestBuildFallbackChainDedupesAndCaps(t *testing.T) {
	c := testCatalog(t)
	chain := BuildFallbackChain(ModelRef{Provider: "anthropic", Model: "claude-haiku"}, c, FallbackOptions{
		MaxChainLength:        2,
		PreferSameProvider:    true,
		CrossProviderFallback: true,
	})
	assert.Len(t, chain, 2)
	seen := map[ModelRef]bool{}
	for _, ref := range chain {
		assert.False(t, seen[ref])
		seen[ref] = true
	}
}
