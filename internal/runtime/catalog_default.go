package runtime

// DefaultCatalog returns the built-in model registry. It is intentionally
// small and anthropic-only: the dispatcher is adapter-driven, and a provider
// without a registered LMProvider adapter is simply never a viable fallback
// target (Execute records "no provider adapter registered" and moves on).
// Operators extend this by registering additional CatalogEntry values and
// LMProvider adapters for any other provider they have credentials for.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog([]CatalogEntry{
		{
			Ref:           ModelRef{Provider: "anthropic", Model: "claude-3-5-haiku-latest"},
			ContextWindow: 200_000,
			Capabilities:  Capabilities{Code: true, Tools: true},
			CostTier:      CostLow,
			SpeedTier:     "fast",
			Aliases:       []string{"haiku"},
		},
		{
			Ref:           ModelRef{Provider: "anthropic", Model: "claude-3-5-sonnet-latest"},
			ContextWindow: 200_000,
			Capabilities:  Capabilities{Code: true, Reasoning: true, Tools: true},
			CostTier:      CostMedium,
			SpeedTier:     "standard",
			Aliases:       []string{"sonnet"},
		},
		{
			Ref:           ModelRef{Provider: "anthropic", Model: "claude-opus-4"},
			ContextWindow: 200_000,
			Capabilities:  Capabilities{Code: true, Reasoning: true, Vision: true, Tools: true},
			CostTier:      CostPremium,
			SpeedTier:     "slow",
			Aliases:       []string{"opus"},
		},
	}, ModelRef{Provider: "anthropic", Model: "claude-3-5-haiku-latest"})
	if err != nil {
		// DefaultCatalog's entries are a compile-time constant; a failure here
		// means the built-in registry itself is malformed.
		panic(err)
	}
	return catalog
}
