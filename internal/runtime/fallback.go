package runtime

// FallbackOptions shapes the chain BuildFallbackChain assembles around a
// primary model pick.
type FallbackOptions struct {
	MaxChainLength        int
	AllowedProviders      []string
	ExcludedProviders     []string
	CrossProviderFallback bool
	PreferSameProvider    bool
}

// BuildFallbackChain orders primary first, then same-provider alternates (if
// PreferSameProvider), then cross-provider alternates (if
// CrossProviderFallback), filtering by Allowed/ExcludedProviders, deduping,
// and capping the result at MaxChainLength (minimum 1, so primary is never
// dropped).
func BuildFallbackChain(primary ModelRef, catalog *Catalog, opts FallbackOptions) []ModelRef {
	maxLen := opts.MaxChainLength
	if maxLen < 1 {
		maxLen = 1
	}

	chain := []ModelRef{primary}
	seen := map[ModelRef]bool{primary: true}

	add := func(ref ModelRef) bool {
		if len(chain) >= maxLen {
			return false
		}
		if seen[ref] {
			return true
		}
		if len(opts.AllowedProviders) > 0 && !containsStr(opts.AllowedProviders, ref.Provider) {
			return true
		}
		if containsStr(opts.ExcludedProviders, ref.Provider) {
			return true
		}
		chain = append(chain, ref)
		seen[ref] = true
		return true
	}

	if opts.PreferSameProvider {
		for _, e := range catalog.Entries() {
			if e.Ref.Provider == primary.Provider && !seen[e.Ref] {
				if !add(e.Ref) {
					return chain
				}
			}
		}
	}
	if opts.CrossProviderFallback {
		for _, e := range catalog.Entries() {
			if e.Ref.Provider != primary.Provider && !seen[e.Ref] {
				if !add(e.Ref) {
					return chain
				}
			}
		}
	}
	return chain
}
