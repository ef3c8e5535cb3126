package runtime

import "github.com/patheras/prometheus-core/internal/errs"

// SelectOptions constrains model selection for one dispatch.
type SelectOptions struct {
	// ForceModel, if set, is a "provider/model" ref or a catalog alias that
	// must be used as-is, bypassing the preference list.
	ForceModel           string
	AllowedProviders     []string
	ExcludedProviders    []string
	MinContextWindow     int
	MaxCostTier          CostTier
	RequiredCapabilities Capabilities
}

// Selection is the Selector's result, with enough provenance to explain the
// pick: whether it was forced, came from the preference list at some rank,
// or fell through to the catalog default.
type Selection struct {
	Entry          CatalogEntry
	Tag            string // "forced" | "preference" | "fallback"
	PreferenceRank int    // index into the task type's preference list, -1 if n/a
	FilteredCount  int    // preference candidates skipped for failing a filter
}

// Selector picks one catalog entry for a task, given the configured
// preference table and per-call filters.
type Selector struct {
	catalog     *Catalog
	preferences Preferences
}

// NewSelector builds a Selector over catalog and preferences.
func NewSelector(catalog *Catalog, preferences Preferences) *Selector {
	return &Selector{catalog: catalog, preferences: preferences}
}

// Select resolves a model for taskType. force_model wins outright if it
// satisfies opts' filters; otherwise the first preference-list entry that
// both exists in the catalog and passes every filter wins; otherwise the
// catalog default wins regardless of whether it passes the filters — a
// selection is always returned unless force_model itself is invalid.
func (s *Selector) Select(taskType string, opts SelectOptions) (Selection, error) {
	if opts.ForceModel != "" {
		ref, ok := s.catalog.Resolve(opts.ForceModel)
		if !ok {
			return Selection{}, errs.Validation("force_model %q is not present in the catalog", opts.ForceModel)
		}
		entry, _ := s.catalog.Lookup(ref)
		if !passesFilters(entry, opts) {
			return Selection{}, errs.Validation("force_model %q does not satisfy the selection filters", opts.ForceModel)
		}
		return Selection{Entry: entry, Tag: "forced", PreferenceRank: -1}, nil
	}

	filtered := 0
	for i, ref := range s.preferences.For(taskType) {
		entry, ok := s.catalog.Lookup(ref)
		if !ok {
			filtered++
			continue
		}
		if !passesFilters(entry, opts) {
			filtered++
			continue
		}
		return Selection{Entry: entry, Tag: "preference", PreferenceRank: i, FilteredCount: filtered}, nil
	}

	return Selection{Entry: s.catalog.Default(), Tag: "fallback", PreferenceRank: -1, FilteredCount: filtered}, nil
}

func passesFilters(entry CatalogEntry, opts SelectOptions) bool {
	if len(opts.AllowedProviders) > 0 && !containsStr(opts.AllowedProviders, entry.Ref.Provider) {
		return false
	}
	if containsStr(opts.ExcludedProviders, entry.Ref.Provider) {
		return false
	}
	if opts.MinContextWindow > 0 && entry.ContextWindow < opts.MinContextWindow {
		return false
	}
	if opts.MaxCostTier != "" && costRank[entry.CostTier] > costRank[opts.MaxCostTier] {
		return false
	}
	req := opts.RequiredCapabilities
	if req.Code && !entry.Capabilities.Code {
		return false
	}
	if req.Reasoning && !entry.Capabilities.Reasoning {
		return false
	}
	if req.Vision && !entry.Capabilities.Vision {
		return false
	}
	if req.Tools && !entry.Capabilities.Tools {
		return false
	}
	return true
}

func containsStr(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
