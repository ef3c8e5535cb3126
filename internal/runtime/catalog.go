// Package runtime implements the Runtime Dispatcher: selecting a model,
// acquiring a credential, calling a provider adapter, and falling back
// through a chain of alternates on recoverable faults.
package runtime

import (
	"strings"

	"github.com/patheras/prometheus-core/internal/errs"
)

// ModelRef identifies one catalog entry by provider and model name.
type ModelRef struct {
	Provider string
	Model    string
}

func (r ModelRef) String() string { return r.Provider + "/" + r.Model }

// Capabilities are the feature flags a task's requirements are checked against.
type Capabilities struct {
	Code      bool
	Reasoning bool
	Vision    bool
	Tools     bool
}

// CostTier is a coarse pricing bucket, ordered low < medium < high < premium.
type CostTier string

const (
	CostLow     CostTier = "low"
	CostMedium  CostTier = "medium"
	CostHigh    CostTier = "high"
	CostPremium CostTier = "premium"
)

var costRank = map[CostTier]int{CostLow: 0, CostMedium: 1, CostHigh: 2, CostPremium: 3}

// CatalogEntry describes one known (provider, model) pair.
type CatalogEntry struct {
	Ref           ModelRef
	ContextWindow int
	Capabilities  Capabilities
	CostTier      CostTier
	SpeedTier     string
	Aliases       []string
}

// Catalog is the static registry of known models.
type Catalog struct {
	entries    []CatalogEntry
	byRef      map[ModelRef]CatalogEntry
	byAlias    map[string]ModelRef
	defaultRef ModelRef
}

// NewCatalog builds a Catalog. defaultRef must name an entry already present
// in entries — it is the selector's last-resort guarantee of a result.
func NewCatalog(entries []CatalogEntry, defaultRef ModelRef) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, errs.Validation("model catalog must not be empty")
	}
	byRef := make(map[ModelRef]CatalogEntry, len(entries))
	byAlias := make(map[string]ModelRef)
	for _, e := range entries {
		byRef[e.Ref] = e
		for _, alias := range e.Aliases {
			byAlias[alias] = e.Ref
		}
	}
	if _, ok := byRef[defaultRef]; !ok {
		return nil, errs.Validation("default model %s is not present in the catalog", defaultRef)
	}
	return &Catalog{entries: entries, byRef: byRef, byAlias: byAlias, defaultRef: defaultRef}, nil
}

// Resolve looks up a "provider/model" ref string or a registered alias.
func (c *Catalog) Resolve(refOrAlias string) (ModelRef, bool) {
	if idx := strings.IndexByte(refOrAlias, '/'); idx >= 0 {
		ref := ModelRef{Provider: refOrAlias[:idx], Model: refOrAlias[idx+1:]}
		if _, ok := c.byRef[ref]; ok {
			return ref, true
		}
	}
	if ref, ok := c.byAlias[refOrAlias]; ok {
		return ref, true
	}
	return ModelRef{}, false
}

// Lookup fetches a catalog entry by its exact ref.
func (c *Catalog) Lookup(ref ModelRef) (CatalogEntry, bool) {
	e, ok := c.byRef[ref]
	return e, ok
}

// Default returns the catalog's configured last-resort entry.
func (c *Catalog) Default() CatalogEntry {
	return c.byRef[c.defaultRef]
}

// Entries returns a defensive copy of every catalog entry, in registration order.
func (c *Catalog) Entries() []CatalogEntry {
	out := make([]CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}
