package runtime

import (
	"github.com/patheras/prometheus-core/internal/config"
	"github.com/patheras/prometheus-core/internal/logging"
	"github.com/patheras/prometheus-core/internal/runtime/providers"
)

// BuildPreferences resolves config.RuntimeConfig.TaskPreferences' "provider/
// model" strings against catalog, dropping and logging any that no longer
// resolve rather than failing startup over a stale configuration entry.
func BuildPreferences(cfg config.RuntimeConfig, catalog *Catalog) Preferences {
	prefs := make(Preferences, len(cfg.TaskPreferences))
	for taskType, refs := range cfg.TaskPreferences {
		var resolved []ModelRef
		for _, refStr := range refs {
			ref, ok := catalog.Resolve(refStr)
			if !ok {
				logging.RuntimeLogger.Warn("dropping unresolvable task preference",
					"task_type", taskType, "ref", refStr)
				continue
			}
			resolved = append(resolved, ref)
		}
		if len(resolved) > 0 {
			prefs[taskType] = resolved
		}
	}
	return prefs
}

// DefaultFallbackOptions derives FallbackOptions from cfg for a call site
// that has no per-request override.
func DefaultFallbackOptions(cfg config.RuntimeConfig) FallbackOptions {
	return FallbackOptions{
		MaxChainLength:        cfg.MaxChainLength,
		AllowedProviders:      cfg.AllowedProviders,
		ExcludedProviders:     cfg.ExcludedProviders,
		CrossProviderFallback: true,
		PreferSameProvider:    true,
	}
}

// NewCredentialManagerFromConfig builds a CredentialManager using cfg's
// cooldown bounds.
func NewCredentialManagerFromConfig(cfg config.RuntimeConfig) *CredentialManager {
	return NewCredentialManager(cfg.CredentialCooldownBase, cfg.CredentialCooldownMax)
}

// DefaultProviders returns the built-in provider adapter registry, keyed by
// provider name.
func DefaultProviders() map[string]LMProvider {
	return map[string]LMProvider{
		"anthropic": providers.NewAnthropic(),
	}
}

// Bootstrap wires a Dispatcher from cfg using the built-in catalog and
// provider adapters, registering one credential per provider env var in
// credentialEnvVars (provider name -> environment variable name, one per
// credential slot).
func Bootstrap(cfg config.RuntimeConfig, credentialEnvVars map[string][]string) *Dispatcher {
	catalog := DefaultCatalog()
	selector := NewSelector(catalog, BuildPreferences(cfg, catalog))
	creds := NewCredentialManagerFromConfig(cfg)
	for provider, envVars := range credentialEnvVars {
		for _, envVar := range envVars {
			creds.Register(provider, envVar)
		}
	}
	return NewDispatcher(catalog, selector, creds, DefaultProviders())
}
