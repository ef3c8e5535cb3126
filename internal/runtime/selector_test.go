package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPreferences() Preferences {
	return Preferences{
		"code_generation": {
			{Provider: "anthropic", Model: "claude-opus"},
			{Provider: "openai", Model: "gpt-4o-mini"},
		},
	}
}

func TestSelectUsesFirstEligiblePreference(t *testing.T) {
	s := NewSelector(testCatalog(t), testPreferences())
	sel, err := s.Select("code_generation", SelectOptions{})
	require.NoError(t, err)
	assert.Equal(t, "preference", sel.Tag)
	assert.Equal(t, 0, sel.PreferenceRank)
	assert.Equal(t, "claude-opus", sel.Entry.Ref.Model)
}

func TestSelectSkipsFilteredPreferencesAndCountsThem(t *testing.T) {
	s := NewSelector(testCatalog(t), testPreferences())
	sel, err := s.Select("code_generation", SelectOptions{MaxCostTier: CostMedium})
	require.NoError(t, err)
	assert.Equal(t, "preference", sel.Tag)
	assert.Equal(t, "gpt-4o-mini", sel.Entry.Ref.Model)
	assert.Equal(t, 1, sel.FilteredCount)
}

func TestSelectFallsBackToCatalogDefaultWhenNoPreferenceMatches(t *testing.T) {
	s := NewSelector(testCatalog(t), testPreferences())
	sel, err := s.Select("unknown_task_type", SelectOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", sel.Tag)
	assert.Equal(t, "claude-haiku", sel.Entry.Ref.Model)
}

func TestSelectForceModelWins(t *testing.T) {
	s := NewSelector(testCatalog(t), testPreferences())
	sel, err := s.Select("code_generation", SelectOptions{ForceModel: "openai/gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "forced", sel.Tag)
	assert.Equal(t, -1, sel.PreferenceRank)
	assert.Equal(t, "gpt-4o-mini", sel.Entry.Ref.Model)
}

func TestSelectForceModelRejectsUnknownRef(t *testing.T) {
	s := NewSelector(testCatalog(t), testPreferences())
	_, err := s.Select("code_generation", SelectOptions{ForceModel: "nope/nope"})
	assert.Error(t, err)
}

func TestSelectForceModelRejectsModelFailingFilters(t *testing.T) {
	s := NewSelector(testCatalog(t), testPreferences())
	_, err := s.Select("code_generation", SelectOptions{ForceModel: "anthropic/claude-opus", MaxCostTier: CostLow})
	assert.Error(t, err)
}

func TestSelectRequiredCapabilitiesFilterOutNonMatchingEntries(t *testing.T) {
	s := NewSelector(testCatalog(t), testPreferences())
	sel, err := s.Select("code_generation", SelectOptions{RequiredCapabilities: Capabilities{Vision: true}})
	require.NoError(t, err)
	// only claude-opus has vision among the preference list; gpt-4o-mini is filtered out
	assert.Equal(t, "claude-opus", sel.Entry.Ref.Model)
}

func TestSelectExcludedProvidersSkipsEntries(t *testing.T) {
	s := NewSelector(testCatalog(t), testPreferences())
	sel, err := s.Select("code_generation", SelectOptions{ExcludedProviders: []string{"anthropic"}})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", sel.Entry.Ref.Model)
}
