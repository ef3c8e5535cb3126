package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/patheras/prometheus-core/internal/errs"
	"github.com/patheras/prometheus-core/internal/store"
)

// StoreDecisionInput is the caller-supplied content for StoreDecision.
type StoreDecisionInput struct {
	Context            string
	Reasoning          string
	Alternatives       json.RawMessage // JSON list of {option, pros[], cons[], effort?}
	ChosenOption       string
	AffectedComponents json.RawMessage // JSON list of strings
}

// StoreDecision records a reasoning trace: the context considered, the
// alternatives weighed, and the option chosen. Alternatives and
// AffectedComponents, when present, must already be valid JSON arrays.
func (e *Engine) StoreDecision(ctx context.Context, in StoreDecisionInput) (string, error) {
	if in.Context == "" {
		return "", errs.Validation("decision context must not be empty")
	}
	if in.Reasoning == "" {
		return "", errs.Validation("decision reasoning must not be empty")
	}
	if in.ChosenOption == "" {
		return "", errs.Validation("decision chosen_option must not be empty")
	}
	if err := validateJSONArray(in.Alternatives, "alternatives"); err != nil {
		return "", err
	}
	if err := validateJSONArray(in.AffectedComponents, "affected_components"); err != nil {
		return "", err
	}

	id := uuid.NewString()
	d := store.Decision{
		ID: id, Timestamp: time.Now().UTC(), Context: in.Context, Reasoning: in.Reasoning,
		Alternatives: in.Alternatives, ChosenOption: in.ChosenOption, AffectedComponents: in.AffectedComponents,
	}
	err := e.store.WithinTx(ctx, func(tx *store.Tx) error {
		return store.InsertDecision(ctx, tx, d)
	})
	if err != nil {
		return "", fmt.Errorf("store decision: %w", err)
	}
	return id, nil
}

// UpdateDecisionOutcome records whether a previously stored decision
// succeeded and any lessons learned; repeated calls overwrite.
func (e *Engine) UpdateDecisionOutcome(ctx context.Context, decisionID string, outcome json.RawMessage, lessons string) error {
	if err := validateJSONObject(outcome, "outcome"); err != nil {
		return err
	}
	err := e.store.WithinTx(ctx, func(tx *store.Tx) error {
		return store.UpdateDecisionOutcome(ctx, tx, decisionID, outcome, lessons)
	})
	if err != nil {
		return fmt.Errorf("update decision outcome: %w", err)
	}
	return nil
}

// GetDecision fetches one decision by id.
func (e *Engine) GetDecision(ctx context.Context, decisionID string) (store.Decision, error) {
	return e.store.GetDecision(ctx, decisionID)
}

// SearchDecisionsInput configures SearchDecisions.
type SearchDecisionsInput struct {
	Query     string
	Outcome   string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
}

// SearchDecisions runs a keyword search over stored decisions, applying the
// same FTS sanitization rule as SearchCode's keyword pass.
func (e *Engine) SearchDecisions(ctx context.Context, in SearchDecisionsInput) ([]store.Decision, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 20
	}
	ftsQuery := sanitizeFTSQuery(in.Query)
	return e.store.SearchDecisionsFTS(ctx, ftsQuery, store.DecisionSearchFilter{
		Outcome: in.Outcome, StartTime: in.StartTime, EndTime: in.EndTime, Limit: limit,
	})
}

func validateJSONArray(raw json.RawMessage, field string) error {
	if len(raw) == 0 {
		return nil
	}
	var v []json.RawMessage
	if err := json.Unmarshal(raw, &v); err != nil {
		return errs.Validation("%s must be a JSON array: %v", field, err)
	}
	return nil
}

func validateJSONObject(raw json.RawMessage, field string) error {
	if len(raw) == 0 {
		return nil
	}
	var v map[string]json.RawMessage
	if err := json.Unmarshal(raw, &v); err != nil {
		return errs.Validation("%s must be a JSON object: %v", field, err)
	}
	return nil
}
