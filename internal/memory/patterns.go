package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/patheras/prometheus-core/internal/errs"
	"github.com/patheras/prometheus-core/internal/store"
)

// StorePatternInput is the caller-supplied content for StorePattern.
type StorePatternInput struct {
	Name          string
	Category      string
	Problem       string
	Solution      string
	ExampleCode   string
	Applicability string
}

// StorePattern records a reusable solution shape, starting its success and
// failure counters at zero.
func (e *Engine) StorePattern(ctx context.Context, in StorePatternInput) (string, error) {
	if in.Name == "" {
		return "", errs.Validation("pattern name must not be empty")
	}
	if in.Problem == "" {
		return "", errs.Validation("pattern problem must not be empty")
	}
	if in.Solution == "" {
		return "", errs.Validation("pattern solution must not be empty")
	}

	id := uuid.NewString()
	p := store.Pattern{
		ID: id, Name: in.Name, Category: in.Category, Problem: in.Problem,
		Solution: in.Solution, ExampleCode: in.ExampleCode, Applicability: in.Applicability,
	}
	err := e.store.WithinTx(ctx, func(tx *store.Tx) error {
		return store.InsertPattern(ctx, tx, p)
	})
	if err != nil {
		return "", fmt.Errorf("store pattern: %w", err)
	}
	return id, nil
}

// RecordPatternOutcome increments a pattern's success or failure counter.
func (e *Engine) RecordPatternOutcome(ctx context.Context, patternID string, success bool) error {
	err := e.store.WithinTx(ctx, func(tx *store.Tx) error {
		return e.store.RecordPatternOutcome(ctx, tx, patternID, success)
	})
	if err != nil {
		return fmt.Errorf("record pattern outcome: %w", err)
	}
	return nil
}

// GetPattern fetches one pattern by id.
func (e *Engine) GetPattern(ctx context.Context, patternID string) (store.Pattern, error) {
	return e.store.GetPattern(ctx, patternID)
}

// ListPatterns returns patterns optionally filtered by category, most
// successful first.
func (e *Engine) ListPatterns(ctx context.Context, category string, limit int) ([]store.Pattern, error) {
	return e.store.ListPatterns(ctx, category, limit)
}
