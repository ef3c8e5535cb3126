package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/patheras/prometheus-core/internal/errs"
)

// InsertDecision writes a decision row and its FTS mirror inside tx.
func InsertDecision(ctx context.Context, tx *Tx, d Decision) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO decisions(id, timestamp, context, reasoning, alternatives, chosen_option, outcome, lessons_learned, affected_components)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Timestamp, d.Context, d.Reasoning, string(d.Alternatives), d.ChosenOption,
		nullableBytes(d.Outcome), nullableString(d.LessonsLearned), nullableBytes(d.AffectedComponents))
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return mirrorDecisionFTS(ctx, tx, d)
}

func mirrorDecisionFTS(ctx context.Context, tx *Tx, d Decision) error {
	content := strings.Join([]string{d.Context, d.Reasoning, string(d.Alternatives), d.ChosenOption}, "\n")
	if _, err := tx.ExecContext(ctx, `DELETE FROM decisions_fts WHERE id = ?`, d.ID); err != nil {
		return fmt.Errorf("clear stale decision fts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO decisions_fts(id, content) VALUES (?, ?)`, d.ID, content); err != nil {
		return fmt.Errorf("mirror decision into fts: %w", err)
	}
	return nil
}

// UpdateDecisionOutcome sets outcome/lessons_learned on an existing decision;
// repeated calls overwrite (last write wins). Returns NotFound if id is unknown.
func UpdateDecisionOutcome(ctx context.Context, tx *Tx, id string, outcome []byte, lessons string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE decisions SET outcome = ?, lessons_learned = ? WHERE id = ?`,
		nullableBytes(outcome), nullableString(lessons), id)
	if err != nil {
		return fmt.Errorf("update decision outcome: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return errs.NotFound("decision %s", id)
	}
	return nil
}

// GetDecision fetches one decision by id.
func (s *Store) GetDecision(ctx context.Context, id string) (Decision, error) {
	return scanDecisionRow(s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, context, reasoning, alternatives, chosen_option, outcome, lessons_learned, affected_components
		FROM decisions WHERE id = ?`, id))
}

func scanDecisionRow(row *sql.Row) (Decision, error) {
	var d Decision
	var outcome, lessons, affected sql.NullString
	if err := row.Scan(&d.ID, &d.Timestamp, &d.Context, &d.Reasoning, &d.Alternatives, &d.ChosenOption, &outcome, &lessons, &affected); err != nil {
		if err == sql.ErrNoRows {
			return Decision{}, errs.NotFound("decision")
		}
		return Decision{}, err
	}
	if outcome.Valid {
		d.Outcome = []byte(outcome.String)
	}
	d.LessonsLearned = lessons.String
	if affected.Valid {
		d.AffectedComponents = []byte(affected.String)
	}
	return d, nil
}

// DecisionSearchFilter narrows SearchDecisionsFTS.
type DecisionSearchFilter struct {
	Outcome   string // "success" | "failure" | "" (any) | "null" (no outcome recorded)
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
}

// SearchDecisionsFTS runs ftsQuery (already sanitized by the caller) against
// decisions_fts, joins back to decisions, applies the outcome/time filters,
// and orders by timestamp descending.
func (s *Store) SearchDecisionsFTS(ctx context.Context, ftsQuery string, filter DecisionSearchFilter) ([]Decision, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT d.id, d.timestamp, d.context, d.reasoning, d.alternatives, d.chosen_option, d.outcome, d.lessons_learned, d.affected_components
		FROM decisions d JOIN decisions_fts f ON f.id = d.id
		WHERE f.content MATCH ?`)
	args := []interface{}{ftsQuery}

	switch filter.Outcome {
	case "success":
		query.WriteString(` AND d.outcome IS NOT NULL AND json_extract(d.outcome, '$.success') = 1`)
	case "failure":
		query.WriteString(` AND d.outcome IS NOT NULL AND json_extract(d.outcome, '$.success') = 0`)
	case "null":
		query.WriteString(` AND d.outcome IS NULL`)
	}
	if filter.StartTime != nil {
		query.WriteString(` AND d.timestamp >= ?`)
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		query.WriteString(` AND d.timestamp <= ?`)
		args = append(args, *filter.EndTime)
	}
	query.WriteString(` ORDER BY d.timestamp DESC`)
	if filter.Limit > 0 {
		query.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search decisions: %w", err)
	}
	defer rows.Close()

	var out []Decision
	for rows.Next() {
		var d Decision
		var outcome, lessons, affected sql.NullString
		if err := rows.Scan(&d.ID, &d.Timestamp, &d.Context, &d.Reasoning, &d.Alternatives, &d.ChosenOption, &outcome, &lessons, &affected); err != nil {
			return nil, err
		}
		if outcome.Valid {
			d.Outcome = []byte(outcome.String)
		}
		d.LessonsLearned = lessons.String
		if affected.Valid {
			d.AffectedComponents = []byte(affected.String)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
