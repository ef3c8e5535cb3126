package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/patheras/prometheus-core/internal/errs"
)

// InsertPattern writes a new pattern row inside tx. SuccessCount/FailureCount
// start at whatever the caller passes (normally 0,0 for a freshly learned pattern).
func InsertPattern(ctx context.Context, tx *Tx, p Pattern) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO patterns(id, name, category, problem, solution, example_code, applicability, success_count, failure_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Category, p.Problem, p.Solution, p.ExampleCode, p.Applicability, p.SuccessCount, p.FailureCount)
	if err != nil {
		return fmt.Errorf("insert pattern: %w", err)
	}
	return nil
}

// RecordPatternOutcome atomically increments success_count or failure_count
// for an existing pattern. Returns NotFound if id is unknown.
func (s *Store) RecordPatternOutcome(ctx context.Context, tx *Tx, id string, success bool) error {
	column := "failure_count"
	if success {
		column = "success_count"
	}
	res, err := tx.ExecContext(ctx, fmt.Sprintf(`UPDATE patterns SET %s = %s + 1 WHERE id = ?`, column, column), id)
	if err != nil {
		return fmt.Errorf("record pattern outcome: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return errs.NotFound("pattern %s", id)
	}
	return nil
}

// GetPattern fetches a single pattern by id.
func (s *Store) GetPattern(ctx context.Context, id string) (Pattern, error) {
	return scanPatternRow(s.db.QueryRowContext(ctx, `
		SELECT id, name, category, problem, solution, example_code, applicability, success_count, failure_count
		FROM patterns WHERE id = ?`, id))
}

func scanPatternRow(row *sql.Row) (Pattern, error) {
	var p Pattern
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Problem, &p.Solution, &p.ExampleCode, &p.Applicability, &p.SuccessCount, &p.FailureCount); err != nil {
		if err == sql.ErrNoRows {
			return Pattern{}, errs.NotFound("pattern")
		}
		return Pattern{}, err
	}
	return p, nil
}

// ListPatterns returns patterns optionally filtered by category, ordered by
// success_count descending so the most-validated patterns surface first.
func (s *Store) ListPatterns(ctx context.Context, category string, limit int) ([]Pattern, error) {
	query := `SELECT id, name, category, problem, solution, example_code, applicability, success_count, failure_count FROM patterns`
	var args []interface{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY success_count DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	defer rows.Close()

	var out []Pattern
	for rows.Next() {
		var p Pattern
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Problem, &p.Solution, &p.ExampleCode, &p.Applicability, &p.SuccessCount, &p.FailureCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
