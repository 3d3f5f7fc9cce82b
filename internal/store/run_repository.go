package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/finrag-metrics/internal/contracts"
	"github.com/wonny/finrag-metrics/pkg/database"
)

var _ contracts.RunRepository = (*RunRepository)(nil)

// RunRepository implements contracts.RunRepository
type RunRepository struct {
	db *database.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *database.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save stores a run summary, replacing one with the same run id
func (r *RunRepository) Save(ctx context.Context, summary *contracts.RunSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	query := `
		INSERT INTO finrag.run_summaries (
			run_id, start_year, end_year, merged, outcome, missing_prev, missing_new, summary
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id) DO UPDATE SET
			start_year = EXCLUDED.start_year,
			end_year = EXCLUDED.end_year,
			merged = EXCLUDED.merged,
			outcome = EXCLUDED.outcome,
			missing_prev = EXCLUDED.missing_prev,
			missing_new = EXCLUDED.missing_new,
			summary = EXCLUDED.summary`

	_, err = r.db.Pool.Exec(ctx, query,
		summary.RunID, summary.StartYear, summary.EndYear, summary.Merged,
		string(summary.Outcome), summary.MissingPrev, summary.MissingNew, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", summary.RunID, err)
	}
	return nil
}

// Latest returns the most recent run summary
func (r *RunRepository) Latest(ctx context.Context) (*contracts.RunSummary, error) {
	var payload []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT summary FROM finrag.run_summaries ORDER BY run_id DESC LIMIT 1`,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return decodeSummary(payload)
}

// List returns up to limit summaries, newest first
func (r *RunRepository) List(ctx context.Context, limit int) ([]*contracts.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT summary FROM finrag.run_summaries ORDER BY run_id DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]*contracts.RunSummary, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		s, err := decodeSummary(payload)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func decodeSummary(payload []byte) (*contracts.RunSummary, error) {
	var s contracts.RunSummary
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &s, nil
}
