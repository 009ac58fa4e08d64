package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hrpay/internal/platform/querier"
)

type Run struct {
	ID          string          `json:"id"`
	JobType     string          `json:"jobType"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

type RunFilter struct {
	JobType string
	Status  string
}

type RunStore interface {
	StartRun(ctx context.Context, jobType string) (string, error)
	FinishRun(ctx context.Context, runID, status string, details []byte) error
	ListRuns(ctx context.Context, filter RunFilter, limit, offset int) ([]Run, error)
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) StartRun(ctx context.Context, jobType string) (string, error) {
	var runID string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, jobType, StatusRunning).Scan(&runID)
	return runID, err
}

func (s *Store) FinishRun(ctx context.Context, runID, status string, details []byte) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, details, runID)
	return err
}

func (s *Store) ListRuns(ctx context.Context, filter RunFilter, limit, offset int) ([]Run, error) {
	query := `
    SELECT id, job_type, status, COALESCE(details_json, '{}'::jsonb), started_at, completed_at
    FROM job_runs
    WHERE 1=1`
	var args []any
	if filter.JobType != "" {
		args = append(args, filter.JobType)
		query += fmt.Sprintf(" AND job_type = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += fmt.Sprintf(" ORDER BY started_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var details []byte
		if err := rows.Scan(&r.ID, &r.JobType, &r.Status, &details, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, err
		}
		r.Details = details
		out = append(out, r)
	}
	return out, rows.Err()
}

var _ RunStore = (*Store)(nil)
