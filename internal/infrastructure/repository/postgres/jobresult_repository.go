package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ParadoxTwo/energy-bill-reader/internal/core/domain"
)

// JobResultRepository is the durable result store. created_at and
// updated_at are assigned by the database so rows carry server time,
// not worker clocks.
type JobResultRepository struct {
	db *sql.DB
}

func NewJobResultRepository(db *sql.DB) *JobResultRepository {
	return &JobResultRepository{db: db}
}

func (r *JobResultRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026053002)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS job_results (
	id UUID PRIMARY KEY,
	job_id TEXT NOT NULL UNIQUE,
	document_id UUID NOT NULL REFERENCES documents(id),
	email TEXT NOT NULL,
	job_type TEXT NOT NULL,
	content JSONB,
	linked_job_id TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_job_results_document_id ON job_results(document_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *JobResultRepository) Insert(ctx context.Context, result *domain.JobResult) error {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO job_results (id, job_id, document_id, email, job_type, content, linked_job_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at
`,
		result.ID, result.JobID, result.DocumentID, result.Email,
		string(result.JobType), []byte(result.Content), result.LinkedJobID,
	)
	if err := row.Scan(&result.CreatedAt, &result.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.WrapError(domain.ErrInvalidInput, "insert job result",
				fmt.Errorf("job id %s already recorded", result.JobID))
		}
		return fmt.Errorf("insert job result: %w", err)
	}
	return nil
}

func (r *JobResultRepository) GetByJobID(ctx context.Context, jobID string) (*domain.JobResult, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, job_id, document_id, email, job_type, content, linked_job_id, created_at, updated_at
FROM job_results
WHERE job_id = $1
`, jobID)

	result, err := scanJobResult(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrJobNotFound, "get job result", fmt.Errorf("job id %s", jobID))
		}
		return nil, err
	}
	return result, nil
}

func (r *JobResultRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.JobResult, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, job_id, document_id, email, job_type, content, linked_job_id, created_at, updated_at
FROM job_results
WHERE document_id = $1
ORDER BY created_at
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query job results: %w", err)
	}
	defer rows.Close()

	var results []domain.JobResult
	for rows.Next() {
		result, err := scanJobResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job results: %w", err)
	}
	return results, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJobResult(row rowScanner) (*domain.JobResult, error) {
	var result domain.JobResult
	var jobType string
	var content []byte

	err := row.Scan(
		&result.ID, &result.JobID, &result.DocumentID, &result.Email,
		&jobType, &content, &result.LinkedJobID, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan job result: %w", err)
	}
	result.JobType = domain.StageKind(jobType)
	result.Content = content
	return &result, nil
}
