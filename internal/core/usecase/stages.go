package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ParadoxTwo/energy-bill-reader/internal/core/domain"
	"github.com/ParadoxTwo/energy-bill-reader/internal/core/ports"
)

// StageRunner executes pipeline stage tasks delivered by the job queue.
// Each execution persists exactly one job result row on success and
// never writes a partial row on failure.
type StageRunner struct {
	docs    ports.DocumentRepository
	results ports.JobResultRepository
	files   ports.FileStore
	pdf     ports.PDFTextExtractor
	fields  ports.BillFieldExtractor
	queue   ports.JobQueue
	logger  *slog.Logger
}

func NewStageRunner(
	docs ports.DocumentRepository,
	results ports.JobResultRepository,
	files ports.FileStore,
	pdf ports.PDFTextExtractor,
	fields ports.BillFieldExtractor,
	queue ports.JobQueue,
	logger *slog.Logger,
) *StageRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &StageRunner{
		docs:    docs,
		results: results,
		files:   files,
		pdf:     pdf,
		fields:  fields,
		queue:   queue,
		logger:  logger,
	}
}

func (r *StageRunner) Run(ctx context.Context, jobID string, task domain.StageTask) (*domain.StageResult, error) {
	switch t := task.(type) {
	case domain.ParseTask:
		return r.runParse(ctx, jobID, t)
	case domain.ExtractTask:
		return r.runExtract(ctx, jobID, t)
	default:
		return nil, fmt.Errorf("unknown stage kind: %q", task.Stage())
	}
}

// runParse extracts the bill text, chains the extract stage and records
// the parse result. The source file is consumed: once the result row is
// committed it is removed from the file store on a best-effort basis.
func (r *StageRunner) runParse(ctx context.Context, jobID string, task domain.ParseTask) (*domain.StageResult, error) {
	text, err := r.pdf.ExtractText(ctx, task.Path)
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	linkedID, err := r.queue.Enqueue(ctx, domain.ExtractTask{
		Text:       text,
		DocumentID: task.DocumentID,
		Email:      task.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue extract stage: %w", err)
	}

	content := map[string]any{"raw_text": text}
	if err := r.persistResult(ctx, jobID, task.DocumentID, task.Email, domain.StageParse, content, &linkedID); err != nil {
		return nil, err
	}

	// Cleanup must never fail the job; a stray file is an operator
	// problem, not a pipeline one.
	if err := r.files.Remove(ctx, task.Path); err != nil {
		r.logger.Warn("failed to delete source pdf", "path", task.Path, "job_id", jobID, "error", err)
	}

	return &domain.StageResult{LinkedJobID: &linkedID, Content: content}, nil
}

// runExtract calls the field-extraction service and records the
// terminal result. A malformed service response aborts the stage with
// no row written; the upstream parse row stays valid and queryable.
func (r *StageRunner) runExtract(ctx context.Context, jobID string, task domain.ExtractTask) (*domain.StageResult, error) {
	fields, err := r.fields.ExtractFields(ctx, task.Text)
	if err != nil {
		return nil, fmt.Errorf("extract bill fields: %w", err)
	}

	if err := r.persistResult(ctx, jobID, task.DocumentID, task.Email, domain.StageExtract, fields, nil); err != nil {
		return nil, err
	}

	return &domain.StageResult{LinkedJobID: nil, Content: fields}, nil
}

// persistResult looks up the owning document and writes the stage's
// result row. A missing document signals an upstream consistency
// violation and fails the stage before anything is written.
func (r *StageRunner) persistResult(
	ctx context.Context,
	jobID, documentID, email string,
	kind domain.StageKind,
	content map[string]any,
	linkedJobID *string,
) error {
	if _, err := r.docs.GetByID(ctx, documentID); err != nil {
		return fmt.Errorf("lookup document for %s result: %w", kind, err)
	}

	payload, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("marshal %s content: %w", kind, err)
	}

	row := &domain.JobResult{
		ID:          uuid.NewString(),
		JobID:       jobID,
		DocumentID:  documentID,
		Email:       email,
		JobType:     kind,
		Content:     payload,
		LinkedJobID: linkedJobID,
	}
	if err := r.results.Insert(ctx, row); err != nil {
		return fmt.Errorf("insert %s result: %w", kind, err)
	}
	return nil
}
