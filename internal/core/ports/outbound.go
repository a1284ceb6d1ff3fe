package ports

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ParadoxTwo/energy-bill-reader/internal/core/domain"
)

// DocumentRepository persists and reads uploaded bills.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	SetCurrentJob(ctx context.Context, id, jobID string) error
}

// JobResultRepository is the durable result store. Rows outlive the
// queue's own bookkeeping and are the source of truth once a stage
// completes.
type JobResultRepository interface {
	Insert(ctx context.Context, result *domain.JobResult) error
	GetByJobID(ctx context.Context, jobID string) (*domain.JobResult, error)
	ListByDocument(ctx context.Context, documentID string) ([]domain.JobResult, error)
}

// JobQueue dispatches stage tasks to workers and exposes the transient
// per-job record for status polling.
type JobQueue interface {
	Enqueue(ctx context.Context, task domain.StageTask) (string, error)
	Fetch(ctx context.Context, jobID string) (*domain.QueueJob, error)
}

// StageHandler executes one delivered stage task.
type StageHandler func(ctx context.Context, delivery domain.StageDelivery) (*domain.StageResult, error)

// StageConsumer is the worker-side face of the queue: it delivers each
// task to exactly one handler invocation within the worker group and
// records the transient outcome.
type StageConsumer interface {
	Subscribe(ctx context.Context, handler StageHandler) error
}

// JobTracker records the queue's transient per-job state. Terminal
// records are kept only for the configured retention window.
type JobTracker interface {
	MarkQueued(ctx context.Context, jobID string) error
	MarkStarted(ctx context.Context, jobID string) error
	MarkFinished(ctx context.Context, jobID string, result json.RawMessage) error
	MarkFailed(ctx context.Context, jobID string, excInfo string) error
	Fetch(ctx context.Context, jobID string) (*domain.QueueJob, error)
}

// FileStore keeps uploaded PDFs on durable storage until the parse
// stage has consumed them.
type FileStore interface {
	Save(ctx context.Context, key string, data io.Reader) (string, error)
	Remove(ctx context.Context, path string) error
}

// PDFTextExtractor extracts plain text from a stored PDF.
type PDFTextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// BillFieldExtractor turns bill text into the structured field set via
// an external text-understanding service.
type BillFieldExtractor interface {
	ExtractFields(ctx context.Context, text string) (map[string]any, error)
}
