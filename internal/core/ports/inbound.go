package ports

import (
	"context"
	"io"

	"github.com/ParadoxTwo/energy-bill-reader/internal/core/domain"
)

// BillIngestor is the inbound contract for bill upload orchestration.
type BillIngestor interface {
	Upload(ctx context.Context, email, filename string, body io.Reader) (*domain.UploadReceipt, error)
}

// StatusReader resolves the status of one stage execution.
type StatusReader interface {
	GetStatus(ctx context.Context, jobID string) (*domain.StatusView, error)
}

// StageExecutor runs one stage task delivered by the queue.
type StageExecutor interface {
	Run(ctx context.Context, jobID string, task domain.StageTask) (*domain.StageResult, error)
}
