package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ParadoxTwo/energy-bill-reader/internal/core/domain"
	"github.com/ParadoxTwo/energy-bill-reader/internal/core/ports"
)

type IngestBillUseCase struct {
	docs    ports.DocumentRepository
	storage ports.FileStore
	queue   ports.JobQueue
}

func NewIngestBillUseCase(
	docs ports.DocumentRepository,
	storage ports.FileStore,
	queue ports.JobQueue,
) *IngestBillUseCase {
	return &IngestBillUseCase{
		docs:    docs,
		storage: storage,
		queue:   queue,
	}
}

// Upload stores the bill on disk and in the document store, then
// enqueues the first pipeline stage against the on-disk copy. The
// returned job id is recorded back on the document for correlation.
func (uc *IngestBillUseCase) Upload(
	ctx context.Context,
	email, filename string,
	body io.Reader,
) (*domain.UploadReceipt, error) {
	if strings.TrimSpace(email) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload bill", errors.New("email is required"))
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read upload body: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload bill", errors.New("uploaded file is empty"))
	}

	id := uuid.NewString()
	path, err := uc.storage.Save(ctx, id+".pdf", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("save bill to file store: %w", err)
	}

	doc := &domain.Document{
		ID:        id,
		Email:     email,
		Filename:  filename,
		Content:   raw,
		CreatedAt: time.Now().UTC(),
	}
	if doc.Filename == "" {
		doc.Filename = id + ".pdf"
	}
	if err := uc.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	jobID, err := uc.queue.Enqueue(ctx, domain.ParseTask{
		Path:       path,
		DocumentID: doc.ID,
		Email:      email,
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue parse stage: %w", err)
	}

	if err := uc.docs.SetCurrentJob(ctx, doc.ID, jobID); err != nil {
		return nil, fmt.Errorf("record job id on document: %w", err)
	}

	return &domain.UploadReceipt{
		JobID:      jobID,
		DocumentID: doc.ID,
		Filename:   doc.Filename,
	}, nil
}
