package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ParadoxTwo/energy-bill-reader/internal/core/domain"
)

func TestUploadHappyPath(t *testing.T) {
	docs := newMemoryDocumentRepo()
	files := newFakeFileStore()
	queue := newFakeQueue()
	uc := NewIngestBillUseCase(docs, files, queue)

	receipt, err := uc.Upload(context.Background(), "user@example.com", "bill.pdf", bytes.NewReader([]byte("%PDF-1.4")))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if receipt.JobID == "" || receipt.DocumentID == "" {
		t.Fatalf("incomplete receipt: %+v", receipt)
	}
	if receipt.Filename != "bill.pdf" {
		t.Fatalf("unexpected filename %q", receipt.Filename)
	}

	doc, err := docs.GetByID(context.Background(), receipt.DocumentID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Email != "user@example.com" {
		t.Fatalf("unexpected email %q", doc.Email)
	}
	if string(doc.Content) != "%PDF-1.4" {
		t.Fatalf("document content not captured")
	}

	if len(queue.enqueued) != 1 {
		t.Fatalf("expected one enqueued task, got %d", len(queue.enqueued))
	}
	task, ok := queue.enqueued[0].(domain.ParseTask)
	if !ok {
		t.Fatalf("expected ParseTask, got %T", queue.enqueued[0])
	}
	if task.DocumentID != receipt.DocumentID || task.Email != "user@example.com" {
		t.Fatalf("unexpected parse task: %+v", task)
	}
	if !strings.HasSuffix(task.Path, receipt.DocumentID+".pdf") {
		t.Fatalf("task path %q does not reference the stored pdf", task.Path)
	}
	if _, ok := files.saved[task.Path]; !ok {
		t.Fatalf("pdf not saved at %q", task.Path)
	}

	if docs.jobsByDoc[receipt.DocumentID] != receipt.JobID {
		t.Fatalf("job id not recorded on document")
	}
}

func TestUploadRequiresEmail(t *testing.T) {
	uc := NewIngestBillUseCase(newMemoryDocumentRepo(), newFakeFileStore(), newFakeQueue())

	_, err := uc.Upload(context.Background(), "   ", "bill.pdf", bytes.NewReader([]byte("%PDF-1.4")))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUploadRejectsEmptyBody(t *testing.T) {
	files := newFakeFileStore()
	uc := NewIngestBillUseCase(newMemoryDocumentRepo(), files, newFakeQueue())

	_, err := uc.Upload(context.Background(), "user@example.com", "bill.pdf", bytes.NewReader(nil))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(files.saved) != 0 {
		t.Fatalf("empty upload must not reach the file store")
	}
}

func TestUploadEnqueueFailurePropagates(t *testing.T) {
	docs := newMemoryDocumentRepo()
	queue := newFakeQueue()
	queue.enqueueErr = errors.New("broker down")
	uc := NewIngestBillUseCase(docs, newFakeFileStore(), queue)

	_, err := uc.Upload(context.Background(), "user@example.com", "bill.pdf", bytes.NewReader([]byte("%PDF-1.4")))
	if err == nil || !strings.Contains(err.Error(), "broker down") {
		t.Fatalf("expected enqueue failure, got %v", err)
	}
	if len(docs.jobsByDoc) != 0 {
		t.Fatalf("no job id should be recorded after enqueue failure")
	}
}
