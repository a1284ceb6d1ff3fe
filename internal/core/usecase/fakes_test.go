package usecase

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/ParadoxTwo/energy-bill-reader/internal/core/domain"
)

type memoryDocumentRepo struct {
	docs      map[string]*domain.Document
	createErr error
	getErr    error
	setJobErr error
	jobsByDoc map[string]string
}

func newMemoryDocumentRepo() *memoryDocumentRepo {
	return &memoryDocumentRepo{
		docs:      make(map[string]*domain.Document),
		jobsByDoc: make(map[string]string),
	}
}

func (r *memoryDocumentRepo) Create(_ context.Context, doc *domain.Document) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *memoryDocumentRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("no document %s", id))
	}
	return doc, nil
}

func (r *memoryDocumentRepo) SetCurrentJob(_ context.Context, id, jobID string) error {
	if r.setJobErr != nil {
		return r.setJobErr
	}
	if _, ok := r.docs[id]; !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, "set current job", fmt.Errorf("no document %s", id))
	}
	r.jobsByDoc[id] = jobID
	return nil
}

type memoryResultRepo struct {
	rows      []*domain.JobResult
	insertErr error
}

func (r *memoryResultRepo) Insert(_ context.Context, result *domain.JobResult) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.rows = append(r.rows, result)
	return nil
}

func (r *memoryResultRepo) GetByJobID(_ context.Context, jobID string) (*domain.JobResult, error) {
	for _, row := range r.rows {
		if row.JobID == jobID {
			return row, nil
		}
	}
	return nil, domain.WrapError(domain.ErrJobNotFound, "get job result", fmt.Errorf("no result for %s", jobID))
}

func (r *memoryResultRepo) ListByDocument(_ context.Context, documentID string) ([]domain.JobResult, error) {
	var out []domain.JobResult
	for _, row := range r.rows {
		if row.DocumentID == documentID {
			out = append(out, *row)
		}
	}
	return out, nil
}

type fakeQueue struct {
	enqueued   []domain.StageTask
	enqueueErr error
	jobs       map[string]*domain.QueueJob
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{jobs: make(map[string]*domain.QueueJob)}
}

func (q *fakeQueue) Enqueue(_ context.Context, task domain.StageTask) (string, error) {
	if q.enqueueErr != nil {
		return "", q.enqueueErr
	}
	q.enqueued = append(q.enqueued, task)
	return "job-" + strconv.Itoa(len(q.enqueued)), nil
}

func (q *fakeQueue) Fetch(_ context.Context, jobID string) (*domain.QueueJob, error) {
	job, ok := q.jobs[jobID]
	if !ok {
		return nil, domain.WrapError(domain.ErrJobNotFound, "fetch job record", fmt.Errorf("no record for %s", jobID))
	}
	return job, nil
}

type fakeFileStore struct {
	saved     map[string][]byte
	removed   []string
	saveErr   error
	removeErr error
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{saved: make(map[string][]byte)}
}

func (s *fakeFileStore) Save(_ context.Context, key string, data io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	path := "/uploads/" + key
	s.saved[path] = raw
	return path, nil
}

func (s *fakeFileStore) Remove(_ context.Context, path string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = append(s.removed, path)
	delete(s.saved, path)
	return nil
}

type fakePDFExtractor struct {
	text string
	err  error
}

func (e *fakePDFExtractor) ExtractText(context.Context, string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

type fakeFieldExtractor struct {
	fields map[string]any
	err    error
}

func (e *fakeFieldExtractor) ExtractFields(context.Context, string) (map[string]any, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.fields, nil
}
