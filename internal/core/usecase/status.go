package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/ParadoxTwo/energy-bill-reader/internal/core/domain"
	"github.com/ParadoxTwo/energy-bill-reader/internal/core/ports"
)

// StatusProvider answers a status lookup from one backend, returning
// ErrJobNotFound when it has no record for the job id.
type StatusProvider interface {
	GetStatus(ctx context.Context, jobID string) (*domain.StatusView, error)
}

// StatusResolver consults providers in priority order and returns the
// first view found. The result store outranks the queue: its records
// are durable while the queue's expire with retention.
type StatusResolver struct {
	providers []StatusProvider
}

func NewStatusResolver(providers ...StatusProvider) *StatusResolver {
	return &StatusResolver{providers: providers}
}

func (r *StatusResolver) GetStatus(ctx context.Context, jobID string) (*domain.StatusView, error) {
	for _, provider := range r.providers {
		view, err := provider.GetStatus(ctx, jobID)
		if err != nil {
			if domain.IsKind(err, domain.ErrJobNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolve job status: %w", err)
		}
		return view, nil
	}
	return nil, domain.WrapError(domain.ErrJobNotFound, "resolve job status", errors.New("no backend has a record for this job"))
}

// ResultStoreStatusProvider serves completed jobs from the durable
// result store. A hit is authoritatively finished; the store keeps no
// timing metadata.
type ResultStoreStatusProvider struct {
	results ports.JobResultRepository
}

func NewResultStoreStatusProvider(results ports.JobResultRepository) *ResultStoreStatusProvider {
	return &ResultStoreStatusProvider{results: results}
}

func (p *ResultStoreStatusProvider) GetStatus(ctx context.Context, jobID string) (*domain.StatusView, error) {
	row, err := p.results.GetByJobID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &domain.StatusView{
		JobID:       row.JobID,
		Status:      domain.JobFinished,
		Content:     row.Content,
		LinkedJobID: row.LinkedJobID,
	}, nil
}

// QueueStatusProvider serves jobs still in flight (or failed) from the
// queue's transient record.
type QueueStatusProvider struct {
	queue ports.JobQueue
}

func NewQueueStatusProvider(queue ports.JobQueue) *QueueStatusProvider {
	return &QueueStatusProvider{queue: queue}
}

func (p *QueueStatusProvider) GetStatus(ctx context.Context, jobID string) (*domain.StatusView, error) {
	job, err := p.queue.Fetch(ctx, jobID)
	if err != nil {
		return nil, err
	}

	view := &domain.StatusView{
		JobID:      job.JobID,
		Status:     job.Status,
		Content:    job.Result,
		EnqueuedAt: job.EnqueuedAt,
		StartedAt:  job.StartedAt,
		EndedAt:    job.EndedAt,
	}
	if job.ExcInfo != "" {
		excInfo := job.ExcInfo
		view.ExcInfo = &excInfo
	}
	return view, nil
}
