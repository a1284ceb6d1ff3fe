package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ParadoxTwo/energy-bill-reader/internal/core/domain"
)

// Store keeps the queue's transient per-job record in a Redis hash.
// Terminal records (finished/failed) expire after the retention window;
// the durable result rows in Postgres are unaffected.
type Store struct {
	client    *goredis.Client
	retention time.Duration
}

func New(url string, retention time.Duration) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	if retention <= 0 {
		retention = 500 * time.Second
	}
	return &Store{client: client, retention: retention}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func jobKey(jobID string) string {
	return "job:" + jobID
}

func (s *Store) MarkQueued(ctx context.Context, jobID string) error {
	err := s.client.HSet(ctx, jobKey(jobID),
		"status", string(domain.JobQueued),
		"enqueued_at", time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("mark job queued: %w", err)
	}
	return nil
}

func (s *Store) MarkStarted(ctx context.Context, jobID string) error {
	err := s.client.HSet(ctx, jobKey(jobID),
		"status", string(domain.JobStarted),
		"started_at", time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("mark job started: %w", err)
	}
	return nil
}

func (s *Store) MarkFinished(ctx context.Context, jobID string, result json.RawMessage) error {
	return s.markTerminal(ctx, jobID, domain.JobFinished, "result", string(result))
}

func (s *Store) MarkFailed(ctx context.Context, jobID string, excInfo string) error {
	return s.markTerminal(ctx, jobID, domain.JobFailed, "exc_info", excInfo)
}

func (s *Store) markTerminal(ctx context.Context, jobID string, status domain.JobStatus, field, value string) error {
	key := jobKey(jobID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"status", string(status),
		"ended_at", time.Now().UTC().Format(time.RFC3339Nano),
		field, value,
	)
	pipe.Expire(ctx, key, s.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mark job %s: %w", status, err)
	}
	return nil
}

func (s *Store) Fetch(ctx context.Context, jobID string) (*domain.QueueJob, error) {
	fields, err := s.client.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch job record: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.WrapError(domain.ErrJobNotFound, "fetch job record", fmt.Errorf("no record for %s", jobID))
	}

	job := &domain.QueueJob{
		JobID:      jobID,
		Status:     domain.JobStatus(fields["status"]),
		ExcInfo:    fields["exc_info"],
		EnqueuedAt: parseTimestamp(fields["enqueued_at"]),
		StartedAt:  parseTimestamp(fields["started_at"]),
		EndedAt:    parseTimestamp(fields["ended_at"]),
	}
	if raw := fields["result"]; raw != "" {
		job.Result = json.RawMessage(raw)
	}
	return job, nil
}

func parseTimestamp(value string) *time.Time {
	if value == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil
	}
	return &ts
}
