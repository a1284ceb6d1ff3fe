package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/ParadoxTwo/energy-bill-reader/internal/core/domain"
	"github.com/ParadoxTwo/energy-bill-reader/internal/core/ports"
	"github.com/ParadoxTwo/energy-bill-reader/internal/infrastructure/resilience"
)

// Queue dispatches stage tasks over a NATS subject and keeps the
// transient per-job record in the tracker. Delivery goes to exactly one
// member of the "workers" queue group.
type Queue struct {
	conn     *nats.Conn
	subject  string
	tracker  ports.JobTracker
	executor *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url, subject string, tracker ports.JobTracker) (*Queue, error) {
	return NewWithOptions(url, subject, tracker, Options{})
}

func NewWithOptions(url, subject string, tracker ports.JobTracker, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("energy-bill-reader"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		tracker:  tracker,
		executor: options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// Enqueue assigns the job id, records the queued state and publishes
// the task. A failed publish is reflected back into the tracker so the
// job never lingers as queued.
func (q *Queue) Enqueue(ctx context.Context, task domain.StageTask) (string, error) {
	jobID := uuid.NewString()
	data, err := encodeTask(jobID, task, time.Now().UTC())
	if err != nil {
		return "", err
	}

	if err := q.tracker.MarkQueued(ctx, jobID); err != nil {
		return "", fmt.Errorf("track queued job: %w", err)
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, data); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		if trackErr := q.tracker.MarkFailed(ctx, jobID, err.Error()); trackErr != nil {
			slog.Warn("failed to track publish failure", "job_id", jobID, "error", trackErr)
		}
		return "", wrapTemporaryIfNeeded(err)
	}
	return jobID, nil
}

func (q *Queue) Fetch(ctx context.Context, jobID string) (*domain.QueueJob, error) {
	return q.tracker.Fetch(ctx, jobID)
}

// Subscribe consumes stage tasks until the context is cancelled,
// recording started/finished/failed transitions around each handler
// invocation.
func (q *Queue) Subscribe(ctx context.Context, handler ports.StageHandler) error {
	sub, err := q.conn.QueueSubscribe(q.subject, "workers", func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		delivery, err := decodeTask(msg.Data)
		if err != nil {
			slog.Error("discarding undecodable stage task", "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		q.runStage(handlerCtx, delivery, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (q *Queue) runStage(ctx context.Context, delivery domain.StageDelivery, handler ports.StageHandler) {
	if err := q.tracker.MarkStarted(ctx, delivery.JobID); err != nil {
		slog.Warn("failed to track job start", "job_id", delivery.JobID, "error", err)
	}

	result, err := handler(ctx, delivery)
	if err != nil {
		slog.Error("stage failed", "job_id", delivery.JobID, "stage", delivery.Task.Stage(), "error", err)
		if trackErr := q.tracker.MarkFailed(ctx, delivery.JobID, err.Error()); trackErr != nil {
			slog.Warn("failed to track job failure", "job_id", delivery.JobID, "error", trackErr)
		}
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		slog.Warn("failed to marshal stage result", "job_id", delivery.JobID, "error", err)
		payload = nil
	}
	if trackErr := q.tracker.MarkFinished(ctx, delivery.JobID, payload); trackErr != nil {
		slog.Warn("failed to track job completion", "job_id", delivery.JobID, "error", trackErr)
	}
}
