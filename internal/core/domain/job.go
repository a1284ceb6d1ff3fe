package domain

import (
	"encoding/json"
	"time"
)

type StageKind string

const (
	StageParse   StageKind = "parse"
	StageExtract StageKind = "extract"
)

// StageTask is one unit of background work. The pipeline is an ordered
// chain of tasks; each variant declares its own input contract so a new
// stage never needs ad-hoc fields on its neighbours.
type StageTask interface {
	Stage() StageKind
}

// ParseTask reads a stored PDF from disk, extracts its text and chains
// an ExtractTask.
type ParseTask struct {
	Path       string `json:"path"`
	DocumentID string `json:"document_id"`
	Email      string `json:"email"`
}

func (ParseTask) Stage() StageKind { return StageParse }

// ExtractTask runs field extraction over previously parsed text. It is
// the terminal stage and never chains a successor.
type ExtractTask struct {
	Text       string `json:"text"`
	DocumentID string `json:"document_id"`
	Email      string `json:"email"`
}

func (ExtractTask) Stage() StageKind { return StageExtract }

// StageResult is what a stage execution hands back to the queue's
// result slot. LinkedJobID is set only when a successor was enqueued.
type StageResult struct {
	LinkedJobID *string        `json:"linked_job"`
	Content     map[string]any `json:"content"`
}

// StageDelivery is one dispatched task as seen by a worker.
type StageDelivery struct {
	JobID      string
	EnqueuedAt time.Time
	Task       StageTask
}

type JobStatus string

const (
	JobQueued   JobStatus = "queued"
	JobStarted  JobStatus = "started"
	JobFinished JobStatus = "finished"
	JobFailed   JobStatus = "failed"
)

// QueueJob is the queue's transient view of one stage execution. It
// expires with the queue's retention policy; JobResult rows do not.
type QueueJob struct {
	JobID      string
	Status     JobStatus
	Result     json.RawMessage
	ExcInfo    string
	EnqueuedAt *time.Time
	StartedAt  *time.Time
	EndedAt    *time.Time
}

// JobResult is the durable record of one completed stage. Written once,
// inside the same transaction scope as the document lookup, and never
// updated or deleted by the pipeline afterwards.
type JobResult struct {
	ID          string          `json:"id"`
	JobID       string          `json:"job_id"`
	DocumentID  string          `json:"document_id"`
	Email       string          `json:"email"`
	JobType     StageKind       `json:"job_type"`
	Content     json.RawMessage `json:"content"`
	LinkedJobID *string         `json:"linked_job_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StatusView merges the durable and transient views of a job for
// callers polling its progress.
type StatusView struct {
	JobID       string          `json:"job_id"`
	Status      JobStatus       `json:"status"`
	Content     json.RawMessage `json:"content"`
	LinkedJobID *string         `json:"linked_job_id"`
	EnqueuedAt  *time.Time      `json:"enqueued_at"`
	StartedAt   *time.Time      `json:"started_at"`
	EndedAt     *time.Time      `json:"ended_at"`
	ExcInfo     *string         `json:"exc_info"`
}
