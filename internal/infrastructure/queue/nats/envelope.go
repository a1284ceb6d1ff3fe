package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ParadoxTwo/energy-bill-reader/internal/core/domain"
)

// envelope is the wire form of one stage dispatch. The stage kind tags
// which payload variant to decode.
type envelope struct {
	JobID      string           `json:"job_id"`
	Stage      domain.StageKind `json:"stage"`
	EnqueuedAt time.Time        `json:"enqueued_at"`
	Payload    json.RawMessage  `json:"payload"`
}

func encodeTask(jobID string, task domain.StageTask, enqueuedAt time.Time) ([]byte, error) {
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", task.Stage(), err)
	}
	data, err := json.Marshal(envelope{
		JobID:      jobID,
		Stage:      task.Stage(),
		EnqueuedAt: enqueuedAt,
		Payload:    payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return data, nil
}

func decodeTask(data []byte) (domain.StageDelivery, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.StageDelivery{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	var task domain.StageTask
	switch env.Stage {
	case domain.StageParse:
		var t domain.ParseTask
		if err := json.Unmarshal(env.Payload, &t); err != nil {
			return domain.StageDelivery{}, fmt.Errorf("unmarshal parse payload: %w", err)
		}
		task = t
	case domain.StageExtract:
		var t domain.ExtractTask
		if err := json.Unmarshal(env.Payload, &t); err != nil {
			return domain.StageDelivery{}, fmt.Errorf("unmarshal extract payload: %w", err)
		}
		task = t
	default:
		return domain.StageDelivery{}, fmt.Errorf("unknown stage kind %q in envelope", env.Stage)
	}

	return domain.StageDelivery{
		JobID:      env.JobID,
		EnqueuedAt: env.EnqueuedAt,
		Task:       task,
	}, nil
}
