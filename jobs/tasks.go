package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDraftSweep repairs draft keys that lost their expiry.
	TaskDraftSweep = "draft:sweep"
	// TaskGLIntegrity recomputes debit/credit totals of posted entries.
	TaskGLIntegrity = "gl:integrity"
)

// DraftSweepPayload configures the sweep run.
type DraftSweepPayload struct {
	// TTLSeconds is applied to draft keys found without an expiry.
	TTLSeconds int64 `json:"ttl_seconds"`
}

// NewDraftSweepTask constructs an Asynq task.
func NewDraftSweepTask(payload DraftSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDraftSweep, data), nil
}

// GLIntegrityPayload configures the integrity run.
type GLIntegrityPayload struct {
	// Limit caps how many entries are inspected per run; zero means all.
	Limit int `json:"limit"`
}

// NewGLIntegrityTask constructs an Asynq task.
func NewGLIntegrityTask(payload GLIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGLIntegrity, data), nil
}
