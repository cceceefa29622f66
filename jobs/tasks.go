package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOverrideIntegrity verifies override table invariants.
	TaskOverrideIntegrity = "authz:override_integrity"
	// TaskAuditRetention prunes old audit log entries.
	TaskAuditRetention = "audit:retention"
)

// OverrideIntegrityPayload carries scheduling metadata for the sweep.
type OverrideIntegrityPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewOverrideIntegrityTask constructs an Asynq task for the override sweep.
func NewOverrideIntegrityTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(OverrideIntegrityPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverrideIntegrity, body, asynq.Queue(QueueDefault)), nil
}

// AuditRetentionPayload configures how far back audit entries are kept.
type AuditRetentionPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAuditRetentionTask constructs an Asynq task for audit log pruning.
func NewAuditRetentionTask(retentionDays int) (*asynq.Task, error) {
	body, err := json.Marshal(AuditRetentionPayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRetention, body, asynq.Queue(QueueDefault)), nil
}
