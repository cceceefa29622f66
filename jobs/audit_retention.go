package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/4lexxe/DevsProject-sub007/internal/jobs"
)

// AuditRetentionJob prunes audit log entries older than the retention window.
type AuditRetentionJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAuditRetentionJob initialises the pruning handler.
func NewAuditRetentionJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *AuditRetentionJob {
	return &AuditRetentionJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle executes the prune.
func (j *AuditRetentionJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("audit retention: handler not configured")
	}
	var payload AuditRetentionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = 90
	}

	tracker := j.Metrics.Track(TaskAuditRetention)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	cutoff := time.Now().UTC().AddDate(0, 0, -payload.RetentionDays)
	tag, err := j.Pool.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, cutoff)
	if err != nil {
		resultErr = fmt.Errorf("prune audit logs: %w", err)
		return resultErr
	}
	if j.Logger != nil {
		j.Logger.Info("pruned audit logs",
			slog.Int("retention_days", payload.RetentionDays),
			slog.Int64("deleted", tag.RowsAffected()),
		)
	}
	return resultErr
}
