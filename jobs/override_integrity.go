package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/4lexxe/DevsProject-sub007/internal/jobs"
)

// OverrideIntegrityJob sweeps the override table for rows that violate its
// invariants. The unique constraint should make the duplicate check come up
// empty; finding anything means the schema was tampered with, which is worth
// an alert rather than silent repair.
type OverrideIntegrityJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewOverrideIntegrityJob initialises the sweep handler.
func NewOverrideIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverrideIntegrityJob {
	return &OverrideIntegrityJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle executes the sweep.
func (j *OverrideIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("override integrity: handler not configured")
	}
	var payload OverrideIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := time.Now()
	tracker := j.Metrics.Track(TaskOverrideIntegrity)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting override integrity sweep")

	duplicates, err := j.countDuplicatePairs(ctx)
	if err != nil {
		resultErr = err
		logger.Error("duplicate pair check failed", slog.Any("error", err))
		return resultErr
	}
	if duplicates > 0 {
		logger.Error("override table holds duplicate (user, permission) pairs",
			slog.Int("pairs", duplicates))
		j.Metrics.AddViolations("duplicate_pair", duplicates)
	}

	orphans, err := j.countOrphans(ctx)
	if err != nil {
		resultErr = err
		logger.Error("orphan check failed", slog.Any("error", err))
		return resultErr
	}
	if orphans > 0 {
		logger.Warn("overrides reference missing users or permissions",
			slog.Int("rows", orphans))
		j.Metrics.AddViolations("orphan_row", orphans)
	}

	logger.Info("completed override integrity sweep",
		slog.Int("duplicate_pairs", duplicates),
		slog.Int("orphan_rows", orphans),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *OverrideIntegrityJob) countDuplicatePairs(ctx context.Context) (int, error) {
	var n int
	err := j.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM (
			SELECT user_id, permission_id
			FROM user_permission_overrides
			GROUP BY user_id, permission_id
			HAVING COUNT(*) > 1
		) dup
	`).Scan(&n)
	return n, err
}

func (j *OverrideIntegrityJob) countOrphans(ctx context.Context) (int, error) {
	var n int
	err := j.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM user_permission_overrides o
		LEFT JOIN users u ON u.id = o.user_id
		LEFT JOIN permissions p ON p.id = o.permission_id
		WHERE u.id IS NULL OR p.id IS NULL
	`).Scan(&n)
	return n, err
}

func (j *OverrideIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
