// Package jobs defines the background tasks processed by cmd/worker:
// queued audit appends and scheduled audit retention.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/praxis-legal/praxis/internal/authz"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuditAppend carries one authorization audit record.
	TaskTypeAuditAppend = "authz:audit_append"
	// TaskTypeAuditRetention prunes audit rows past the retention window.
	TaskTypeAuditRetention = "authz:audit_retention"
)

// NewAuditAppendTask constructs an Asynq task from an audit record.
func NewAuditAppendTask(record authz.AuditRecord) (*asynq.Task, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditAppend, data), nil
}

// NewAuditAppendHandler processes TaskTypeAuditAppend tasks by writing
// through the durable sink.
func NewAuditAppendHandler(sink authz.AuditSink, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var record authz.AuditRecord
		if err := json.Unmarshal(t.Payload(), &record); err != nil {
			if logger != nil {
				logger.Error("audit append payload", slog.Any("error", err))
			}
			return asynq.SkipRetry
		}
		return sink.Append(ctx, record)
	}
}

// AuditPruner deletes audit rows older than a cutoff.
type AuditPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewAuditRetentionTask constructs the retention task.
func NewAuditRetentionTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAuditRetention, nil)
}

// NewAuditRetentionHandler prunes audit rows older than the retention
// window.
func NewAuditRetentionHandler(pruner AuditPruner, retention time.Duration, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		cutoff := time.Now().UTC().Add(-retention)
		removed, err := pruner.Prune(ctx, cutoff)
		if err != nil {
			return err
		}
		if logger != nil {
			logger.Info("audit retention pass",
				slog.Time("cutoff", cutoff),
				slog.Int64("removed", removed))
		}
		return nil
	}
}
