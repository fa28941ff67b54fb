package jobs

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/praxis-legal/praxis/internal/authz"
)

// QueueSink is an authz.AuditSink that enqueues records for the worker
// instead of writing to Postgres on the request path. Appends stay
// best-effort: an enqueue failure surfaces as an error for the engine
// to log, never as a changed verdict.
type QueueSink struct {
	client *asynq.Client
}

// NewQueueSink wraps an Asynq client.
func NewQueueSink(client *asynq.Client) *QueueSink {
	return &QueueSink{client: client}
}

// Append enqueues the record on the default queue.
func (s *QueueSink) Append(ctx context.Context, record authz.AuditRecord) error {
	task, err := NewAuditAppendTask(record)
	if err != nil {
		return err
	}
	_, err = s.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (s *QueueSink) Close() error {
	return s.client.Close()
}
