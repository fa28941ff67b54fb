package authz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAuditSink appends decision records to the authz_audit_logs
// table.
type PostgresAuditSink struct {
	pool *pgxpool.Pool
}

// NewPostgresAuditSink returns a sink writing to the provided pool.
func NewPostgresAuditSink(pool *pgxpool.Pool) *PostgresAuditSink {
	return &PostgresAuditSink{pool: pool}
}

// Append persists the record. The context bag is stored as JSONB for
// later review; the log is append-only and never read by the engine.
func (s *PostgresAuditSink) Append(ctx context.Context, record AuditRecord) error {
	if s == nil || s.pool == nil {
		return errors.New("authz: audit sink not initialised")
	}
	if record.SubjectID == "" || record.Resource == "" || record.Action == "" {
		return errors.New("authz: audit record requires subject/resource/action")
	}
	ctxJSON, err := json.Marshal(record.Context)
	if err != nil {
		return fmt.Errorf("authz: encode audit context: %w", err)
	}
	const query = `INSERT INTO authz_audit_logs (subject_id, resource, action, allowed, reason, context, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`
	_, err = s.pool.Exec(ctx, query, record.SubjectID, record.Resource, record.Action, record.Allowed, record.Reason, ctxJSON, record.At)
	return err
}

// Prune deletes audit rows older than the cutoff and reports how many
// were removed.
func (s *PostgresAuditSink) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM authz_audit_logs WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("authz: prune audit logs: %w", err)
	}
	return tag.RowsAffected(), nil
}
