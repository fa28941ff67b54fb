package authz

import (
	"context"
	"errors"
)

// ErrSubjectNotFound indicates that no permission record exists for the
// subject. The engine maps it to a plain deny, not an error.
var ErrSubjectNotFound = errors.New("authz: subject record not found")

// SubjectStore is the gateway to the persistent record store holding
// per-subject permission state. Implementations own the records; the
// engine only reads request-scoped copies.
type SubjectStore interface {
	// Get fetches the record for a subject, or ErrSubjectNotFound.
	Get(ctx context.Context, subjectID string) (SubjectRecord, error)
	// Put replaces the subject's record wholesale (last-writer-wins).
	// Callers wanting a partial change must read-modify-write.
	Put(ctx context.Context, record SubjectRecord) error
}

// AuditSink appends decision records to a durable log, best-effort. A
// failed append is logged by the caller and never alters a verdict.
type AuditSink interface {
	Append(ctx context.Context, record AuditRecord) error
}
