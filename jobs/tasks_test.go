package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"github.com/praxis-legal/praxis/internal/authz"
)

type recordingSink struct {
	records []authz.AuditRecord
	err     error
}

func (s *recordingSink) Append(_ context.Context, record authz.AuditRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestAuditAppendRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	task, err := NewAuditAppendTask(authz.AuditRecord{
		SubjectID: "u1",
		Resource:  "cases",
		Action:    "update",
		Allowed:   false,
		Reason:    "restriction: owner_only",
		Context:   authz.RequestContext{"caseId": "case-1"},
		At:        at,
	})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if task.Type() != TaskTypeAuditAppend {
		t.Fatalf("task type = %s, want %s", task.Type(), TaskTypeAuditAppend)
	}

	sink := &recordingSink{}
	handler := NewAuditAppendHandler(sink, nil)
	if err := handler(context.Background(), task); err != nil {
		t.Fatalf("handle task: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("sink records = %d, want 1", len(sink.records))
	}
	got := sink.records[0]
	if got.SubjectID != "u1" || got.Resource != "cases" || got.Allowed {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !got.At.Equal(at) {
		t.Fatalf("record time = %v, want %v", got.At, at)
	}
}

func TestAuditAppendBadPayloadSkipsRetry(t *testing.T) {
	sink := &recordingSink{}
	handler := NewAuditAppendHandler(sink, nil)
	err := handler(context.Background(), asynq.NewTask(TaskTypeAuditAppend, []byte("{not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("error = %v, want SkipRetry", err)
	}
	if len(sink.records) != 0 {
		t.Fatal("malformed payload must not reach the sink")
	}
}

func TestAuditAppendSinkErrorPropagates(t *testing.T) {
	sink := &recordingSink{err: errors.New("insert failed")}
	task, err := NewAuditAppendTask(authz.AuditRecord{SubjectID: "u1", Resource: "cases", Action: "read"})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := NewAuditAppendHandler(sink, nil)(context.Background(), task); err == nil {
		t.Fatal("sink error should propagate for retry")
	}
}

type recordingPruner struct {
	cutoff  time.Time
	removed int64
	err     error
}

func (p *recordingPruner) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	p.cutoff = cutoff
	return p.removed, p.err
}

func TestAuditRetentionHandler(t *testing.T) {
	pruner := &recordingPruner{removed: 42}
	handler := NewAuditRetentionHandler(pruner, 30*24*time.Hour, nil)
	if err := handler(context.Background(), NewAuditRetentionTask()); err != nil {
		t.Fatalf("handle retention: %v", err)
	}

	wantCutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	if diff := pruner.cutoff.Sub(wantCutoff); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("cutoff = %v, want about %v", pruner.cutoff, wantCutoff)
	}
}

func TestAuditRetentionHandlerPropagatesError(t *testing.T) {
	pruner := &recordingPruner{err: errors.New("delete failed")}
	handler := NewAuditRetentionHandler(pruner, time.Hour, nil)
	if err := handler(context.Background(), NewAuditRetentionTask()); err == nil {
		t.Fatal("prune error should propagate for retry")
	}
}
