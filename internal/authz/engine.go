package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/praxis-legal/praxis/internal/observability"
)

const auditTimeout = 5 * time.Second

// ErrInvalidUpdate marks an UpdateSubjectPermissions rejection caused
// by the caller's input rather than a store failure.
var ErrInvalidUpdate = errors.New("authz: invalid subject update")

// Engine renders authorization verdicts. It is stateless and safe for
// concurrent use; its only I/O is one subject store read per decision
// and the fire-and-forget audit write.
type Engine struct {
	store     SubjectStore
	sink      AuditSink
	evaluator *Evaluator
	logger    *slog.Logger
	metrics   *observability.AuthzMetrics
	now       func() time.Time
	policy    UnknownKindPolicy
}

// EngineOption customizes Engine construction.
type EngineOption func(*Engine)

// WithClock injects the time source used for audit timestamps and,
// through the evaluator, time_restriction conditions.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithUnknownKindPolicy sets how restriction conditions outside the
// closed set are treated.
func WithUnknownKindPolicy(policy UnknownKindPolicy) EngineOption {
	return func(e *Engine) { e.policy = policy }
}

// WithMetrics wires decision metrics.
func WithMetrics(m *observability.AuthzMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine constructs an Engine with its collaborators injected. Sink
// may be nil when auditing is disabled.
func NewEngine(store SubjectStore, sink AuditSink, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:  store,
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.evaluator = NewEvaluator(e.policy, e.now, logger)
	return e
}

// Decide renders a verdict for one (subject, resource, action, context)
// tuple. All internal failures resolve to a deny verdict; no error ever
// crosses this boundary.
func (e *Engine) Decide(ctx context.Context, subjectID, resource, action string, reqCtx RequestContext) Verdict {
	verdict := e.decide(ctx, subjectID, resource, action, reqCtx)
	e.audit(subjectID, resource, action, verdict, reqCtx)
	if e.metrics != nil {
		e.metrics.ObserveDecision(resource, action, verdict.Allowed)
	}
	return verdict
}

func (e *Engine) decide(ctx context.Context, subjectID, resource, action string, reqCtx RequestContext) Verdict {
	record, err := e.store.Get(ctx, subjectID)
	if err != nil {
		if !errors.Is(err, ErrSubjectNotFound) {
			// Storage details stay in the log, not in the verdict.
			e.logger.Error("authz: subject store read failed",
				slog.String("subject", subjectID),
				slog.Any("error", err))
		}
		return Verdict{Allowed: false, Reason: ReasonRecordUnavailable}
	}

	required, err := RequiredPermission(resource, action)
	if err != nil {
		return Verdict{Allowed: false, Reason: ReasonUnmappedAction}
	}

	if !record.HasGrant(required) && !RoleHas(record.Role, required) {
		return Verdict{
			Allowed:             false,
			Reason:              ReasonInsufficient,
			RequiredPermissions: []Permission{required},
		}
	}

	for _, restriction := range record.Restricts {
		if !restriction.Matches(resource, action) {
			continue
		}
		if !e.evaluator.Evaluate(restriction, reqCtx) {
			return Verdict{
				Allowed: false,
				Reason:  fmt.Sprintf("restriction: %s", restriction.Kind),
			}
		}
	}

	return Verdict{Allowed: true}
}

// audit emits the decision record without blocking the response path.
// Sink failures are logged and isolated; the verdict already rendered
// is never affected.
func (e *Engine) audit(subjectID, resource, action string, verdict Verdict, reqCtx RequestContext) {
	if e.sink == nil {
		return
	}
	record := AuditRecord{
		SubjectID: subjectID,
		Resource:  resource,
		Action:    action,
		Allowed:   verdict.Allowed,
		Reason:    verdict.Reason,
		Context:   reqCtx,
		At:        e.now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()
		if err := e.sink.Append(ctx, record); err != nil {
			e.logger.Error("authz: audit append failed",
				slog.String("subject", record.SubjectID),
				slog.String("resource", record.Resource),
				slog.String("action", record.Action),
				slog.Any("error", err))
			if e.metrics != nil {
				e.metrics.ObserveAuditFailure()
			}
		}
	}()
}

// UpdateSubjectPermissions replaces the subject's record wholesale.
// Grants must exist in the catalog and the role must be a known role;
// there is no optimistic-concurrency token, so concurrent updates race
// at record granularity.
func (e *Engine) UpdateSubjectPermissions(ctx context.Context, subjectID string, role Role, grants []Permission, restrictions []Restriction) error {
	if subjectID == "" {
		return fmt.Errorf("%w: subject id required", ErrInvalidUpdate)
	}
	if !KnownRole(role) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidUpdate, role)
	}
	for _, grant := range grants {
		if !KnownPermission(grant) {
			return fmt.Errorf("%w: unknown permission %q", ErrInvalidUpdate, grant)
		}
	}
	for _, restriction := range restrictions {
		if restriction.Resource == "" || restriction.Action == "" {
			return fmt.Errorf("%w: restriction requires resource and action", ErrInvalidUpdate)
		}
		if restriction.Kind == ConditionTimeWindow && restriction.Window == nil {
			return fmt.Errorf("%w: time_restriction requires a window", ErrInvalidUpdate)
		}
	}
	record := SubjectRecord{
		SubjectID: subjectID,
		Role:      role,
		Grants:    grants,
		Restricts: restrictions,
		UpdatedAt: e.now().UTC(),
	}
	return e.store.Put(ctx, record)
}

// EffectiveRecord returns the subject's stored record for the admin
// surface, or ErrSubjectNotFound.
func (e *Engine) EffectiveRecord(ctx context.Context, subjectID string) (SubjectRecord, error) {
	return e.store.Get(ctx, subjectID)
}
