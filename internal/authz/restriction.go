package authz

import (
	"log/slog"
	"time"
)

// UnknownKindPolicy controls what the evaluator does with a condition
// kind outside the closed set. The source system passed unknown kinds
// through (fail-open), which silently disables a restriction on a typo;
// deployments that prefer fail-closed set UnknownKindDeny.
type UnknownKindPolicy int

const (
	// UnknownKindAllow passes unrecognized condition kinds through.
	UnknownKindAllow UnknownKindPolicy = iota
	// UnknownKindDeny vetoes on unrecognized condition kinds.
	UnknownKindDeny
)

// ParseUnknownKindPolicy maps a config string to a policy, defaulting
// to allow.
func ParseUnknownKindPolicy(s string) UnknownKindPolicy {
	if s == "deny" {
		return UnknownKindDeny
	}
	return UnknownKindAllow
}

// Evaluator evaluates restriction conditions against a request
// context. It is pure: neither the record nor the context is mutated.
type Evaluator struct {
	policy UnknownKindPolicy
	now    func() time.Time
	logger *slog.Logger
}

// NewEvaluator constructs an Evaluator. A nil clock defaults to
// time.Now; a nil logger defaults to slog.Default.
func NewEvaluator(policy UnknownKindPolicy, now func() time.Time, logger *slog.Logger) *Evaluator {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{policy: policy, now: now, logger: logger}
}

// Evaluate returns whether the restriction permits the request. Missing
// context keys deny the owner/law-firm/case conditions rather than
// erroring.
func (e *Evaluator) Evaluate(r Restriction, reqCtx RequestContext) bool {
	switch r.Kind {
	case ConditionOwnerOnly:
		subject, okA := reqCtx.str(CtxSubjectID)
		owner, okB := reqCtx.str(CtxResourceOwnerID)
		return okA && okB && subject == owner
	case ConditionLawFirmOnly:
		subjectFirm, okA := reqCtx.str(CtxSubjectLawFirm)
		resourceFirm, okB := reqCtx.str(CtxResourceLawFirm)
		return okA && okB && subjectFirm == resourceFirm
	case ConditionCaseAssigned:
		caseID, ok := reqCtx.str(CtxCaseID)
		if !ok {
			return false
		}
		for _, assigned := range reqCtx.strs(CtxSubjectCaseIDs) {
			if assigned == caseID {
				return true
			}
		}
		return false
	case ConditionTimeWindow:
		if r.Window == nil {
			return false
		}
		now := e.now()
		// Both bounds inclusive.
		return !now.Before(r.Window.Start) && !now.After(r.Window.End)
	}
	e.logger.Warn("unknown restriction condition kind",
		slog.String("condition", string(r.Kind)),
		slog.String("resource", r.Resource),
		slog.String("action", r.Action))
	return e.policy == UnknownKindAllow
}
