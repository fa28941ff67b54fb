// Package authz implements the authorization core: the permission
// catalog, the restriction evaluator, the decision engine and the
// interfaces it consumes (subject store, audit sink). Every failure
// inside a decision resolves to a deny verdict; callers never need
// error handling around Decide.
package authz

import "time"

// ConditionKind identifies a restriction condition from the closed set
// the evaluator understands.
type ConditionKind string

const (
	// ConditionOwnerOnly allows only the owner of the resource.
	ConditionOwnerOnly ConditionKind = "owner_only"
	// ConditionLawFirmOnly allows only subjects from the resource's law firm.
	ConditionLawFirmOnly ConditionKind = "law_firm_only"
	// ConditionCaseAssigned allows only subjects assigned to the case.
	ConditionCaseAssigned ConditionKind = "case_assigned"
	// ConditionTimeWindow allows only within a time window, inclusive on
	// both bounds.
	ConditionTimeWindow ConditionKind = "time_restriction"
)

// Known reports whether the kind belongs to the closed condition set.
func (k ConditionKind) Known() bool {
	switch k {
	case ConditionOwnerOnly, ConditionLawFirmOnly, ConditionCaseAssigned, ConditionTimeWindow:
		return true
	}
	return false
}

// TimeWindow bounds a time_restriction condition.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Restriction is a conditional veto narrowing an otherwise granted
// permission. It applies only when its resource/action pair matches the
// request being evaluated.
type Restriction struct {
	Resource string        `json:"resource"`
	Action   string        `json:"action"`
	Kind     ConditionKind `json:"condition"`
	Window   *TimeWindow   `json:"window,omitempty"`
}

// Matches reports whether the restriction applies to the given request.
func (r Restriction) Matches(resource, action string) bool {
	return r.Resource == resource && r.Action == action
}

// SubjectRecord is the per-subject permission state. It is owned by the
// SubjectStore; the engine only ever holds a request-scoped copy.
// Updates replace the record wholesale (last-writer-wins).
type SubjectRecord struct {
	SubjectID string        `json:"subjectId"`
	Role      Role          `json:"role"`
	Grants    []Permission  `json:"grantedPermissions"`
	Restricts []Restriction `json:"restrictions"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// HasGrant reports whether the permission was explicitly granted,
// independent of the subject's role.
func (r SubjectRecord) HasGrant(p Permission) bool {
	for _, g := range r.Grants {
		if g == p {
			return true
		}
	}
	return false
}

// RequestContext is the read-only key/value bag the caller supplies at
// decision time. It is populated by the enforcement layer from the
// inbound request and never persisted.
type RequestContext map[string]any

// Context keys the restriction evaluator reads.
const (
	CtxSubjectID       = "subjectId"
	CtxResourceOwnerID = "resourceOwnerId"
	CtxSubjectLawFirm  = "subjectLawFirmId"
	CtxResourceLawFirm = "resourceLawFirmId"
	CtxCaseID          = "caseId"
	CtxSubjectCaseIDs  = "subjectCaseIds"
)

func (c RequestContext) str(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c[key].(string)
	return v, ok && v != ""
}

func (c RequestContext) strs(key string) []string {
	if c == nil {
		return nil
	}
	switch v := c[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Verdict is the immutable result of one authorization decision.
type Verdict struct {
	Allowed             bool         `json:"allowed"`
	Reason              string       `json:"reason,omitempty"`
	RequiredPermissions []Permission `json:"requiredPermissions,omitempty"`
}

// Deny verdict reasons. Store and catalog failures surface these fixed
// strings; the underlying cause is logged, never leaked to callers.
const (
	ReasonRecordUnavailable = "subject record unavailable"
	ReasonUnmappedAction    = "unmapped action"
	ReasonInsufficient      = "insufficient permissions"
)

// AuditRecord is the append-only trace of one decision. The engine
// writes it and never reads it back.
type AuditRecord struct {
	SubjectID string         `json:"subjectId"`
	Resource  string         `json:"resource"`
	Action    string         `json:"action"`
	Allowed   bool           `json:"allowed"`
	Reason    string         `json:"reason,omitempty"`
	Context   RequestContext `json:"context,omitempty"`
	At        time.Time      `json:"at"`
}
