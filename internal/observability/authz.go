package observability

import "github.com/prometheus/client_golang/prometheus"

// AuthzMetrics counts authorization decisions and audit write failures.
type AuthzMetrics struct {
	decisions     *prometheus.CounterVec
	auditFailures prometheus.Counter
}

// NewAuthzMetrics registers the authorization metrics.
func NewAuthzMetrics(reg prometheus.Registerer) *AuthzMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "praxis_authz_decisions_total",
		Help: "Authorization decisions by resource, action and outcome.",
	}, []string{"resource", "action", "outcome"})
	auditFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "praxis_authz_audit_failures_total",
		Help: "Audit records that could not be appended.",
	})
	reg.MustRegister(decisions, auditFailures)
	return &AuthzMetrics{decisions: decisions, auditFailures: auditFailures}
}

// ObserveDecision records one decision outcome.
func (m *AuthzMetrics) ObserveDecision(resource, action string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	m.decisions.WithLabelValues(resource, action, outcome).Inc()
}

// ObserveAuditFailure records a failed audit append.
func (m *AuthzMetrics) ObserveAuditFailure() {
	if m == nil {
		return
	}
	m.auditFailures.Inc()
}
