package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/praxis-legal/praxis/internal/platform/httpx"
	"github.com/praxis-legal/praxis/internal/shared"
)

// Middleware is the enforcement point: it derives the subject from the
// session, assembles a request context and short-circuits with a
// structured refusal when the engine denies.
type Middleware struct {
	Engine *Engine
	Logger *slog.Logger
}

// ContextBuilder contributes resource attributes (owner, law firm,
// case id) resolved from the inbound request to the decision context.
type ContextBuilder func(r *http.Request) RequestContext

// Decision carries the resolved authorization facts for downstream
// handlers.
type Decision struct {
	SubjectID string
	Resource  string
	Action    string
}

type decisionContextKey struct{}

// DecisionFromContext extracts the decision attached by Require.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionContextKey{}).(Decision)
	return d, ok
}

type refusal struct {
	Title               string       `json:"title"`
	Status              int          `json:"status"`
	Detail              string       `json:"detail,omitempty"`
	RequiredPermissions []Permission `json:"requiredPermissions,omitempty"`
}

// Require guards the wrapped handler with a decision on the given
// resource/action pair.
func (m Middleware) Require(resource, action string, builders ...ContextBuilder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.Subject() == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}

			reqCtx := m.buildContext(r, sess, builders)
			verdict := m.Engine.Decide(r.Context(), sess.Subject(), resource, action, reqCtx)
			if !verdict.Allowed {
				if m.Logger != nil {
					m.Logger.Info("authorization denied",
						slog.String("subject", sess.Subject()),
						slog.String("resource", resource),
						slog.String("action", action),
						slog.String("reason", verdict.Reason))
				}
				httpx.JSON(w, http.StatusForbidden, refusal{
					Title:               "Forbidden",
					Status:              http.StatusForbidden,
					Detail:              verdict.Reason,
					RequiredPermissions: verdict.RequiredPermissions,
				})
				return
			}

			decision := Decision{SubjectID: sess.Subject(), Resource: resource, Action: action}
			ctx := context.WithValue(r.Context(), decisionContextKey{}, decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// buildContext assembles the decision context: path and query
// parameters, then route-specific builders, then subject attributes
// from the session. The session-derived subject keys are written last
// so request data can never impersonate another subject.
func (m Middleware) buildContext(r *http.Request, sess *shared.Session, builders []ContextBuilder) RequestContext {
	reqCtx := RequestContext{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 && values[0] != "" {
			reqCtx[key] = values[0]
		}
	}
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		for i, key := range routeCtx.URLParams.Keys {
			if key == "*" {
				continue
			}
			reqCtx[key] = routeCtx.URLParams.Values[i]
		}
	}
	for _, build := range builders {
		if build == nil {
			continue
		}
		for key, value := range build(r) {
			reqCtx[key] = value
		}
	}
	reqCtx[CtxSubjectID] = sess.Subject()
	reqCtx[CtxSubjectLawFirm] = sess.LawFirm()
	reqCtx[CtxSubjectCaseIDs] = sess.CaseIDs()
	return reqCtx
}
