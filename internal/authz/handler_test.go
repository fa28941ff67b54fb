package authz

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/praxis-legal/praxis/internal/shared"
)

func newAdminFixture(t *testing.T, records ...SubjectRecord) (chi.Router, *Engine) {
	t.Helper()
	all := append([]SubjectRecord{
		{SubjectID: "admin-1", Role: RoleAdmin},
		{SubjectID: "client-1", Role: RoleClient},
	}, records...)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := NewEngine(newMemoryStore(all...), nil, logger)
	handler := NewHandler(logger, engine, Middleware{Engine: engine, Logger: logger})

	router := chi.NewRouter()
	router.Route("/authz", handler.MountRoutes)
	return router, engine
}

func adminDo(t *testing.T, router chi.Router, method, target, body string, sess *shared.Session) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if sess != nil {
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListPermissions(t *testing.T) {
	router, _ := newAdminFixture(t)

	rec := adminDo(t, router, http.MethodGet, "/authz/permissions", "", subjectSession("admin-1", "firm-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Permissions []string `json:"permissions"`
		Roles       []struct {
			Name        string   `json:"name"`
			Permissions []string `json:"permissions"`
		} `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Permissions, len(Permissions()))
	require.Len(t, body.Roles, 4)
	require.Equal(t, "ADMIN", body.Roles[0].Name)
	require.Len(t, body.Roles[0].Permissions, len(Permissions()))
}

func TestListPermissionsRequiresUsersRead(t *testing.T) {
	router, _ := newAdminFixture(t)
	rec := adminDo(t, router, http.MethodGet, "/authz/permissions", "", subjectSession("client-1", "firm-1"))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetSubject(t *testing.T) {
	router, _ := newAdminFixture(t, SubjectRecord{
		SubjectID: "lawyer-1",
		Role:      RoleLawyer,
		Grants:    []Permission{PermCasesDelete},
	})

	rec := adminDo(t, router, http.MethodGet, "/authz/subjects/lawyer-1", "", subjectSession("admin-1", "firm-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	var body subjectPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "lawyer-1", body.SubjectID)
	require.Equal(t, RoleLawyer, body.Role)
	require.Equal(t, []Permission{PermCasesDelete}, body.GrantedPermissions)
	require.NotNil(t, body.Restrictions)
}

func TestGetSubjectNotFound(t *testing.T) {
	router, _ := newAdminFixture(t)
	rec := adminDo(t, router, http.MethodGet, "/authz/subjects/ghost", "", subjectSession("admin-1", "firm-1"))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutSubject(t *testing.T) {
	router, engine := newAdminFixture(t)

	body := `{
		"role": "PARALEGAL",
		"grantedPermissions": ["cases:create"],
		"restrictions": [
			{"resource": "cases", "action": "create", "condition": "law_firm_only"}
		]
	}`
	rec := adminDo(t, router, http.MethodPut, "/authz/subjects/para-1", body, subjectSession("admin-1", "firm-1"))
	require.Equal(t, http.StatusOK, rec.Code)

	record, err := engine.EffectiveRecord(t.Context(), "para-1")
	require.NoError(t, err)
	require.Equal(t, RoleParalegal, record.Role)
	require.Equal(t, []Permission{PermCasesCreate}, record.Grants)
	require.Len(t, record.Restricts, 1)
	require.Equal(t, ConditionLawFirmOnly, record.Restricts[0].Kind)
}

func TestPutSubjectRejectsBadInput(t *testing.T) {
	router, _ := newAdminFixture(t)
	admin := subjectSession("admin-1", "firm-1")

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"unknown role", `{"role": "OWNER"}`},
		{"unknown permission", `{"role": "LAWYER", "grantedPermissions": ["cases:archive"]}`},
		{"restriction missing action", `{"role": "LAWYER", "restrictions": [{"resource": "cases", "condition": "owner_only"}]}`},
		{"time restriction without window", `{"role": "LAWYER", "restrictions": [{"resource": "cases", "action": "read", "condition": "time_restriction"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := adminDo(t, router, http.MethodPut, "/authz/subjects/u1", tc.body, admin)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPutSubjectRequiresUsersUpdate(t *testing.T) {
	router, _ := newAdminFixture(t)
	rec := adminDo(t, router, http.MethodPut, "/authz/subjects/u1", `{"role":"LAWYER"}`, subjectSession("client-1", "firm-1"))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
