package authz

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/praxis-legal/praxis/internal/platform/httpx"
)

// Handler exposes the administrative surface: catalog listing and
// wholesale subject record replacement.
type Handler struct {
	logger    *slog.Logger
	engine    *Engine
	mw        Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, engine *Engine, mw Middleware) *Handler {
	return &Handler{
		logger:    logger,
		engine:    engine,
		mw:        mw,
		validator: validator.New(),
	}
}

// MountRoutes registers the authorization admin routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require("users", "read"))
		r.Get("/permissions", h.listPermissions)
		r.Get("/subjects/{subjectID}", h.getSubject)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.Require("users", "update"))
		r.Put("/subjects/{subjectID}", h.putSubject)
	})
}

type rolePayload struct {
	Name        Role         `json:"name"`
	Permissions []Permission `json:"permissions"`
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	roles := make([]rolePayload, 0, len(Roles()))
	for _, role := range Roles() {
		roles = append(roles, rolePayload{Name: role, Permissions: RolePermissions(role)})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"permissions": Permissions(),
		"roles":       roles,
	})
}

type subjectPayload struct {
	SubjectID          string        `json:"subjectId"`
	Role               Role          `json:"role"`
	GrantedPermissions []Permission  `json:"grantedPermissions"`
	Restrictions       []Restriction `json:"restrictions"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

func (h *Handler) getSubject(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")
	record, err := h.engine.EffectiveRecord(r.Context(), subjectID)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no permission record for subject")
			return
		}
		h.logger.Error("get subject record", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, subjectPayload{
		SubjectID:          record.SubjectID,
		Role:               record.Role,
		GrantedPermissions: orEmptyPerms(record.Grants),
		Restrictions:       orEmptyRestricts(record.Restricts),
		UpdatedAt:          record.UpdatedAt,
	})
}

type restrictionPayload struct {
	Resource  string      `json:"resource" validate:"required"`
	Action    string      `json:"action" validate:"required"`
	Condition string      `json:"condition" validate:"required"`
	Window    *TimeWindow `json:"window,omitempty"`
}

type updateSubjectRequest struct {
	Role               string               `json:"role" validate:"required,oneof=ADMIN LAWYER PARALEGAL CLIENT"`
	GrantedPermissions []string             `json:"grantedPermissions" validate:"dive,required"`
	Restrictions       []restrictionPayload `json:"restrictions" validate:"dive"`
}

func (h *Handler) putSubject(w http.ResponseWriter, r *http.Request) {
	subjectID := chi.URLParam(r, "subjectID")

	var req updateSubjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	grants := make([]Permission, 0, len(req.GrantedPermissions))
	for _, raw := range req.GrantedPermissions {
		grants = append(grants, Permission(raw))
	}
	restrictions := make([]Restriction, 0, len(req.Restrictions))
	for _, raw := range req.Restrictions {
		restrictions = append(restrictions, Restriction{
			Resource: raw.Resource,
			Action:   raw.Action,
			Kind:     ConditionKind(raw.Condition),
			Window:   raw.Window,
		})
	}

	if err := h.engine.UpdateSubjectPermissions(r.Context(), subjectID, Role(req.Role), grants, restrictions); err != nil {
		if errors.Is(err, ErrInvalidUpdate) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("update subject permissions",
			slog.String("subject", subjectID),
			slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}
