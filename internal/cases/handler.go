package cases

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/praxis-legal/praxis/internal/authz"
	"github.com/praxis-legal/praxis/internal/platform/httpx"
)

// Handler exposes case endpoints, each guarded by the enforcement
// middleware with its matching resource/action pair.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mw        authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw, validator: validator.New()}
}

// MountRoutes registers case routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.mw.Require("cases", "create")).Post("/", h.createCase)
	r.With(h.mw.Require("cases", "list")).Get("/", h.listCases)
	r.With(h.mw.Require("cases", "search")).Get("/search", h.searchCases)
	r.With(h.mw.Require("cases", "read", h.caseAttributes)).Get("/{caseID}", h.getCase)
	r.With(h.mw.Require("cases", "update", h.caseAttributes)).Put("/{caseID}", h.updateCase)
	r.With(h.mw.Require("cases", "delete", h.caseAttributes)).Delete("/{caseID}", h.deleteCase)
}

// caseAttributes resolves the owner and law firm of the targeted case
// so owner_only / law_firm_only / case_assigned restrictions evaluate
// against real resource data. A missing case contributes nothing; the
// handler itself reports 404 after the decision.
func (h *Handler) caseAttributes(r *http.Request) authz.RequestContext {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		return nil
	}
	c, err := h.service.Get(r.Context(), caseID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.logger.Warn("resolve case attributes", slog.Any("error", err))
		}
		return authz.RequestContext{authz.CtxCaseID: caseID}
	}
	return authz.RequestContext{
		authz.CtxCaseID:          c.ID,
		authz.CtxResourceOwnerID: c.OwnerID,
		authz.CtxResourceLawFirm: c.LawFirmID,
	}
}

type casePayload struct {
	ID          string    `json:"id"`
	CaseNumber  string    `json:"caseNumber"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	OwnerID     string    `json:"ownerId"`
	LawFirmID   string    `json:"lawFirmId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toPayload(c Case) casePayload {
	return casePayload{
		ID:          c.ID,
		CaseNumber:  c.CaseNumber,
		Title:       c.Title,
		Description: c.Description,
		Status:      c.Status,
		OwnerID:     c.OwnerID,
		LawFirmID:   c.LawFirmID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type createCaseRequest struct {
	CaseNumber  string `json:"caseNumber" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	LawFirmID   string `json:"lawFirmId"`
}

func (h *Handler) createCase(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	decision, _ := authz.DecisionFromContext(r.Context())
	c, err := h.service.Create(r.Context(), CreateInput{
		CaseNumber:  req.CaseNumber,
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     decision.SubjectID,
		LawFirmID:   req.LawFirmID,
	})
	if err != nil {
		h.logger.Error("create case", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusCreated, toPayload(c))
}

func (h *Handler) getCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "caseID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(c))
}

type updateCaseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"omitempty,oneof=OPEN PENDING CLOSED"`
}

func (h *Handler) updateCase(w http.ResponseWriter, r *http.Request) {
	var req updateCaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	c, err := h.service.Update(r.Context(), chi.URLParam(r, "caseID"), UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPayload(c))
}

func (h *Handler) deleteCase(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "caseID")); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) listCases(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r)
	list, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondList(w, list)
}

func (h *Handler) searchCases(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	list, err := h.service.Search(r.Context(), term, filtersFromQuery(r))
	if err != nil {
		if term == "" {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "search term required")
			return
		}
		h.respondError(w, err)
		return
	}
	h.respondList(w, list)
}

func (h *Handler) respondList(w http.ResponseWriter, list []Case) {
	payload := make([]casePayload, 0, len(list))
	for _, c := range list {
		payload = append(payload, toPayload(c))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"cases": payload})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "case not found")
		return
	}
	h.logger.Error("case operation", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

func filtersFromQuery(r *http.Request) ListFilters {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))
	return ListFilters{
		LawFirmID: query.Get("lawFirmId"),
		Status:    query.Get("status"),
		Limit:     limit,
		Offset:    offset,
	}
}
