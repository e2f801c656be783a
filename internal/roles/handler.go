package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vertex-erp/vertex/internal/ability"
	"github.com/vertex-erp/vertex/internal/platform/httpx"
	"github.com/vertex-erp/vertex/internal/shared"
)

// Handler manages role management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     ability.Guard
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard ability.Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(ability.ActionRead, shared.SubjectRoles))
		r.Get("/", h.listRoles)
		r.Get("/{id}", h.getRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(ability.ActionManage, shared.SubjectRoles))
		r.Post("/", h.createRole)
		r.Put("/{id}", h.updateRole)
		r.Delete("/{id}", h.deleteRole)
		r.Put("/{id}/grants", h.setGrants)
	})
}

type rolePayload struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"tenantId"`
	Code     string `json:"code"`
	Name     string `json:"name"`
}

type grantPayload struct {
	Action  string `json:"action" validate:"required"`
	Subject string `json:"subject" validate:"required"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := ability.FromSession(shared.SessionFromContext(r.Context()))
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	roles, err := h.service.ListRoles(r.Context(), identity.TenantID)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	payload := make([]rolePayload, 0, len(roles))
	for _, role := range roles {
		payload = append(payload, toPayload(role))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": payload})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "role id must be numeric")
		return
	}
	role, grants, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	grantList := make([]grantPayload, 0, len(grants))
	for _, g := range grants {
		grantList = append(grantList, grantPayload{Action: g.Action, Subject: g.Subject})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": toPayload(role), "grants": grantList})
}

type createRoleRequest struct {
	Code string `json:"code" validate:"required,min=2,max=40"`
	Name string `json:"name" validate:"required,min=2,max=120"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := ability.FromSession(shared.SessionFromContext(r.Context()))
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "code and name are required")
		return
	}
	role, err := h.service.CreateRole(r.Context(), identity.UserID, identity.TenantID, req.Code, req.Name)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"role": toPayload(role)})
}

type updateRoleRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := ability.FromSession(shared.SessionFromContext(r.Context()))
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "role id must be numeric")
		return
	}
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "name is required")
		return
	}
	role, err := h.service.UpdateRole(r.Context(), identity.UserID, id, req.Name)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": toPayload(role)})
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := ability.FromSession(shared.SessionFromContext(r.Context()))
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "role id must be numeric")
		return
	}
	if err := h.service.DeleteRole(r.Context(), identity.UserID, id); err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type setGrantsRequest struct {
	Grants []grantPayload `json:"grants" validate:"dive"`
}

func (h *Handler) setGrants(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := ability.FromSession(shared.SessionFromContext(r.Context()))
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "role id must be numeric")
		return
	}
	var req setGrantsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "every grant needs action and subject")
		return
	}
	grants := make([]Grant, 0, len(req.Grants))
	for _, g := range req.Grants {
		grants = append(grants, Grant{Action: g.Action, Subject: g.Subject})
	}
	if err := h.service.SetGrants(r.Context(), identity.UserID, id, grants); err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, shared.ErrDuplicate):
		httpx.RespondError(w, httpx.ErrDuplicate)
	default:
		h.logger.Error("roles handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Request Failed", err.Error())
	}
}

func toPayload(role Role) rolePayload {
	return rolePayload{ID: role.ID, TenantID: role.TenantID, Code: role.Code, Name: role.Name}
}
