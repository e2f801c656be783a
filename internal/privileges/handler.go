package privileges

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

// Handler manages privilege override endpoints.
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

// MountRoutes registers privilege routes. All of them require manage on the
// Users subject.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(ability.ActionManage, shared.SubjectUsers))
		r.Get("/users/{userID}", h.listForUser)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})
}

type overridePayload struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"userId"`
	TenantID   int64  `json:"tenantId"`
	Subject    string `json:"subject"`
	CanRead    *bool  `json:"canRead"`
	CanCreate  *bool  `json:"canCreate"`
	CanUpdate  *bool  `json:"canUpdate"`
	CanDelete  *bool  `json:"canDelete"`
	CanApprove *bool  `json:"canApprove"`
	CanPost    *bool  `json:"canPost"`
	CanExport  *bool  `json:"canExport"`
	CanImport  *bool  `json:"canImport"`
}

func (h *Handler) listForUser(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := ability.FromSession(shared.SessionFromContext(r.Context()))
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "user id must be numeric")
		return
	}
	overrides, err := h.service.ListForUser(r.Context(), userID, identity.TenantID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	payload := make([]overridePayload, 0, len(overrides))
	for _, ov := range overrides {
		payload = append(payload, toPayload(ov))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"privileges": payload})
}

type createOverrideRequest struct {
	UserID     int64  `json:"userId" validate:"required,gt=0"`
	Subject    string `json:"subject" validate:"required"`
	CanRead    *bool  `json:"canRead"`
	CanCreate  *bool  `json:"canCreate"`
	CanUpdate  *bool  `json:"canUpdate"`
	CanDelete  *bool  `json:"canDelete"`
	CanApprove *bool  `json:"canApprove"`
	CanPost    *bool  `json:"canPost"`
	CanExport  *bool  `json:"canExport"`
	CanImport  *bool  `json:"canImport"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := ability.FromSession(shared.SessionFromContext(r.Context()))
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req createOverrideRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "userId and subject are required")
		return
	}
	created, err := h.service.Create(r.Context(), identity.UserID, Override{
		UserID:     req.UserID,
		TenantID:   identity.TenantID,
		Subject:    req.Subject,
		CanRead:    req.CanRead,
		CanCreate:  req.CanCreate,
		CanUpdate:  req.CanUpdate,
		CanDelete:  req.CanDelete,
		CanApprove: req.CanApprove,
		CanPost:    req.CanPost,
		CanExport:  req.CanExport,
		CanImport:  req.CanImport,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"privilege": toPayload(created)})
}

type updateOverrideRequest struct {
	CanRead    *bool `json:"canRead"`
	CanCreate  *bool `json:"canCreate"`
	CanUpdate  *bool `json:"canUpdate"`
	CanDelete  *bool `json:"canDelete"`
	CanApprove *bool `json:"canApprove"`
	CanPost    *bool `json:"canPost"`
	CanExport  *bool `json:"canExport"`
	CanImport  *bool `json:"canImport"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := ability.FromSession(shared.SessionFromContext(r.Context()))
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "override id must be numeric")
		return
	}
	var req updateOverrideRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed json body")
		return
	}
	updated, err := h.service.Update(r.Context(), identity.UserID, Override{
		ID:         id,
		CanRead:    req.CanRead,
		CanCreate:  req.CanCreate,
		CanUpdate:  req.CanUpdate,
		CanDelete:  req.CanDelete,
		CanApprove: req.CanApprove,
		CanPost:    req.CanPost,
		CanExport:  req.CanExport,
		CanImport:  req.CanImport,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"privilege": toPayload(updated)})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := ability.FromSession(shared.SessionFromContext(r.Context()))
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "override id must be numeric")
		return
	}
	if err := h.service.Delete(r.Context(), identity.UserID, id); err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, shared.ErrDuplicate):
		httpx.RespondError(w, httpx.ErrDuplicate)
	default:
		h.logger.Error("privileges handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Request Failed", err.Error())
	}
}

func toPayload(ov Override) overridePayload {
	return overridePayload{
		ID:         ov.ID,
		UserID:     ov.UserID,
		TenantID:   ov.TenantID,
		Subject:    ov.Subject,
		CanRead:    ov.CanRead,
		CanCreate:  ov.CanCreate,
		CanUpdate:  ov.CanUpdate,
		CanDelete:  ov.CanDelete,
		CanApprove: ov.CanApprove,
		CanPost:    ov.CanPost,
		CanExport:  ov.CanExport,
		CanImport:  ov.CanImport,
	}
}
