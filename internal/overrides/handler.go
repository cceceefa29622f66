package overrides

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/4lexxe/DevsProject-sub007/internal/authz"
	"github.com/4lexxe/DevsProject-sub007/internal/permissions"
	"github.com/4lexxe/DevsProject-sub007/internal/platform/httpx"
	"github.com/4lexxe/DevsProject-sub007/internal/shared"
)

// Handler manages per-user override endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	authz    authz.Middleware
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: authz, validate: validator.New()}
}

// MountRoutes registers override routes under /users/{userID}.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireAny(shared.PermManageUsers, shared.PermManageRoles))
		r.Get("/{userID}/permissions/overrides", h.listOverrides)
		r.Post("/{userID}/permissions/grants", h.grant)
		r.Post("/{userID}/permissions/blocks", h.block)
		r.Delete("/{userID}/permissions/blocks", h.unblock)
	})
}

type overrideRequest struct {
	Permission string `json:"permission" validate:"required,max=128"`
}

func (h *Handler) listOverrides(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid user ID", err.Error())
		return
	}
	list, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if list == nil {
		list = []Override{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"overrides": list})
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusCreated, h.service.Grant)
}

func (h *Handler) block(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusCreated, h.service.Block)
}

func (h *Handler) unblock(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusNoContent, h.service.Unblock)
}

type overrideOp func(ctx context.Context, actorID, userID int64, permission string) error

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, status int, op overrideOp) {
	userID, err := pathUserID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid user ID", err.Error())
		return
	}
	var req overrideRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}
	if err := op(r.Context(), actorID(r), userID, req.Permission); err != nil {
		h.respondError(w, err)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	httpx.JSON(w, status, map[string]any{"userId": userID, "permission": req.Permission})
}

func actorID(r *http.Request) int64 {
	if p := authz.PrincipalFromContext(r.Context()); p != nil {
		return p.UserID
	}
	return 0
}

func pathUserID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		httpx.Problem(w, http.StatusNotFound, "User not found", "no active user with that ID exists")
	case errors.Is(err, permissions.ErrUnknown):
		httpx.Problem(w, http.StatusBadRequest, "Unknown permission", err.Error())
	default:
		h.logger.Error("override request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal error", "unexpected failure")
	}
}
