package authz

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/4lexxe/DevsProject-sub007/internal/platform/httpx"
	"github.com/4lexxe/DevsProject-sub007/internal/shared"
)

// Handler exposes the caller's own authorization state so the storefront can
// gate its UI without polling user records.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers introspection routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/permissions", h.myPermissions)
}

type myPermissionsResponse struct {
	UserID      int64    `json:"userId"`
	Role        string   `json:"role"`
	Superadmin  bool     `json:"superadmin"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) myPermissions(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || strings.TrimSpace(sess.User()) == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	userID, err := strconv.ParseInt(strings.TrimSpace(sess.User()), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	principal, err := h.service.Principal(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		h.logger.Error("load principal", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	perms := principal.Effective()
	if perms == nil {
		perms = []string{}
	}
	httpx.JSON(w, http.StatusOK, myPermissionsResponse{
		UserID:      principal.UserID,
		Role:        principal.RoleName,
		Superadmin:  principal.IsSuperadmin(),
		Permissions: perms,
	})
}
