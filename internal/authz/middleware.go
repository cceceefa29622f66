package authz

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/4lexxe/DevsProject-sub007/internal/platform/httpx"
	"github.com/4lexxe/DevsProject-sub007/internal/shared"
)

// DecisionObserver counts decision outcomes. Satisfied by
// observability.Metrics; a nil observer disables counting.
type DecisionObserver interface {
	ObserveDecision(allowed bool, reason string)
}

// Middleware wires authorization checks for HTTP handlers. Deny outcomes map
// to 401 (unauthenticated) or 403 with a JSON reason payload; store faults
// map to 500 so a lost database never silently fails open or closed.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
	Metrics DecisionObserver
}

type denyPayload struct {
	Message             string     `json:"message"`
	Reason              DenyReason `json:"reason"`
	Mode                Mode       `json:"mode"`
	RequiredPermissions []string   `json:"requiredPermissions"`
	UserPermissions     []string   `json:"userPermissions"`
}

// RequireAll ensures the current user has every listed permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.require(ModeAll, perms)
}

// RequireAny ensures the current user has at least one listed permission.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require(ModeAny, perms)
}

func (m Middleware) require(mode Mode, perms []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok, err := m.currentPrincipal(r)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authz load principal", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !ok {
				principal = nil
			}
			decision, err := Decide(principal, perms, mode)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("authz decide", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if m.Metrics != nil {
				m.Metrics.ObserveDecision(decision.Allowed, string(decision.Reason))
			}
			if !decision.Allowed {
				m.respondDeny(w, decision)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func (m Middleware) respondDeny(w http.ResponseWriter, decision Decision) {
	status := http.StatusForbidden
	if decision.Reason == DenyUnauthenticated {
		status = http.StatusUnauthorized
	}
	required := decision.Required
	if required == nil {
		required = []string{}
	}
	held := decision.Held
	if held == nil {
		held = []string{}
	}
	httpx.JSON(w, status, denyPayload{
		Message:             decision.Message(),
		Reason:              decision.Reason,
		Mode:                decision.Mode,
		RequiredPermissions: required,
		UserPermissions:     held,
	})
}

// currentPrincipal resolves the caller from the session. The second return
// reports whether a caller was identified at all.
func (m Middleware) currentPrincipal(r *http.Request) (*Principal, bool, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return nil, false, nil
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return nil, false, nil
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("authz parse user id", slog.String("value", raw))
		}
		return nil, false, nil
	}
	principal, err := m.Service.Principal(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return principal, true, nil
}
