package authz

import (
	"sort"
	"strings"

	"github.com/4lexxe/DevsProject-sub007/internal/shared"
)

// Mode selects how a required permission set combines into a decision.
type Mode string

const (
	// ModeAll allows only when every required permission is held.
	ModeAll Mode = "all"
	// ModeAny allows when at least one required permission is held.
	ModeAny Mode = "any"
)

// DenyReason classifies a denied decision.
type DenyReason string

const (
	// DenyUnauthenticated marks requests with no identified caller.
	DenyUnauthenticated DenyReason = "unauthenticated"
	// DenyInsufficient marks callers lacking the required permissions.
	DenyInsufficient DenyReason = "insufficient_permissions"
	// DenyMisconfigured marks caller errors such as an empty any-of set.
	DenyMisconfigured DenyReason = "misconfigured"
)

// Principal is the snapshot of a user's authorization state read at decision
// time: the role's permission set plus per-user overrides. Snapshots are
// immutable once loaded; mutations invalidate the cached copy instead.
type Principal struct {
	UserID          int64    `json:"user_id"`
	RoleID          int64    `json:"role_id"`
	RoleName        string   `json:"role_name"`
	RolePermissions []string `json:"role_permissions"`
	Grants          []string `json:"grants"`
	Blocks          []string `json:"blocks"`
}

// IsSuperadmin reports whether the principal holds the reserved role that
// bypasses every permission check.
func (p *Principal) IsSuperadmin() bool {
	return p != nil && p.RoleName == shared.SuperadminRole
}

// Effective returns (role permissions ∪ grants) \ blocks, sorted. Blocks are
// applied last so an explicit block always wins over role or grant.
func (p *Principal) Effective() []string {
	if p == nil {
		return nil
	}
	held := make(map[string]struct{}, len(p.RolePermissions)+len(p.Grants))
	for _, perm := range p.RolePermissions {
		held[perm] = struct{}{}
	}
	for _, perm := range p.Grants {
		held[perm] = struct{}{}
	}
	for _, perm := range p.Blocks {
		delete(held, perm)
	}
	effective := make([]string, 0, len(held))
	for perm := range held {
		effective = append(effective, perm)
	}
	sort.Strings(effective)
	return effective
}

// Decision is the outcome of an authorization check. A deny is an ordinary
// return value, never an error; the payload carries enough detail for audit
// logging and for callers to render a precise missing-permission message.
type Decision struct {
	Allowed  bool
	Reason   DenyReason
	Mode     Mode
	Required []string
	Held     []string
}

// Message returns a caller-facing summary of the decision.
func (d Decision) Message() string {
	if d.Allowed {
		return "allowed"
	}
	switch d.Reason {
	case DenyUnauthenticated:
		return "authentication required"
	case DenyMisconfigured:
		return "permission check misconfigured: an any-of check requires at least one permission"
	default:
		return "missing required permissions"
	}
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for p := range unique {
		normalized = append(normalized, p)
	}
	sort.Strings(normalized)
	return normalized
}
