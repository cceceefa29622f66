package authz

import "context"

// OwnershipChecker reports whether a user owns a resource. Implementations
// live with the resource they guard (courses, content, comments).
type OwnershipChecker interface {
	IsOwner(ctx context.Context, userID, resourceID int64) (bool, error)
}

// AuthorizeOwned evaluates an "own"-scoped permission and, when the standard
// decision allows, additionally requires resource ownership. Ownership is a
// predicate composed after the permission decision, never folded into Decide;
// superadmin skips it along with everything else.
func (s *Service) AuthorizeOwned(ctx context.Context, userID, resourceID int64, permission string, checker OwnershipChecker) (Decision, error) {
	decision, err := s.Authorize(ctx, userID, []string{permission}, ModeAll)
	if err != nil || !decision.Allowed {
		return decision, err
	}

	p, err := s.Principal(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	if p.IsSuperadmin() {
		return decision, nil
	}

	owns, err := checker.IsOwner(ctx, userID, resourceID)
	if err != nil {
		return Decision{}, err
	}
	if !owns {
		decision.Allowed = false
		decision.Reason = DenyInsufficient
	}
	return decision, nil
}
