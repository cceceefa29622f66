package authz

import "fmt"

// Decide evaluates whether a principal may perform an action guarded by the
// required permission set. Evaluation order is fixed:
//
//  1. no principal → deny unauthenticated
//  2. superadmin role → allow, bypassing everything including blocks
//  3. effective permissions = (role ∪ grants) \ blocks
//  4. ModeAll: required ⊆ effective; ModeAny: required ∩ effective ≠ ∅
//
// An empty required set trivially allows under ModeAll and denies as
// misconfigured under ModeAny. Decide never mutates state; only an unknown
// mode returns an error.
func Decide(p *Principal, required []string, mode Mode) (Decision, error) {
	switch mode {
	case ModeAll, ModeAny:
	default:
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	normalized := normalizePermissions(required)

	if p == nil {
		return Decision{Reason: DenyUnauthenticated, Mode: mode, Required: normalized}, nil
	}
	if p.IsSuperadmin() {
		return Decision{Allowed: true, Mode: mode, Required: normalized}, nil
	}

	effective := p.Effective()

	if len(normalized) == 0 {
		if mode == ModeAny {
			return Decision{Reason: DenyMisconfigured, Mode: mode, Held: effective}, nil
		}
		return Decision{Allowed: true, Mode: mode, Held: effective}, nil
	}

	held := make(map[string]struct{}, len(effective))
	for _, perm := range effective {
		held[perm] = struct{}{}
	}

	var allowed bool
	switch mode {
	case ModeAll:
		allowed = true
		for _, perm := range normalized {
			if _, ok := held[perm]; !ok {
				allowed = false
				break
			}
		}
	case ModeAny:
		for _, perm := range normalized {
			if _, ok := held[perm]; ok {
				allowed = true
				break
			}
		}
	}

	decision := Decision{Allowed: allowed, Mode: mode, Required: normalized, Held: effective}
	if !allowed {
		decision.Reason = DenyInsufficient
	}
	return decision, nil
}
