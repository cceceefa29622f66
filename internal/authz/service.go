package authz

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// Repository loads authorization snapshots from the backing store.
type Repository interface {
	PrincipalByUserID(ctx context.Context, userID int64) (*Principal, error)
}

// Service resolves principals and evaluates decisions against current
// role/override state. Reads go through the cache when one is configured;
// concurrent loads for the same user are collapsed with singleflight.
type Service struct {
	repo   Repository
	cache  *Cache
	group  singleflight.Group
	logger *slog.Logger
}

// NewService constructs a Service. cache may be nil to disable caching.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Principal returns the authorization snapshot for a user. Returns
// ErrNotFound for unknown or deactivated users; store faults propagate
// unchanged, never masked as a deny.
func (s *Service) Principal(ctx context.Context, userID int64) (*Principal, error) {
	v, err, _ := s.group.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		return s.cache.Fetch(ctx, userID, func(ctx context.Context) (*Principal, error) {
			return s.repo.PrincipalByUserID(ctx, userID)
		})
	})
	if err != nil {
		return nil, err
	}
	return v.(*Principal), nil
}

// Authorize loads the user's snapshot and evaluates the required permission
// set. An unknown user denies as unauthenticated.
func (s *Service) Authorize(ctx context.Context, userID int64, required []string, mode Mode) (Decision, error) {
	p, err := s.Principal(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Decide(nil, required, mode)
		}
		return Decision{}, err
	}
	return Decide(p, required, mode)
}

// InvalidateUser drops the cached snapshot for one user. Override and
// role-assignment mutations call this in the same operation that commits.
func (s *Service) InvalidateUser(ctx context.Context, userID int64) error {
	return s.cache.Invalidate(ctx, userID)
}

// InvalidateAll drops every cached snapshot. Role permission-set changes call
// this since any number of users may share the role.
func (s *Service) InvalidateAll(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
