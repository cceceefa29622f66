package overrides

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/4lexxe/DevsProject-sub007/internal/permissions"
	"github.com/4lexxe/DevsProject-sub007/internal/shared"
)

// RepositoryPort defines data access methods for overrides.
type RepositoryPort interface {
	Upsert(ctx context.Context, userID, permissionID, createdBy int64, kind Kind) (changed bool, err error)
	Delete(ctx context.Context, userID, permissionID int64) (bool, error)
	ListForUser(ctx context.Context, userID int64) ([]Override, error)
}

// Catalog resolves permission names against the catalog.
type Catalog interface {
	Resolve(ctx context.Context, names []string) ([]permissions.Permission, error)
}

// UserDirectory answers whether the target user exists.
type UserDirectory interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

// Invalidator drops the cached authorization snapshot of a single user.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID int64) error
}

// Service handles override business logic. Every mutation targets exactly one
// user, so invalidation is per-user rather than a full cache flush.
type Service struct {
	repo    RepositoryPort
	catalog Catalog
	users   UserDirectory
	cache   Invalidator
	audit   shared.AuditRecorder
	logger  *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, catalog Catalog, users UserDirectory, cache Invalidator, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, users: users, cache: cache, audit: audit, logger: logger}
}

// Grant adds the permission to the user beyond their role. An existing block
// for the same permission is replaced, never accumulated; re-granting an
// existing grant changes nothing and is not re-audited.
func (s *Service) Grant(ctx context.Context, actorID, userID int64, permission string) error {
	return s.upsert(ctx, actorID, userID, permission, KindGrant, "override.grant")
}

// Block strips the permission from the user regardless of their role. An
// existing grant for the same permission is replaced.
func (s *Service) Block(ctx context.Context, actorID, userID int64, permission string) error {
	return s.upsert(ctx, actorID, userID, permission, KindBlock, "override.block")
}

// Unblock removes the override for the pair, grant or block alike, so the
// user's role decides again. Removing an override that does not exist
// succeeds silently.
func (s *Service) Unblock(ctx context.Context, actorID, userID int64, permission string) error {
	perm, err := s.resolve(ctx, userID, permission)
	if err != nil {
		return err
	}
	removed, err := s.repo.Delete(ctx, userID, perm.ID)
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	if !removed {
		return nil
	}
	if err := s.invalidate(ctx, userID); err != nil {
		return err
	}
	s.record(ctx, actorID, "override.unblock", userID, perm.Name)
	return nil
}

// ListForUser returns a user's overrides.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]Override, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListForUser(ctx, userID)
}

func (s *Service) upsert(ctx context.Context, actorID, userID int64, permission string, kind Kind, action string) error {
	perm, err := s.resolve(ctx, userID, permission)
	if err != nil {
		return err
	}
	changed, err := s.repo.Upsert(ctx, userID, perm.ID, actorID, kind)
	if err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	if !changed {
		return nil
	}
	if err := s.invalidate(ctx, userID); err != nil {
		return err
	}
	s.record(ctx, actorID, action, userID, perm.Name)
	return nil
}

func (s *Service) resolve(ctx context.Context, userID int64, permission string) (permissions.Permission, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return permissions.Permission{}, err
	}
	perms, err := s.catalog.Resolve(ctx, []string{permission})
	if err != nil {
		return permissions.Permission{}, err
	}
	// A blank name normalizes away inside Resolve and comes back empty
	// rather than as an error.
	if len(perms) == 0 {
		return permissions.Permission{}, fmt.Errorf("%w: %q", permissions.ErrUnknown, permission)
	}
	return perms[0], nil
}

func (s *Service) requireUser(ctx context.Context, userID int64) error {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID int64) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateUser(ctx, userID)
}

func (s *Service) record(ctx context.Context, actorID int64, action string, userID int64, permission string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     map[string]any{"permission": permission},
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit override mutation", slog.Any("error", err))
	}
}
