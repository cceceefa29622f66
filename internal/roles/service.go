package roles

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/4lexxe/DevsProject-sub007/internal/permissions"
	"github.com/4lexxe/DevsProject-sub007/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name, description string, permissionIDs []int64) (Role, error)
	UpdateRole(ctx context.Context, id int64, description *string, permissionIDs []int64, replacePermissions bool) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
}

// Catalog resolves permission names against the catalog.
type Catalog interface {
	Resolve(ctx context.Context, names []string) ([]permissions.Permission, error)
}

// Invalidator drops cached authorization snapshots after a mutation commits.
type Invalidator interface {
	InvalidateAll(ctx context.Context) error
}

// Service handles role business logic.
type Service struct {
	repo    RepositoryPort
	catalog Catalog
	cache   Invalidator
	audit   shared.AuditRecorder
	logger  *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, catalog Catalog, cache Invalidator, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, cache: cache, audit: audit, logger: logger}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole validates every permission name against the catalog and persists
// the role with its permission set.
func (s *Service) CreateRole(ctx context.Context, actorID int64, name, description string, permissionNames []string) (Role, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return Role{}, errors.New("roles: role name required")
	}
	perms, err := s.catalog.Resolve(ctx, permissionNames)
	if err != nil {
		return Role{}, err
	}
	role, err := s.repo.CreateRole(ctx, name, strings.TrimSpace(description), permissionIDs(perms))
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actorID, "role.create", role.ID, map[string]any{"name": role.Name, "permissions": role.Permissions})
	return role, nil
}

// UpdateRole updates the description and, when permissionNames is non-nil,
// replaces the whole permission set. A replacement invalidates every cached
// snapshot since any number of users may hold the role.
func (s *Service) UpdateRole(ctx context.Context, actorID, id int64, description *string, permissionNames []string) (Role, error) {
	replace := permissionNames != nil
	var ids []int64
	if replace {
		perms, err := s.catalog.Resolve(ctx, permissionNames)
		if err != nil {
			return Role{}, err
		}
		ids = permissionIDs(perms)
	}
	role, err := s.repo.UpdateRole(ctx, id, description, ids, replace)
	if err != nil {
		return Role{}, err
	}
	if replace && s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			return Role{}, err
		}
	}
	s.record(ctx, actorID, "role.update", role.ID, map[string]any{"name": role.Name, "replaced_permissions": replace})
	return role, nil
}

// DeleteRole removes a role. The reserved superadmin role is never deletable;
// roles still referenced by users fail with ErrRoleInUse and stay intact.
func (s *Service) DeleteRole(ctx context.Context, actorID, id int64) error {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.Name == shared.SuperadminRole {
		return ErrProtected
	}
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "role.delete", id, map[string]any{"name": role.Name})
	return nil
}

func permissionIDs(perms []permissions.Permission) []int64 {
	ids := make([]int64, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID)
	}
	return ids
}

func (s *Service) record(ctx context.Context, actorID int64, action string, roleID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit role mutation", slog.Any("error", err))
	}
}
