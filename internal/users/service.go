package users

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/4lexxe/DevsProject-sub007/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, page, perPage int) ([]User, int, error)
	GetUser(ctx context.Context, id int64) (User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
}

// Invalidator drops the cached authorization snapshot of a single user.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID int64) error
}

// Service handles user directory logic. Account creation and login live
// elsewhere; this service only reads users and moves them between roles.
type Service struct {
	repo   RepositoryPort
	cache  Invalidator
	audit  shared.AuditRecorder
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, cache Invalidator, audit shared.AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, audit: audit, logger: logger}
}

// ListUsers returns one page of users plus pagination metadata.
func (s *Service) ListUsers(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	list, total, err := s.repo.ListUsers(ctx, p.Page, p.PerPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(p.Page, p.PerPage, total), nil
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// Exists reports whether an active user exists. Used by the override service
// to validate its target.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// AssignRole swaps the user's role. The user's cached snapshot is dropped so
// the next authorization check sees the new role immediately.
func (s *Service) AssignRole(ctx context.Context, actorID, userID, roleID int64) error {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.RoleID == roleID {
		return nil
	}
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateUser(ctx, userID); err != nil {
			return err
		}
	}
	s.record(ctx, actorID, userID, user.RoleID, roleID)
	return nil
}

func (s *Service) record(ctx context.Context, actorID, userID, fromRole, toRole int64) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "user.assign_role",
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     map[string]any{"from_role_id": fromRole, "to_role_id": toRole},
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("audit role assignment", slog.Any("error", err))
	}
}
