package users

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4lexxe/DevsProject-sub007/internal/shared"
	_ "github.com/4lexxe/DevsProject-sub007/testing"
)

type stubUserRepo struct {
	users map[int64]User
	roles map[int64]bool
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		users: map[int64]User{
			10: {ID: 10, Email: "alice@devsproject.dev", Name: "Alice", RoleID: 2, RoleName: "student", IsActive: true},
			11: {ID: 11, Email: "bob@devsproject.dev", Name: "Bob", RoleID: 3, RoleName: "instructor", IsActive: true},
		},
		roles: map[int64]bool{2: true, 3: true, 4: true},
	}
}

func (r *stubUserRepo) ListUsers(_ context.Context, page, perPage int) ([]User, int, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, len(r.users), nil
}

func (r *stubUserRepo) GetUser(_ context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *stubUserRepo) Exists(_ context.Context, id int64) (bool, error) {
	u, ok := r.users[id]
	return ok && u.IsActive, nil
}

func (r *stubUserRepo) AssignRole(_ context.Context, userID, roleID int64) error {
	if !r.roles[roleID] {
		return ErrUnknownRole
	}
	u, ok := r.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.RoleID = roleID
	r.users[userID] = u
	return nil
}

type stubInvalidator struct {
	users []int64
}

func (i *stubInvalidator) InvalidateUser(_ context.Context, userID int64) error {
	i.users = append(i.users, userID)
	return nil
}

type stubAudit struct {
	entries []shared.AuditLog
}

func (a *stubAudit) Record(_ context.Context, entry shared.AuditLog) error {
	a.entries = append(a.entries, entry)
	return nil
}

func newTestService(repo *stubUserRepo, inv *stubInvalidator, audit *stubAudit) *Service {
	return NewService(repo, inv, audit, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAssignRoleUpdatesAndInvalidates(t *testing.T) {
	repo := newStubUserRepo()
	inv := &stubInvalidator{}
	audit := &stubAudit{}
	svc := newTestService(repo, inv, audit)

	require.NoError(t, svc.AssignRole(context.Background(), 1, 10, 4))

	assert.Equal(t, int64(4), repo.users[10].RoleID)
	assert.Equal(t, []int64{10}, inv.users)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "user.assign_role", audit.entries[0].Action)
	assert.Equal(t, int64(2), audit.entries[0].Meta["from_role_id"])
	assert.Equal(t, int64(4), audit.entries[0].Meta["to_role_id"])
}

func TestAssignRoleSameRoleIsNoOp(t *testing.T) {
	repo := newStubUserRepo()
	inv := &stubInvalidator{}
	audit := &stubAudit{}
	svc := newTestService(repo, inv, audit)

	require.NoError(t, svc.AssignRole(context.Background(), 1, 10, 2))
	assert.Empty(t, inv.users)
	assert.Empty(t, audit.entries)
}

func TestAssignRoleUnknownTargets(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo, &stubInvalidator{}, &stubAudit{})

	assert.ErrorIs(t, svc.AssignRole(context.Background(), 1, 99, 4), ErrNotFound)
	assert.ErrorIs(t, svc.AssignRole(context.Background(), 1, 10, 99), ErrUnknownRole)
}

func TestListUsersPaginates(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(repo, &stubInvalidator{}, &stubAudit{})

	list, pagination, err := svc.ListUsers(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PerPage)
	assert.Equal(t, 2, pagination.Total)
	assert.Equal(t, 1, pagination.TotalPages)
}
