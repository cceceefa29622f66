package roles

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4lexxe/DevsProject-sub007/internal/permissions"
	"github.com/4lexxe/DevsProject-sub007/internal/shared"
	_ "github.com/4lexxe/DevsProject-sub007/testing"
)

type stubRoleRepo struct {
	roles    map[int64]Role
	nextID   int64
	failWith error
	deleted  []int64
	inUse    map[int64]bool
}

func newStubRoleRepo() *stubRoleRepo {
	return &stubRoleRepo{roles: map[int64]Role{}, nextID: 1, inUse: map[int64]bool{}}
}

func (r *stubRoleRepo) ListRoles(context.Context) ([]Role, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	out := make([]Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *stubRoleRepo) GetRole(_ context.Context, id int64) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	return role, nil
}

func (r *stubRoleRepo) CreateRole(_ context.Context, name, description string, permissionIDs []int64) (Role, error) {
	for _, existing := range r.roles {
		if existing.Name == name {
			return Role{}, ErrDuplicate
		}
	}
	role := Role{ID: r.nextID, Name: name, Description: description, Permissions: permNames(permissionIDs)}
	r.roles[role.ID] = role
	r.nextID++
	return role, nil
}

func (r *stubRoleRepo) UpdateRole(_ context.Context, id int64, description *string, permissionIDs []int64, replacePermissions bool) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	if description != nil {
		role.Description = *description
	}
	if replacePermissions {
		role.Permissions = permNames(permissionIDs)
	}
	r.roles[id] = role
	return role, nil
}

func (r *stubRoleRepo) DeleteRole(_ context.Context, id int64) error {
	if _, ok := r.roles[id]; !ok {
		return ErrNotFound
	}
	if r.inUse[id] {
		return ErrRoleInUse
	}
	delete(r.roles, id)
	r.deleted = append(r.deleted, id)
	return nil
}

type stubCatalog struct {
	known map[string]int64
}

func (c stubCatalog) Resolve(_ context.Context, names []string) ([]permissions.Permission, error) {
	out := make([]permissions.Permission, 0, len(names))
	for _, name := range names {
		id, ok := c.known[name]
		if !ok {
			return nil, permissions.ErrUnknown
		}
		out = append(out, permissions.Permission{ID: id, Name: name})
	}
	return out, nil
}

type stubInvalidator struct {
	calls int
}

func (i *stubInvalidator) InvalidateAll(context.Context) error {
	i.calls++
	return nil
}

type stubAudit struct {
	entries []shared.AuditLog
}

func (a *stubAudit) Record(_ context.Context, entry shared.AuditLog) error {
	a.entries = append(a.entries, entry)
	return nil
}

func permNames(ids []int64) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		switch id {
		case 1:
			names = append(names, "manage:users")
		case 2:
			names = append(names, "manage:roles")
		default:
			names = append(names, "manage:content")
		}
	}
	return names
}

func newTestService(repo *stubRoleRepo, inv *stubInvalidator, audit *stubAudit) *Service {
	catalog := stubCatalog{known: map[string]int64{"manage:users": 1, "manage:roles": 2, "manage:content": 3}}
	return NewService(repo, catalog, inv, audit, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateRoleRejectsDuplicateName(t *testing.T) {
	repo := newStubRoleRepo()
	svc := newTestService(repo, &stubInvalidator{}, &stubAudit{})

	_, err := svc.CreateRole(context.Background(), 1, "Moderator", "", []string{"manage:users"})
	require.NoError(t, err)

	_, err = svc.CreateRole(context.Background(), 1, "moderator", "", nil)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestCreateRoleRejectsUnknownPermission(t *testing.T) {
	repo := newStubRoleRepo()
	svc := newTestService(repo, &stubInvalidator{}, &stubAudit{})

	_, err := svc.CreateRole(context.Background(), 1, "moderator", "", []string{"manage:users", "fly:moon"})
	assert.ErrorIs(t, err, permissions.ErrUnknown)
	assert.Empty(t, repo.roles)
}

func TestUpdateRoleReplacesPermissionSetAndInvalidates(t *testing.T) {
	repo := newStubRoleRepo()
	inv := &stubInvalidator{}
	svc := newTestService(repo, inv, &stubAudit{})

	created, err := svc.CreateRole(context.Background(), 1, "moderator", "", []string{"manage:users"})
	require.NoError(t, err)

	updated, err := svc.UpdateRole(context.Background(), 1, created.ID, nil, []string{"manage:roles", "manage:content"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"manage:roles", "manage:content"}, updated.Permissions)
	assert.Equal(t, 1, inv.calls)
}

func TestUpdateRoleDescriptionOnlySkipsInvalidation(t *testing.T) {
	repo := newStubRoleRepo()
	inv := &stubInvalidator{}
	svc := newTestService(repo, inv, &stubAudit{})

	created, err := svc.CreateRole(context.Background(), 1, "moderator", "", []string{"manage:users"})
	require.NoError(t, err)

	desc := "handles reports"
	updated, err := svc.UpdateRole(context.Background(), 1, created.ID, &desc, nil)
	require.NoError(t, err)
	assert.Equal(t, "handles reports", updated.Description)
	assert.Equal(t, []string{"manage:users"}, updated.Permissions)
	assert.Zero(t, inv.calls)
}

func TestDeleteRoleProtectsSuperadmin(t *testing.T) {
	repo := newStubRoleRepo()
	repo.roles[9] = Role{ID: 9, Name: shared.SuperadminRole}
	svc := newTestService(repo, &stubInvalidator{}, &stubAudit{})

	err := svc.DeleteRole(context.Background(), 1, 9)
	assert.ErrorIs(t, err, ErrProtected)
	assert.Contains(t, repo.roles, int64(9))
}

func TestDeleteRoleInUse(t *testing.T) {
	repo := newStubRoleRepo()
	repo.roles[4] = Role{ID: 4, Name: "instructor"}
	repo.inUse[4] = true
	svc := newTestService(repo, &stubInvalidator{}, &stubAudit{})

	err := svc.DeleteRole(context.Background(), 1, 4)
	assert.ErrorIs(t, err, ErrRoleInUse)
	assert.Contains(t, repo.roles, int64(4))
}

func TestDeleteRoleNotFound(t *testing.T) {
	repo := newStubRoleRepo()
	svc := newTestService(repo, &stubInvalidator{}, &stubAudit{})

	err := svc.DeleteRole(context.Background(), 1, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoleMutationsAreAudited(t *testing.T) {
	repo := newStubRoleRepo()
	audit := &stubAudit{}
	svc := newTestService(repo, &stubInvalidator{}, audit)

	created, err := svc.CreateRole(context.Background(), 7, "moderator", "", []string{"manage:users"})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteRole(context.Background(), 7, created.ID))

	require.Len(t, audit.entries, 2)
	assert.Equal(t, "role.create", audit.entries[0].Action)
	assert.Equal(t, "role.delete", audit.entries[1].Action)
	assert.Equal(t, int64(7), audit.entries[0].ActorID)
}
