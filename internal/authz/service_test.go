package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/4lexxe/DevsProject-sub007/testing"
)

type stubSnapshotRepo struct {
	principals map[int64]*Principal
	loads      int
	failWith   error
}

func (s *stubSnapshotRepo) PrincipalByUserID(ctx context.Context, userID int64) (*Principal, error) {
	s.loads++
	if s.failWith != nil {
		return nil, s.failWith
	}
	p, ok := s.principals[userID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func newCachedService(t *testing.T, repo *stubSnapshotRepo) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewService(repo, NewCache(client, time.Minute), nil)
}

func TestServicePrincipalCachesSnapshots(t *testing.T) {
	repo := &stubSnapshotRepo{principals: map[int64]*Principal{
		42: {UserID: 42, RoleID: 2, RoleName: "moderator", RolePermissions: []string{"comment:resources"}},
	}}
	svc := newCachedService(t, repo)
	ctx := context.Background()

	first, err := svc.Principal(ctx, 42)
	require.NoError(t, err)
	second, err := svc.Principal(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.loads, "second read must come from cache")
}

func TestServiceInvalidateUserForcesReload(t *testing.T) {
	repo := &stubSnapshotRepo{principals: map[int64]*Principal{
		42: {UserID: 42, RoleID: 2, RoleName: "moderator", Blocks: []string{"comment:resources"}},
	}}
	svc := newCachedService(t, repo)
	ctx := context.Background()

	decision, err := svc.Authorize(ctx, 42, []string{"comment:resources"}, ModeAll)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	// Unblock and invalidate, the way the override store does it.
	repo.principals[42].Blocks = nil
	repo.principals[42].RolePermissions = []string{"comment:resources"}
	require.NoError(t, svc.InvalidateUser(ctx, 42))

	decision, err = svc.Authorize(ctx, 42, []string{"comment:resources"}, ModeAll)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 2, repo.loads)
}

func TestServiceInvalidateAllBumpsVersion(t *testing.T) {
	repo := &stubSnapshotRepo{principals: map[int64]*Principal{
		1: {UserID: 1, RoleID: 2, RoleName: "instructor", RolePermissions: []string{"manage:courses"}},
		2: {UserID: 2, RoleID: 2, RoleName: "instructor", RolePermissions: []string{"manage:courses"}},
	}}
	svc := newCachedService(t, repo)
	ctx := context.Background()

	_, err := svc.Principal(ctx, 1)
	require.NoError(t, err)
	_, err = svc.Principal(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 2, repo.loads)

	require.NoError(t, svc.InvalidateAll(ctx))

	_, err = svc.Principal(ctx, 1)
	require.NoError(t, err)
	_, err = svc.Principal(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, repo.loads, "role-wide invalidation must reload every user")
}

func TestServiceAuthorizeUnknownUserDeniesUnauthenticated(t *testing.T) {
	svc := newCachedService(t, &stubSnapshotRepo{})
	decision, err := svc.Authorize(context.Background(), 99, []string{"manage:users"}, ModeAll)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenyUnauthenticated, decision.Reason)
}

func TestServiceStoreFaultPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewService(&stubSnapshotRepo{failWith: boom}, nil, nil)
	_, err := svc.Authorize(context.Background(), 7, []string{"manage:users"}, ModeAll)
	require.ErrorIs(t, err, boom)
}

func TestServiceWorksWithoutCache(t *testing.T) {
	repo := &stubSnapshotRepo{principals: map[int64]*Principal{
		5: {UserID: 5, RoleName: "superadmin"},
	}}
	svc := NewService(repo, nil, nil)
	decision, err := svc.Authorize(context.Background(), 5, []string{"manage:payments"}, ModeAll)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}
