package authz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4lexxe/DevsProject-sub007/internal/shared"
)

func requestWithUser(t *testing.T, client *redis.Client, userID string) *http.Request {
	t.Helper()
	sm := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	if userID != "" {
		sess.SetUser(userID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestMiddlewareDeniesWithoutSessionUser(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	svc := NewService(&stubSnapshotRepo{}, nil, nil)
	mw := Middleware{Service: svc}

	handler := mw.RequireAll("manage:users")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithUser(t, client, ""))

	require.Equal(t, http.StatusUnauthorized, res.Code)
	var payload denyPayload
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Equal(t, DenyUnauthenticated, payload.Reason)
	assert.Equal(t, []string{"manage:users"}, payload.RequiredPermissions)
}

func TestMiddlewareDeniesInsufficientWithPayload(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	repo := &stubSnapshotRepo{principals: map[int64]*Principal{
		7: {UserID: 7, RoleName: "student", RolePermissions: []string{"comment:resources"}},
	}}
	mw := Middleware{Service: NewService(repo, nil, nil)}

	handler := mw.RequireAll("manage:courses")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithUser(t, client, "7"))

	require.Equal(t, http.StatusForbidden, res.Code)
	var payload denyPayload
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Equal(t, DenyInsufficient, payload.Reason)
	assert.Equal(t, ModeAll, payload.Mode)
	assert.Equal(t, []string{"manage:courses"}, payload.RequiredPermissions)
	assert.Equal(t, []string{"comment:resources"}, payload.UserPermissions)
}

func TestMiddlewareAllowsAndExposesPrincipal(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	repo := &stubSnapshotRepo{principals: map[int64]*Principal{
		7: {UserID: 7, RoleName: "moderator", RolePermissions: []string{"comment:resources"}},
	}}
	mw := Middleware{Service: NewService(repo, nil, nil)}

	var seen *Principal
	handler := mw.RequireAny("comment:resources", "manage:courses")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithUser(t, client, "7"))

	require.Equal(t, http.StatusNoContent, res.Code)
	require.NotNil(t, seen)
	assert.Equal(t, int64(7), seen.UserID)
}

func TestMiddlewareStoreFaultIs500(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	repo := &stubSnapshotRepo{failWith: context.DeadlineExceeded}
	mw := Middleware{Service: NewService(repo, nil, nil)}

	handler := mw.RequireAll("manage:users")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithUser(t, client, "7"))
	assert.Equal(t, http.StatusInternalServerError, res.Code)
}
