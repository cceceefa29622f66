package permissions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	byName map[string]Permission
	nextID int64
}

func newStubCatalog(names ...string) *stubCatalog {
	s := &stubCatalog{byName: make(map[string]Permission), nextID: 1}
	for _, name := range names {
		s.byName[name] = Permission{ID: s.nextID, Name: name}
		s.nextID++
	}
	return s
}

func (s *stubCatalog) ListAll(ctx context.Context) ([]Permission, error) {
	var perms []Permission
	for _, p := range s.byName {
		perms = append(perms, p)
	}
	return perms, nil
}

func (s *stubCatalog) FindByNames(ctx context.Context, names []string) ([]Permission, error) {
	var perms []Permission
	for _, name := range names {
		if p, ok := s.byName[name]; ok {
			perms = append(perms, p)
		}
	}
	return perms, nil
}

func (s *stubCatalog) Ensure(ctx context.Context, name, description string) (Permission, error) {
	if p, ok := s.byName[name]; ok {
		p.Description = description
		s.byName[name] = p
		return p, nil
	}
	p := Permission{ID: s.nextID, Name: name, Description: description}
	s.nextID++
	s.byName[name] = p
	return p, nil
}

func TestResolveReportsMissingNames(t *testing.T) {
	svc := NewService(newStubCatalog("manage:users", "comment:resources"))

	perms, err := svc.Resolve(context.Background(), []string{"manage:users", "comment:resources"})
	require.NoError(t, err)
	assert.Len(t, perms, 2)

	_, err = svc.Resolve(context.Background(), []string{"manage:users", "fly:moon", "dig:tunnels"})
	require.ErrorIs(t, err, ErrUnknown)
	assert.Contains(t, err.Error(), "dig:tunnels, fly:moon")
}

func TestResolveNormalizesAndDeduplicates(t *testing.T) {
	svc := NewService(newStubCatalog("manage:users"))
	perms, err := svc.Resolve(context.Background(), []string{" Manage:Users ", "manage:users", ""})
	require.NoError(t, err)
	assert.Len(t, perms, 1)
}

func TestEnsureRejectsMalformedNames(t *testing.T) {
	svc := NewService(newStubCatalog())

	for _, name := range []string{"manage", "manage:", ":users", "Manage Users", "manage:users:extra", "manage:-users"} {
		_, err := svc.Ensure(context.Background(), name, "")
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}

	p, err := svc.Ensure(context.Background(), "Manage:Own-Resources", "own resource management")
	require.NoError(t, err)
	assert.Equal(t, "manage:own-resources", p.Name)
}
