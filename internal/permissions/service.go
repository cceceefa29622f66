package permissions

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrUnknown indicates a referenced permission is not in the catalog.
	ErrUnknown = errors.New("permissions: unknown permission")
	// ErrInvalidName indicates a name that is not a verb:object token.
	ErrInvalidName = errors.New("permissions: invalid permission name")
)

var namePattern = regexp.MustCompile(`^[a-z]+(?:-[a-z]+)*:[a-z]+(?:-[a-z]+)*$`)

// RepositoryPort defines data access methods for the catalog.
type RepositoryPort interface {
	ListAll(ctx context.Context) ([]Permission, error)
	FindByNames(ctx context.Context, names []string) ([]Permission, error)
	Ensure(ctx context.Context, name, description string) (Permission, error)
}

// Service handles catalog business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListAll returns the full catalog.
func (s *Service) ListAll(ctx context.Context) ([]Permission, error) {
	return s.repo.ListAll(ctx)
}

// Ensure validates the name and upserts the catalog entry. Used by seeding.
func (s *Service) Ensure(ctx context.Context, name, description string) (Permission, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if !namePattern.MatchString(name) {
		return Permission{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return s.repo.Ensure(ctx, name, strings.TrimSpace(description))
}

// Resolve maps permission names to catalog entries. Every name must exist;
// missing names fail with ErrUnknown listing each one.
func (s *Service) Resolve(ctx context.Context, names []string) ([]Permission, error) {
	normalized := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		normalized = append(normalized, name)
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	perms, err := s.repo.FindByNames(ctx, normalized)
	if err != nil {
		return nil, err
	}
	found := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		found[p.Name] = struct{}{}
	}
	var missing []string
	for _, name := range normalized {
		if _, ok := found[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrUnknown, strings.Join(missing, ", "))
	}
	return perms, nil
}
