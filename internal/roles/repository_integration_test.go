package roles

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/4lexxe/DevsProject-sub007/internal/platform/db"
	"github.com/4lexxe/DevsProject-sub007/migrations"
	_ "github.com/4lexxe/DevsProject-sub007/testing"
)

// startPostgres runs a throwaway PostgreSQL container with the schema applied
// and returns a connected pool.
func startPostgres(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("devsproject_test"),
		tcpostgres.WithUsername("devsproject"),
		tcpostgres.WithPassword("devsproject"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://devsproject:devsproject@%s:%s/devsproject_test?sslmode=disable", host, port.Port())

	src, err := iofs.New(migrations.Files, ".")
	require.NoError(t, err)
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("run migrations: %v", err)
	}
	_, _ = m.Close()

	pool, err := db.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func seedPermission(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO permissions (name, description) VALUES ($1, '')
		RETURNING id`, name).Scan(&id)
	require.NoError(t, err)
	return id
}

// A reader racing UpdateRole must always see a complete permission set. The
// delete-and-reinsert runs inside one transaction, so the window where the
// role holds zero permissions is never visible outside it.
func TestUpdateRoleReplacementIsAtomic(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") == "" {
		t.Skip("Skipping integration tests. Set INTEGRATION_TEST=1 to run.")
	}

	ctx := context.Background()
	pool := startPostgres(ctx, t)
	repo := NewRepository(pool)

	commentID := seedPermission(ctx, t, pool, "comment:resources")
	rateID := seedPermission(ctx, t, pool, "rate:resources")

	role, err := repo.CreateRole(ctx, "moderator", "", []int64{commentID})
	require.NoError(t, err)

	done := make(chan struct{})
	readErrs := make(chan error, 1)
	go func() {
		defer close(readErrs)
		for {
			select {
			case <-done:
				return
			default:
			}
			got, err := repo.GetRole(ctx, role.ID)
			if err != nil {
				readErrs <- err
				return
			}
			if len(got.Permissions) == 0 {
				readErrs <- fmt.Errorf("observed role with no permissions mid-update")
				return
			}
		}
	}()

	sets := [][]int64{{rateID}, {commentID}}
	for i := 0; i < 50; i++ {
		_, err := repo.UpdateRole(ctx, role.ID, nil, sets[i%2], true)
		require.NoError(t, err)
	}
	close(done)
	require.NoError(t, <-readErrs)

	got, err := repo.GetRole(ctx, role.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"comment:resources"}, got.Permissions)
}
