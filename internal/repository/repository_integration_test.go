//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carhire/carhire/internal/model"
	"github.com/carhire/carhire/internal/testutil"
)

// newRepoTestEnv connects to DATABASE_URL, serializes on the advisory lock
// and rebuilds the schema from migrations/.
func newRepoTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	ctx, pool := newMigrationTestEnv(t)

	if err := testutil.ResetSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, NewWithPool(pool)
}

func newMigrationTestEnv(t *testing.T) (context.Context, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	return ctx, pool
}

func mustCreateUser(t *testing.T, ctx context.Context, repo *Repository, username string) *model.User {
	t.Helper()
	user := testutil.NewTestUser(t, username)
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func mustCreateCar(t *testing.T, ctx context.Context, repo *Repository, name string) *model.Car {
	t.Helper()
	car := testutil.NewTestCar(t, name)
	if err := repo.CreateCar(ctx, car); err != nil {
		t.Fatalf("CreateCar failed: %v", err)
	}
	return car
}

func mustRent(t *testing.T, ctx context.Context, repo *Repository, userID, carID string) *model.Rental {
	t.Helper()
	rental := testutil.NewTestRental(t, userID, carID)
	if err := repo.RentCar(ctx, rental); err != nil {
		t.Fatalf("RentCar failed: %v", err)
	}
	return rental
}
