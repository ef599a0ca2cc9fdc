package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/carhire/carhire/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops every table and re-applies all up migrations in order.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	downs, err := migrationFiles(root, ".down.sql")
	if err != nil {
		return err
	}
	// Down migrations run newest first.
	for i := len(downs) - 1; i >= 0; i-- {
		if err := applySQLFile(ctx, pool, downs[i]); err != nil {
			return err
		}
	}

	ups, err := migrationFiles(root, ".up.sql")
	if err != nil {
		return err
	}
	for _, path := range ups {
		if err := applySQLFile(ctx, pool, path); err != nil {
			return err
		}
	}

	return nil
}

func migrationFiles(root, suffix string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(root, "migrations"))
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			files = append(files, filepath.Join(root, "migrations", e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func applySQLFile(ctx context.Context, pool *pgxpool.Pool, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", filepath.Base(path), err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", filepath.Base(path), err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a test user with sensible defaults.
// The password hash is a placeholder; use auth.HashPassword when logging in.
func NewTestUser(t testing.TB, username string) *model.User {
	t.Helper()
	return &model.User{
		ID:           ulid.Make().String(),
		Username:     username,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		Role:         model.RoleUser,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewTestAdmin creates a test admin user.
func NewTestAdmin(t testing.TB, username string) *model.User {
	t.Helper()
	user := NewTestUser(t, username)
	user.Role = model.RoleAdmin
	return user
}

// NewTestCar creates an available test car.
func NewTestCar(t testing.TB, name string) *model.Car {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.Car{
		ID:        ulid.Make().String(),
		Name:      name,
		Status:    model.CarStatusAvailable,
		Image:     model.DefaultCarImage,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestRental creates an ongoing rental of carID by userID.
func NewTestRental(t testing.TB, userID, carID string) *model.Rental {
	t.Helper()
	return &model.Rental{
		ID:        ulid.Make().String(),
		UserID:    userID,
		CarID:     carID,
		StartDate: time.Now().UTC().Truncate(time.Microsecond),
		Status:    model.RentalStatusOngoing,
	}
}

// UniqueName generates a unique name for tests, at most 20 characters.
func UniqueName(prefix string) string {
	suffix := strings.ToLower(ulid.Make().String())
	name := prefix + "_" + suffix[len(suffix)-8:]
	if len(name) > 20 {
		name = name[len(name)-20:]
	}
	return name
}
