// Package dbtest opens a migrated PostgreSQL pool for repository tests. Tests are
// skipped unless TEST_DATABASE_URL is set.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/vidshare/backend/pkg/database"
)

// EnvDSN names the variable holding the test database connection string.
const EnvDSN = "TEST_DATABASE_URL"

// migrateLock serializes migrations when several test binaries share one database.
const migrateLock = 7_310_442

// Open connects to the test database and applies migrations.
func Open(t testing.TB) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set", EnvDSN)
	}
	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer conn.Release()
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, migrateLock); err != nil {
		t.Fatalf("lock migrations: %v", err)
	}
	defer conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, migrateLock)
	if err := database.Migrate(ctx, pool, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

// CreateUser inserts a user with a unique username and removes it, with everything it
// owns, when the test ends.
func CreateUser(t testing.TB, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	name := "u" + uuid.NewString()[:12]
	var id uuid.UUID
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (username, email, full_name, password_hash) VALUES ($1, $2, $1, 'x') RETURNING id`,
		name, name+"@example.com").Scan(&id)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}
