// Package integration exercises the persistence layer against a real
// PostgreSQL instance started with testcontainers. The container is
// shared across the package; each test works in its own store so tests
// never observe each other's rows.
package integration

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/comercio/backend/internal/domain/identity"
	"github.com/comercio/backend/internal/domain/shared/valueobject"
	"github.com/comercio/backend/internal/domain/store"
	"github.com/comercio/backend/internal/infrastructure/persistence"
	"github.com/golang-migrate/migrate/v4"
	mpg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	sharedMu        sync.Mutex
	sharedContainer testcontainers.Container
	sharedDSN       string
)

// TestDB is a connection to the shared migrated test database.
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

// NewTestDB returns a connection to the shared PostgreSQL container,
// starting it and applying migrations on first use.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if os.Getenv("SKIP_INTEGRATION") != "" {
		t.Skip("SKIP_INTEGRATION is set")
	}

	sharedMu.Lock()
	defer sharedMu.Unlock()

	ctx := context.Background()
	if sharedContainer == nil {
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("backoffice_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		require.NoError(t, err, "failed to start PostgreSQL container")

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err, "failed to get connection string")

		sqlDB, err := sql.Open("postgres", dsn)
		require.NoError(t, err)
		applyMigrations(t, sqlDB)
		require.NoError(t, sqlDB.Close())

		sharedContainer = container
		sharedDSN = dsn
	}

	db, err := gorm.Open(gormpostgres.Open(sharedDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return &TestDB{DB: db, t: t}
}

func applyMigrations(t *testing.T, sqlDB *sql.DB) {
	t.Helper()

	path := findMigrationsPath()
	require.NotEmpty(t, path, "could not locate migrations directory")

	driver, err := mpg.WithInstance(sqlDB, &mpg.Config{})
	require.NoError(t, err)

	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	require.NoError(t, err)

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("migrations failed: %v", err)
	}
}

func findMigrationsPath() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	dir := filepath.Dir(filename)
	for i := 0; i < 4; i++ {
		candidate := filepath.Join(dir, "migrations")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	return ""
}

// SeedUser persists a user account and returns it.
func (tdb *TestDB) SeedUser(email, name string) *identity.User {
	tdb.t.Helper()

	u, err := identity.NewUser(email, name, "secret-password")
	require.NoError(tdb.t, err)

	repo := persistence.NewGormUserRepository(tdb.DB)
	require.NoError(tdb.t, repo.Save(context.Background(), u))
	return u
}

// SeedStore persists a store owned by the given user and returns it.
// The slug is derived from the store ID so each call is unique.
func (tdb *TestDB) SeedStore(name string, ownerID uuid.UUID) *store.Store {
	tdb.t.Helper()

	s, err := store.NewStore(name, "s-"+uuid.NewString()[:8], ownerID, valueobject.DefaultCurrency)
	require.NoError(tdb.t, err)

	repo := persistence.NewGormStoreRepository(tdb.DB)
	require.NoError(tdb.t, repo.Save(context.Background(), s))
	return s
}
