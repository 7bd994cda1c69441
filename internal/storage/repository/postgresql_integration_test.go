//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/controtec/internal/config"
	"github.com/magabrotheeeer/controtec/internal/migrations"
)

func init() {
	testStorages[DriverPostgres] = setupPostgresDatabase
}

func setupPostgresDatabase(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := New(config.Storage{Driver: DriverPostgres, ConnectionString: dsn})
	require.NoError(t, err)
	require.NoError(t, migrations.Run(s.DB, s.Driver()))
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}
