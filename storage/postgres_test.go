package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Seednode/spyboard/games/codenames"
	"github.com/Seednode/spyboard/games/codenames/storetest"
	"github.com/Seednode/spyboard/storage"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine3.22",
		postgres.WithDatabase("spyboard"),
		postgres.WithUsername("spyboard"),
		postgres.WithPassword("spyboard"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := storage.NewPostgresStore(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	storetest.Run(t, func(t *testing.T) codenames.Store {
		// Every subtest shares the container; start each from an empty table.
		_, err := store.DeleteIdle(ctx, time.Now().Add(100*365*24*time.Hour))
		require.NoError(t, err)

		return store
	})

	t.Run("MigrationsAreIdempotent", func(t *testing.T) {
		again, err := storage.NewPostgresStore(ctx, connString)
		require.NoError(t, err)
		require.NoError(t, again.Close())
	})
}
