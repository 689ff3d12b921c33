package storage_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/spyboard/games/codenames"
	"github.com/Seednode/spyboard/games/codenames/storetest"
	"github.com/Seednode/spyboard/storage"
)

func newSQLiteStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()

	store, err := storage.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "rooms.db"))
	if err != nil && strings.Contains(err.Error(), "CGO_ENABLED=0") {
		t.Skip("go-sqlite3 requires cgo")
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) codenames.Store {
		return newSQLiteStore(t)
	})
}

func TestSQLiteStoreServesAGame(t *testing.T) {
	store := newSQLiteStore(t)
	svc := codenames.NewService(store)
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx)
	require.NoError(t, err)

	_, err = svc.JoinRoom(ctx, room.Code, "red-device", codenames.RoleRedSpymaster)
	require.NoError(t, err)
	_, err = svc.JoinRoom(ctx, room.Code, "blue-device", codenames.RoleBlueSpymaster)
	require.NoError(t, err)

	started, err := svc.StartGame(ctx, room.Code)
	require.NoError(t, err)
	require.Len(t, started.Board, codenames.BoardSize)

	stored, err := store.Get(ctx, room.Code)
	require.NoError(t, err)
	assert.Equal(t, started.Version, stored.Version)
	assert.Equal(t, codenames.PhasePlaying, stored.Phase)
	assert.Equal(t, started.Board, stored.Board)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := storage.Open(ctx, "memory")
	require.NoError(t, err)
	assert.NoError(t, s.Close())
	assert.Equal(t, "memory", storage.Kind(""))
	assert.Equal(t, "sqlite", storage.Kind("sqlite://x.db"))
	assert.Equal(t, "postgres", storage.Kind("postgres://localhost/db"))

	_, err = storage.Open(ctx, "redis://localhost")
	assert.Error(t, err)

	_, err = storage.Open(ctx, "sqlite://")
	assert.Error(t, err)
}
