/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package storetest holds the behaviour every codenames.Store must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/spyboard/games/codenames"
)

// Run exercises a store. newStore must return an empty store each call.
func Run(t *testing.T, newStore func(t *testing.T) codenames.Store) {
	t.Helper()

	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	t.Run("NewCode", func(t *testing.T) {
		s := newStore(t)

		code, err := s.NewCode(context.Background())
		require.NoError(t, err)
		assert.True(t, codenames.ValidRoomCode(code), code)
	})

	t.Run("CreateGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		room := codenames.NewRoom("AAAAAA", codenames.Settings{StrictClueRules: true}, now)
		require.NoError(t, s.Create(ctx, room))
		assert.Equal(t, int64(1), room.Version)

		got, err := s.Get(ctx, "AAAAAA")
		require.NoError(t, err)
		assert.Equal(t, room.Code, got.Code)
		assert.Equal(t, int64(1), got.Version)
		assert.Equal(t, codenames.PhaseLobby, got.Phase)
		assert.True(t, got.Settings.StrictClueRules)
		assert.True(t, got.CreatedAt.Equal(now))
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Create(ctx, codenames.NewRoom("BBBBBB", codenames.Settings{}, now)))
		err := s.Create(ctx, codenames.NewRoom("BBBBBB", codenames.Settings{}, now))
		assert.ErrorIs(t, err, codenames.ErrRoomExists)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Get(context.Background(), "CCCCCC")
		assert.ErrorIs(t, err, codenames.ErrRoomNotFound)
	})

	t.Run("PutCompareAndSwap", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Create(ctx, codenames.NewRoom("DDDDDD", codenames.Settings{}, now)))

		first, err := s.Get(ctx, "DDDDDD")
		require.NoError(t, err)
		second, err := s.Get(ctx, "DDDDDD")
		require.NoError(t, err)

		first.Players = append(first.Players, codenames.Player{
			SessionID: "device",
			Role:      codenames.RoleRedSpymaster,
			JoinedAt:  now,
			LastSeen:  now,
		})
		require.NoError(t, s.Put(ctx, first))
		assert.Equal(t, int64(2), first.Version)

		second.RedScore = 4
		err = s.Put(ctx, second)
		assert.ErrorIs(t, err, codenames.ErrVersionConflict)

		got, err := s.Get(ctx, "DDDDDD")
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Version)
		assert.Zero(t, got.RedScore)
		require.Len(t, got.Players, 1)
		assert.Equal(t, codenames.RoleRedSpymaster, got.Players[0].Role)
	})

	t.Run("PutMissing", func(t *testing.T) {
		s := newStore(t)

		room := codenames.NewRoom("EEEEEE", codenames.Settings{}, now)
		room.Version = 1
		assert.ErrorIs(t, s.Put(context.Background(), room), codenames.ErrRoomNotFound)
	})

	t.Run("GetReturnsCopy", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Create(ctx, codenames.NewRoom("FFFFFF", codenames.Settings{}, now)))

		got, err := s.Get(ctx, "FFFFFF")
		require.NoError(t, err)
		got.Phase = codenames.PhaseGameOver

		again, err := s.Get(ctx, "FFFFFF")
		require.NoError(t, err)
		assert.Equal(t, codenames.PhaseLobby, again.Phase)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Create(ctx, codenames.NewRoom("GGGGGG", codenames.Settings{}, now)))
		require.NoError(t, s.Delete(ctx, "GGGGGG"))

		_, err := s.Get(ctx, "GGGGGG")
		assert.ErrorIs(t, err, codenames.ErrRoomNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "GGGGGG"), codenames.ErrRoomNotFound)
	})

	t.Run("DeleteIdle", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		old := codenames.NewRoom("HHHHHH", codenames.Settings{}, now.Add(-2*time.Hour))
		fresh := codenames.NewRoom("JJJJJJ", codenames.Settings{}, now)
		require.NoError(t, s.Create(ctx, old))
		require.NoError(t, s.Create(ctx, fresh))

		codes, err := s.DeleteIdle(ctx, now.Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, []string{"HHHHHH"}, codes)

		_, err = s.Get(ctx, "JJJJJJ")
		assert.NoError(t, err)
	})
}
