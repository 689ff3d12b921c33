package codenames_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/spyboard/games/codenames"
	"github.com/Seednode/spyboard/games/codenames/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) codenames.Store {
		return codenames.NewMemoryStore()
	})
}

func TestGenerateRoomCode(t *testing.T) {
	for range 500 {
		code, err := codenames.GenerateRoomCode()
		require.NoError(t, err)
		require.Len(t, code, codenames.RoomCodeLength)
		assert.False(t, strings.ContainsAny(code, "01IO"), code)
		assert.True(t, codenames.ValidRoomCode(code), code)
	}
}

func TestValidRoomCode(t *testing.T) {
	assert.True(t, codenames.ValidRoomCode("ABC234"))
	assert.False(t, codenames.ValidRoomCode("abc234"))
	assert.False(t, codenames.ValidRoomCode("ABCD0O"))
	assert.False(t, codenames.ValidRoomCode("ABC23"))
	assert.Equal(t, "ABC234", codenames.NormalizeRoomCode(" abc234\n"))
}

func TestUniqueCodeGivesUp(t *testing.T) {
	_, err := codenames.UniqueCode(context.Background(), func(context.Context, string) (bool, error) {
		return true, nil
	})
	assert.Error(t, err)
}

func TestMemoryStoreLen(t *testing.T) {
	s := codenames.NewMemoryStore()
	svc := codenames.NewService(s)

	for range 3 {
		_, err := svc.CreateRoom(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, 3, s.Len())
}
