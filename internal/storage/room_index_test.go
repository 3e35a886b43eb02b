package storage_test

import (
	"context"
	"testing"

	"regimath/backend/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRoomIndex(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	index := storage.NewRedisRoomIndex(client)

	require.NoError(t, index.Track(ctx, "chat_12-7", "7", "12"))
	require.NoError(t, index.Track(ctx, "chat_3-7", "7"))
	require.NoError(t, index.Track(ctx, "chat_12-7", "7"))

	rooms, err := index.RoomsOf(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, []string{"chat_12-7", "chat_3-7"}, rooms)

	rooms, err = index.RoomsOf(ctx, "12")
	require.NoError(t, err)
	assert.Equal(t, []string{"chat_12-7"}, rooms)

	rooms, err = index.RoomsOf(ctx, "99")
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestScanRoomIndex(t *testing.T) {
	ctx := context.Background()
	history := storage.NewHistoryStore(newTestDB(t))
	index := storage.NewScanRoomIndex(history)

	for _, roomID := range []string{"chat_12-7", "chat_3-7", "chat_3-4", "global"} {
		_, err := history.Append(ctx, roomID, msg("x", "hi", 1))
		require.NoError(t, err)
	}

	rooms, err := index.RoomsOf(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, []string{"chat_12-7", "chat_3-7"}, rooms)
}
