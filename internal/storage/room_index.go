package storage

import (
	"context"
	"fmt"
	"sort"

	"regimath/backend/internal/room"

	"github.com/redis/go-redis/v9"
)

const roomIndexPrefix = "rooms:"

// RedisRoomIndex keeps one set of room ids per identity.
type RedisRoomIndex struct {
	Redis *redis.Client
}

func NewRedisRoomIndex(client *redis.Client) *RedisRoomIndex {
	return &RedisRoomIndex{Redis: client}
}

func (i *RedisRoomIndex) Track(ctx context.Context, roomID string, identities ...string) error {
	if len(identities) == 0 {
		return nil
	}

	pipe := i.Redis.TxPipeline()
	for _, id := range identities {
		if id == "" {
			continue
		}
		pipe.SAdd(ctx, roomIndexPrefix+id, roomID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index room %s: %w", roomID, err)
	}
	return nil
}

func (i *RedisRoomIndex) RoomsOf(ctx context.Context, identity string) ([]string, error) {
	rooms, err := i.Redis.SMembers(ctx, roomIndexPrefix+identity).Result()
	if err != nil {
		return nil, fmt.Errorf("load rooms of %s: %w", identity, err)
	}
	sort.Strings(rooms)
	return rooms, nil
}

// ScanRoomIndex answers RoomsOf by scanning every stored room. It is used
// when Redis is not configured.
type ScanRoomIndex struct {
	History History
}

func NewScanRoomIndex(history History) *ScanRoomIndex {
	return &ScanRoomIndex{History: history}
}

// Track is a no-op; membership is derived from the room ids themselves.
func (i *ScanRoomIndex) Track(context.Context, string, ...string) error { return nil }

func (i *ScanRoomIndex) RoomsOf(ctx context.Context, identity string) ([]string, error) {
	all, err := i.History.AllRooms(ctx)
	if err != nil {
		return nil, err
	}

	var rooms []string
	for roomID := range all {
		if room.Partner(roomID, identity) != "" {
			rooms = append(rooms, roomID)
		}
	}
	sort.Strings(rooms)
	return rooms, nil
}
