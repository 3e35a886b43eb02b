package storage

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"regimath/backend/internal/config"
	"regimath/backend/internal/models"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

const lockStripes = 64

// HistoryStore keeps room history in the chat_messages table.
type HistoryStore struct {
	DB    *gorm.DB
	Limit int

	locks [lockStripes]sync.Mutex
}

func NewHistoryStore(db *gorm.DB) *HistoryStore {
	return &HistoryStore{DB: db, Limit: config.HistoryLimit}
}

func (s *HistoryStore) lockRoom(roomID string) func() {
	h := fnv.New32a()
	h.Write([]byte(roomID))
	mu := &s.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// Append stores msg at the end of the room's log and evicts the oldest
// entries beyond Limit. The stored message is returned with its id set.
func (s *HistoryStore) Append(ctx context.Context, roomID string, msg models.Message) (models.Message, error) {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}

	row := models.ChatMessage{
		MessageID:  msg.ID,
		RoomID:     roomID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Text:       msg.Text,
		SentAt:     msg.Time,
	}

	unlock := s.lockRoom(roomID)
	defer unlock()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		// The first id past the newest Limit rows, if any.
		var cutoff []uint
		if err := tx.Model(&models.ChatMessage{}).
			Where("room_id = ?", roomID).
			Order("id desc").
			Offset(s.Limit).
			Limit(1).
			Pluck("id", &cutoff).Error; err != nil {
			return err
		}
		if len(cutoff) == 0 {
			return nil
		}

		return tx.Where("room_id = ? AND id <= ?", roomID, cutoff[0]).
			Delete(&models.ChatMessage{}).Error
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("append message to room %s: %w", roomID, err)
	}

	return row.ToMessage(), nil
}

// HistoryOf returns the room's log in insertion order. Unknown rooms have an
// empty history.
func (s *HistoryStore) HistoryOf(ctx context.Context, roomID string) ([]models.Message, error) {
	var rows []models.ChatMessage
	if err := s.DB.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load history of room %s: %w", roomID, err)
	}

	history := make([]models.Message, 0, len(rows))
	for _, r := range rows {
		history = append(history, r.ToMessage())
	}
	return history, nil
}

// AllRooms loads every room's log. It is a full scan.
func (s *HistoryStore) AllRooms(ctx context.Context) (map[string][]models.Message, error) {
	var rows []models.ChatMessage
	if err := s.DB.WithContext(ctx).Order("room_id asc, id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load all rooms: %w", err)
	}

	rooms := make(map[string][]models.Message)
	for _, r := range rows {
		rooms[r.RoomID] = append(rooms[r.RoomID], r.ToMessage())
	}
	return rooms, nil
}
