// Package storage holds the durable stores shared by all connections: the
// per-room message history, the payment ledger and the conversation index.
package storage

import (
	"context"
	"errors"

	"regimath/backend/internal/models"
)

var ErrEmptyReference = errors.New("storage: empty preference reference")

// History is the append-only, bounded message log of each room.
type History interface {
	Append(ctx context.Context, roomID string, msg models.Message) (models.Message, error)
	HistoryOf(ctx context.Context, roomID string) ([]models.Message, error)
	AllRooms(ctx context.Context) (map[string][]models.Message, error)
}

// Ledger maps payment preferences back to the rooms that created them.
type Ledger interface {
	CreatePreference(ctx context.Context, rec *models.PaymentPreference) error
	UpdateByPreferenceReference(ctx context.Context, ref string, u Update) (bool, error)
	UpdateByPaymentID(ctx context.Context, paymentID string, u Update) (bool, error)
	GetByPreferenceReference(ctx context.Context, ref string) (*models.PaymentPreference, error)
	ListOrphans(ctx context.Context) ([]models.OrphanPaymentUpdate, error)
}

// RoomIndex lists the rooms an identity takes part in.
type RoomIndex interface {
	Track(ctx context.Context, roomID string, identities ...string) error
	RoomsOf(ctx context.Context, identity string) ([]string, error)
}
