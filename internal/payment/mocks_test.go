package payment_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"regimath/backend/internal/config"
	"regimath/backend/internal/events"
	"regimath/backend/internal/models"
	"regimath/backend/internal/payment"
	"regimath/backend/internal/storage"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreatePreference(ctx context.Context, req payment.PreferenceRequest) (payment.Preference, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(payment.Preference), args.Error(1)
}

func (m *MockProvider) GetPayment(ctx context.Context, id string) (payment.Payment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(payment.Payment), args.Error(1)
}

type MockAlerter struct {
	mock.Mock
}

func (m *MockAlerter) UnroutablePayment(ctx context.Context, p payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, msg events.Envelope) error {
	args := m.Called(ctx, key, msg)
	return args.Error(0)
}

func (m *MockPublisher) Close() error { return nil }

// recordingHub captures broadcasts per room.
type recordingHub struct {
	mu    sync.Mutex
	sent  map[string][]models.Envelope
	total int
}

func newRecordingHub() *recordingHub {
	return &recordingHub{sent: make(map[string][]models.Envelope)}
}

func (h *recordingHub) BroadcastToRoom(roomID string, env models.Envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent[roomID] = append(h.sent[roomID], env)
	h.total++
}

func newLedger(t *testing.T) (*storage.LedgerStore, *gorm.DB) {
	t.Helper()
	db, err := storage.OpenDatabase(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "ledger.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.CloseDatabase(db) })
	return storage.NewLedgerStore(db), db
}

func countPreferences(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.PaymentPreference{}).Count(&n).Error)
	return n
}
