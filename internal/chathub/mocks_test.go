package chathub_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"regimath/backend/internal/models"
	"regimath/backend/internal/payment"
	"regimath/backend/internal/session"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockClient struct {
	id       string
	identity session.Identity
	send     chan []byte
	once     sync.Once
}

func newMockClient(connID, userID, name string) *MockClient {
	return &MockClient{
		id:       connID,
		identity: session.Identity{ID: userID, Name: name},
		send:     make(chan []byte, 16),
	}
}

func (c *MockClient) GetID() string                 { return c.id }
func (c *MockClient) GetIdentity() session.Identity { return c.identity }
func (c *MockClient) GetSendChannel() chan<- []byte { return c.send }
func (c *MockClient) Run()                          {}
func (c *MockClient) Close()                        { c.once.Do(func() { close(c.send) }) }

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (c *MockClient) next(t *testing.T) frame {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var f frame
		require.NoError(t, json.Unmarshal(raw, &f))
		return f
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.id)
		return frame{}
	}
}

func (c *MockClient) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		if ok {
			t.Fatalf("client %s got unexpected frame %s", c.id, raw)
		}
	default:
	}
}

func (c *MockClient) closed() bool {
	select {
	case _, ok := <-c.send:
		return !ok
	default:
		return false
	}
}

type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) Append(ctx context.Context, roomID string, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, roomID, msg)
	return args.Get(0).(models.Message), args.Error(1)
}

func (m *MockHistory) HistoryOf(ctx context.Context, roomID string) ([]models.Message, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockHistory) AllRooms(ctx context.Context) (map[string][]models.Message, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string][]models.Message), args.Error(1)
}

type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) Track(ctx context.Context, roomID string, identities ...string) error {
	args := m.Called(ctx, roomID, identities)
	return args.Error(0)
}

func (m *MockIndex) RoomsOf(ctx context.Context, identity string) ([]string, error) {
	args := m.Called(ctx, identity)
	return args.Get(0).([]string), args.Error(1)
}

type MockPayments struct {
	mock.Mock
}

func (m *MockPayments) RequestPayment(ctx context.Context, req payment.Request) (models.PaymentRequest, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.PaymentRequest), args.Error(1)
}
