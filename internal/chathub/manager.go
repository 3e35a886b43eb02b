package chathub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"regimath/backend/internal/localization"
	"regimath/backend/internal/logger"
	"regimath/backend/internal/models"
	"regimath/backend/internal/storage"

	"github.com/go-playground/validator/v10"
)

// ManagerService is the hub: it tracks live connections and the rooms each
// one joined, and fans room events out to them.
type ManagerService struct {
	clients map[string]Client              // connection id -> client
	rooms   map[string]map[string]Client   // room id -> connection id -> client
	joined  map[string]map[string]struct{} // connection id -> room ids
	mu      sync.RWMutex

	// roomLocks serializes persist and broadcast per room.
	roomLocks sync.Map

	UnregisterCh chan Client
	done         chan struct{}

	History  storage.History
	Index    storage.RoomIndex
	Text     *localization.Localizer
	Payments PaymentRequester

	validate *validator.Validate
	now      func() time.Time
}

func NewManagerService(history storage.History, index storage.RoomIndex, text *localization.Localizer) *ManagerService {
	return &ManagerService{
		clients:      make(map[string]Client),
		rooms:        make(map[string]map[string]Client),
		joined:       make(map[string]map[string]struct{}),
		UnregisterCh: make(chan Client),
		done:         make(chan struct{}),
		History:      history,
		Index:        index,
		Text:         text,
		validate:     validator.New(),
		now:          time.Now,
	}
}

// SetPaymentRequester enables the requestPayment event.
func (m *ManagerService) SetPaymentRequester(p PaymentRequester) {
	m.Payments = p
}

// Run processes unregister requests until ctx is done, then disconnects
// every remaining client.
func (m *ManagerService) Run(ctx context.Context) {
	log := logger.L()
	log.Info().Msg("chat hub started")
	defer close(m.done)

	for {
		select {
		case client := <-m.UnregisterCh:
			m.Unregister(client)

		case <-ctx.Done():
			m.mu.RLock()
			remaining := make([]Client, 0, len(m.clients))
			for _, c := range m.clients {
				remaining = append(remaining, c)
			}
			m.mu.RUnlock()

			for _, c := range remaining {
				m.Unregister(c)
			}
			log.Info().Int("clients", len(remaining)).Msg("chat hub stopped")
			return
		}
	}
}

// Leaving queues client for Unregister. After Run has returned it
// unregisters the client directly.
func (m *ManagerService) Leaving(client Client) {
	select {
	case m.UnregisterCh <- client:
	case <-m.done:
		m.Unregister(client)
	}
}

// Register makes client eligible to join rooms and receive events.
func (m *ManagerService) Register(client Client) {
	m.mu.Lock()
	m.clients[client.GetID()] = client
	m.joined[client.GetID()] = make(map[string]struct{})
	m.mu.Unlock()

	l := logger.L()
	l.Debug().
		Str("client_id", client.GetID()).
		Str(logger.FieldUserID, client.GetIdentity().ID).
		Msg("client registered")
}

// Unregister drops the client from every room, closes it and tells the
// remaining members of each room that it left. Unknown clients are ignored.
func (m *ManagerService) Unregister(client Client) {
	id := client.GetID()

	m.mu.Lock()
	if _, ok := m.clients[id]; !ok {
		m.mu.Unlock()
		return
	}
	left := make([]string, 0, len(m.joined[id]))
	for roomID := range m.joined[id] {
		m.removeFromRoomLocked(roomID, id)
		left = append(left, roomID)
	}
	delete(m.joined, id)
	delete(m.clients, id)
	client.Close()
	m.mu.Unlock()

	for _, roomID := range left {
		m.notifyLeft(roomID, client)
	}

	l := logger.L()
	l.Debug().
		Str("client_id", id).
		Str(logger.FieldUserID, client.GetIdentity().ID).
		Int("rooms", len(left)).
		Msg("client unregistered")
}

// BroadcastToRoom sends env to every connection currently in roomID.
func (m *ManagerService) BroadcastToRoom(roomID string, env models.Envelope) {
	unlock := m.lockRoom(roomID)
	defer unlock()

	m.broadcast(roomID, env, "")
}

// ClientCount returns the number of connections currently in roomID.
func (m *ManagerService) ClientCount(roomID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[roomID])
}

func (m *ManagerService) lockRoom(roomID string) func() {
	v, _ := m.roomLocks.LoadOrStore(roomID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (m *ManagerService) addToRoom(roomID string, client Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := client.GetID()
	if _, ok := m.clients[id]; !ok {
		return false
	}
	if _, ok := m.rooms[roomID]; !ok {
		m.rooms[roomID] = make(map[string]Client)
	}
	m.rooms[roomID][id] = client
	m.joined[id][roomID] = struct{}{}
	return true
}

func (m *ManagerService) inRoom(roomID string, client Client) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rooms[roomID][client.GetID()]
	return ok
}

func (m *ManagerService) removeFromRoomLocked(roomID, clientID string) {
	if members, ok := m.rooms[roomID]; ok {
		delete(members, clientID)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
	if rooms, ok := m.joined[clientID]; ok {
		delete(rooms, roomID)
	}
}

func encode(env models.Envelope) ([]byte, bool) {
	data, err := json.Marshal(env)
	if err != nil {
		l := logger.L()
		l.Error().Err(err).Str("event", env.Event).Msg("failed to encode event")
		return nil, false
	}
	return data, true
}

// broadcast delivers env to the room, skipping the connection excludeID.
func (m *ManagerService) broadcast(roomID string, env models.Envelope, excludeID string) {
	data, ok := encode(env)
	if !ok {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, client := range m.rooms[roomID] {
		if id == excludeID {
			continue
		}
		m.deliverLocked(client, data)
	}
}

// sendTo delivers env to one connection.
func (m *ManagerService) sendTo(client Client, env models.Envelope) {
	data, ok := encode(env)
	if !ok {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.clients[client.GetID()]; ok {
		m.deliverLocked(client, data)
	}
}

// deliverLocked must be called with mu held for reading, so the send
// channel cannot be closed underneath it.
func (m *ManagerService) deliverLocked(client Client, data []byte) {
	select {
	case client.GetSendChannel() <- data:
	default:
		l := logger.L()
		l.Warn().Str("client_id", client.GetID()).Msg("send buffer full, dropping client")
		go m.Unregister(client)
	}
}

func (m *ManagerService) notice(key string, args ...any) models.Envelope {
	return models.Envelope{
		Event: models.EventSystemMessage,
		Data: models.SystemNotice{
			Text: m.Text.Format(key, args...),
			Time: m.now().UnixMilli(),
		},
	}
}

func (m *ManagerService) notifyLeft(roomID string, client Client) {
	m.broadcast(roomID, m.notice(localization.UserLeft, client.GetIdentity().DisplayName()), client.GetID())
}
