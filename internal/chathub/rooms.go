package chathub

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"regimath/backend/internal/localization"
	"regimath/backend/internal/logger"
	"regimath/backend/internal/models"
	"regimath/backend/internal/payment"
	"regimath/backend/internal/room"
)

// PaymentRequester creates checkout links for payment requests raised in a room.
type PaymentRequester interface {
	RequestPayment(ctx context.Context, req payment.Request) (models.PaymentRequest, error)
}

var htmlEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// HandleInbound decodes one client frame and dispatches it. Malformed frames
// and unknown events are dropped.
func (m *ManagerService) HandleInbound(ctx context.Context, client Client, raw []byte) {
	log := logger.Ctx(ctx).With().Str("client_id", client.GetID()).Logger()

	var in models.Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		log.Debug().Err(err).Msg("dropping malformed frame")
		return
	}

	switch in.Event {
	case models.EventJoinRoom:
		var data models.RoomInput
		if decode(in, &data) {
			m.JoinRoom(ctx, client, data.Room)
		}
	case models.EventLeaveRoom:
		var data models.RoomInput
		if decode(in, &data) {
			m.Leave(client, data.Room)
		}
	case models.EventChatMessage:
		var data models.ChatMessageInput
		if decode(in, &data) {
			m.SendMessage(ctx, client, data.Room, data.Text)
		}
	case models.EventRequestPayment:
		var data models.PaymentRequestInput
		if decode(in, &data) {
			m.RequestPayment(ctx, client, data)
		}
	default:
		log.Debug().Str("event", in.Event).Msg("dropping unknown event")
	}
}

func decode(in models.Inbound, v any) bool {
	if len(in.Data) == 0 {
		return false
	}
	return json.Unmarshal(in.Data, v) == nil
}

// JoinRoom adds the client to roomID, replays the room history to it alone
// and announces it to the others. Non-members and repeated joins are ignored
// without a reply.
func (m *ManagerService) JoinRoom(ctx context.Context, client Client, roomID string) {
	identity := client.GetIdentity()
	log := logger.Ctx(ctx).With().
		Str(logger.FieldRoomID, roomID).
		Str(logger.FieldUserID, identity.ID).
		Logger()

	if !room.IsMember(roomID, identity.ID) {
		log.Warn().Msg("unauthorized join attempt")
		return
	}

	unlock := m.lockRoom(roomID)
	defer unlock()

	if m.inRoom(roomID, client) {
		log.Debug().Msg("client already in room")
		return
	}

	history, err := m.History.HistoryOf(ctx, roomID)
	if err != nil {
		log.Error().Err(err).Msg("failed to load room history")
		history = []models.Message{}
	}

	if !m.addToRoom(roomID, client) {
		return
	}

	m.sendTo(client, models.Envelope{
		Event: models.EventRoomHistory,
		Data:  models.RoomHistory{Room: roomID, Messages: history},
	})
	m.broadcast(roomID, m.notice(localization.UserJoined, identity.DisplayName()), client.GetID())

	if roomID != room.Global && m.Index != nil {
		if err := m.Index.Track(ctx, roomID, identity.ID); err != nil {
			log.Warn().Err(err).Msg("failed to index room")
		}
	}

	log.Info().Msg("client joined room")
}

// Leave removes the client from roomID and tells the remaining members.
func (m *ManagerService) Leave(client Client, roomID string) {
	m.mu.Lock()
	if !m.memberLocked(roomID, client.GetID()) {
		m.mu.Unlock()
		return
	}
	m.removeFromRoomLocked(roomID, client.GetID())
	m.mu.Unlock()

	m.notifyLeft(roomID, client)
}

func (m *ManagerService) memberLocked(roomID, clientID string) bool {
	_, ok := m.rooms[roomID][clientID]
	return ok
}

// SendMessage stores text as a message from the client's identity and
// broadcasts it to the whole room, sender included. Non-members are ignored.
// A message that could not be stored is not broadcast.
func (m *ManagerService) SendMessage(ctx context.Context, client Client, roomID, text string) {
	identity := client.GetIdentity()
	log := logger.Ctx(ctx).With().
		Str(logger.FieldRoomID, roomID).
		Str(logger.FieldUserID, identity.ID).
		Logger()

	if !room.IsMember(roomID, identity.ID) {
		log.Warn().Msg("unauthorized message dropped")
		return
	}

	msg := models.Message{
		SenderID:   identity.ID,
		SenderName: identity.DisplayName(),
		Text:       htmlEscaper.Replace(text),
		Time:       m.now().UnixMilli(),
	}

	unlock := m.lockRoom(roomID)
	defer unlock()

	stored, err := m.History.Append(ctx, roomID, msg)
	if err != nil {
		log.Error().Err(err).Msg("failed to store message")
		return
	}

	m.broadcast(roomID, models.Envelope{
		Event: models.EventNewMessage,
		Data:  models.RoomMessage{Message: stored, Room: roomID},
	}, "")

	if m.Index != nil {
		if members, _ := room.Members(roomID); len(members) > 0 {
			if err := m.Index.Track(ctx, roomID, members...); err != nil {
				log.Warn().Err(err).Msg("failed to index room")
			}
		}
	}
}

// RequestPayment asks the payment service for a checkout link and
// broadcasts it to the room. Validation and provider failures are reported
// to the requester only.
func (m *ManagerService) RequestPayment(ctx context.Context, client Client, in models.PaymentRequestInput) {
	identity := client.GetIdentity()
	log := logger.Ctx(ctx).With().
		Str(logger.FieldRoomID, in.Room).
		Str(logger.FieldUserID, identity.ID).
		Logger()

	if err := m.validate.Struct(in); err != nil {
		m.sendTo(client, m.notice(localization.PaymentInvalid))
		return
	}
	if !room.IsMember(in.Room, identity.ID) {
		log.Warn().Msg("unauthorized payment request dropped")
		return
	}
	if m.Payments == nil {
		m.sendTo(client, m.notice(localization.PaymentNotConfigured))
		return
	}

	req, err := m.Payments.RequestPayment(ctx, payment.Request{
		Room:        in.Room,
		Amount:      in.Amount,
		Description: in.Description,
		Requester:   identity,
	})
	if errors.Is(err, payment.ErrNotConfigured) {
		m.sendTo(client, m.notice(localization.PaymentNotConfigured))
		return
	}
	if err != nil {
		log.Error().Err(err).Float64("amount", in.Amount).Msg("failed to create payment request")
		m.sendTo(client, m.notice(localization.PaymentFailed))
		return
	}

	m.BroadcastToRoom(in.Room, models.Envelope{Event: models.EventPaymentRequest, Data: req})
}
