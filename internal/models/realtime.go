package models

import "encoding/json"

// Client -> server events.
const (
	EventJoinRoom       = "joinRoom"
	EventLeaveRoom      = "leaveRoom"
	EventChatMessage    = "chatMessage"
	EventRequestPayment = "requestPayment"
)

// Server -> client events.
const (
	EventRoomHistory      = "roomHistory"
	EventSystemMessage    = "systemMessage"
	EventNewMessage       = "newMessage"
	EventPaymentRequest   = "paymentRequest"
	EventPaymentConfirmed = "paymentConfirmed"
)

// Envelope is the frame sent to websocket clients.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Inbound is a frame received from a websocket client. Data is decoded once
// Event is known.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type RoomInput struct {
	Room string `json:"room"`
}

type ChatMessageInput struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

type PaymentRequestInput struct {
	Room        string  `json:"room" validate:"required"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Description string  `json:"description" validate:"max=256"`
}

type RoomHistory struct {
	Room     string    `json:"room"`
	Messages []Message `json:"messages"`
}

type SystemNotice struct {
	Text string `json:"text"`
	Time int64  `json:"time"`
}

// RoomMessage is a chat message delivered live, tagged with its room.
type RoomMessage struct {
	Message
	Room string `json:"room"`
}

type PaymentRequest struct {
	Description         string  `json:"description"`
	Amount              float64 `json:"amount"`
	CheckoutURL         string  `json:"checkoutUrl"`
	PreferenceReference string  `json:"preferenceReference"`
	SenderID            string  `json:"senderId"`
	SenderName          string  `json:"senderName"`
	Time                int64   `json:"time"`
}

type PaymentConfirmed struct {
	PaymentID           string  `json:"paymentId"`
	PreferenceReference string  `json:"preferenceReference"`
	Amount              float64 `json:"amount"`
	Payer               string  `json:"payer"`
	Status              string  `json:"status"`
	Time                int64   `json:"time"`
}
