// Package events publishes domain events to downstream consumers.
package events

import (
	"time"

	"github.com/google/uuid"
)

const Producer = "regimath-backend"

// Event types.
const (
	PaymentConfirmedV1 = "payments.confirmed.v1"
)

type Meta struct {
	// Unique event id
	ID string `json:"id"`
	// Event name and version, e.g. payments.confirmed.v1
	Type string `json:"type"`
	// Request correlation id, when the event was caused by a request
	CorrelationID *string   `json:"correlation_id,omitempty"`
	Producer      string    `json:"producer"`
	Time          time.Time `json:"time"`
}

type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// NewEnvelope wraps data as an event of the given type. correlationID may be
// empty.
func NewEnvelope(eventType, correlationID string, data any) Envelope {
	meta := Meta{
		ID:       uuid.NewString(),
		Type:     eventType,
		Producer: Producer,
		Time:     time.Now().UTC(),
	}
	if correlationID != "" {
		meta.CorrelationID = &correlationID
	}
	return Envelope{Meta: meta, Data: data}
}

// PaymentConfirmed is the payload of PaymentConfirmedV1.
type PaymentConfirmed struct {
	PaymentID           string  `json:"payment_id"`
	PreferenceReference string  `json:"preference_reference,omitempty"`
	RoomID              string  `json:"room_id"`
	Amount              float64 `json:"amount"`
	PayerEmail          string  `json:"payer_email,omitempty"`
	Status              string  `json:"status"`
}
