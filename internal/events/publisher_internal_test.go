package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublishing(t *testing.T) {
	env := NewEnvelope(PaymentConfirmedV1, "req-1", PaymentConfirmed{
		PaymentID: "99",
		RoomID:    "chat_12-7",
		Amount:    50,
		Status:    "approved",
	})

	p, err := newPublishing(env)
	require.NoError(t, err)

	assert.Equal(t, "application/json", p.ContentType)
	assert.Equal(t, amqp091.Persistent, p.DeliveryMode)
	assert.Equal(t, env.Meta.ID, p.MessageId)
	assert.Equal(t, "req-1", p.CorrelationId)
	assert.Equal(t, PaymentConfirmedV1, p.Type)

	var decoded struct {
		Meta Meta             `json:"meta"`
		Data PaymentConfirmed `json:"data"`
	}
	require.NoError(t, json.Unmarshal(p.Body, &decoded))
	assert.Equal(t, "99", decoded.Data.PaymentID)
	assert.Equal(t, Producer, decoded.Meta.Producer)
}

func TestNewEnvelope_WithoutCorrelation(t *testing.T) {
	env := NewEnvelope(PaymentConfirmedV1, "", nil)
	assert.Nil(t, env.Meta.CorrelationID)
	assert.NotEmpty(t, env.Meta.ID)
	assert.False(t, env.Meta.Time.IsZero())
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), PaymentConfirmedV1, Envelope{}))
	assert.NoError(t, p.Close())
}

func TestNewPublishing_UnencodableData(t *testing.T) {
	_, err := newPublishing(Envelope{Data: make(chan int)})
	assert.Error(t, err)
}
