package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"regimath/backend/internal/events"
	"regimath/backend/internal/logger"
	"regimath/backend/internal/models"
	"regimath/backend/internal/room"
	"regimath/backend/internal/storage"

	"golang.org/x/sync/singleflight"
)

// NotificationTypePayment is the only notification type the relay acts on.
const NotificationTypePayment = "payment"

var ErrInvalidNotification = errors.New("payment: invalid notification")

// Broadcaster delivers an event to the live connections of one room.
type Broadcaster interface {
	BroadcastToRoom(roomID string, env models.Envelope)
}

// Alerter tells operators about a confirmed payment that could not be routed
// to a room.
type Alerter interface {
	UnroutablePayment(ctx context.Context, p Payment) error
}

// Notification is a provider webhook reduced to what the relay needs.
type Notification struct {
	Type      string
	PaymentID string
}

// Result reports what the relay did with a notification.
type Result struct {
	Ignored bool
	Status  string
	Room    string
	Routed  bool
}

// Relay looks up notified payments, records their status in the ledger and
// announces approved ones in the room they were requested from.
type Relay struct {
	Provider Provider
	Ledger   storage.Ledger
	Hub      Broadcaster
	Alerts   Alerter
	Events   events.Publisher

	// UnknownPayer is shown when the provider reports no payer email.
	UnknownPayer string

	group singleflight.Group
	now   func() time.Time
}

func NewRelay(provider Provider, ledger storage.Ledger, hub Broadcaster) *Relay {
	return &Relay{
		Provider: provider,
		Ledger:   ledger,
		Hub:      hub,
		Events:   events.Nop{},
		now:      time.Now,
	}
}

// HandleNotification processes one webhook. Concurrent notifications for the
// same payment share a single lookup. Returned errors are worth a provider
// retry; everything else is acknowledged.
func (r *Relay) HandleNotification(ctx context.Context, n Notification) (Result, error) {
	if n.Type != NotificationTypePayment {
		return Result{Ignored: true}, nil
	}
	if n.PaymentID == "" {
		return Result{}, ErrInvalidNotification
	}
	if r.Provider == nil {
		return Result{}, ErrNotConfigured
	}

	v, err, _ := r.group.Do(n.PaymentID, func() (any, error) {
		return r.process(ctx, n.PaymentID)
	})
	res, _ := v.(Result)
	return res, err
}

func (r *Relay) process(ctx context.Context, paymentID string) (Result, error) {
	log := logger.Ctx(ctx).With().Str(logger.FieldPaymentID, paymentID).Logger()

	p, err := r.Provider.GetPayment(ctx, paymentID)
	if err != nil {
		return Result{}, fmt.Errorf("look up payment %s: %w", paymentID, err)
	}
	if p.ID == "" {
		p.ID = paymentID
	}
	res := Result{Status: p.Status}

	if p.Status == models.PaymentStatusApproved {
		res.Room = r.resolveRoom(ctx, p)
	}

	ledgerErr := r.record(ctx, p)
	if ledgerErr != nil {
		log.Error().Err(ledgerErr).Str("status", p.Status).Msg("failed to record payment status")
	}

	if p.Status != models.PaymentStatusApproved {
		log.Info().Str("status", p.Status).Msg("payment status recorded")
		return res, ledgerErr
	}

	if res.Room == "" {
		log.Warn().
			Str("preference_reference", p.PreferenceReference).
			Msg("approved payment has no room, not broadcasting")
		if r.Alerts != nil {
			if err := r.Alerts.UnroutablePayment(ctx, p); err != nil {
				log.Error().Err(err).Msg("failed to alert operators")
			}
		}
		return res, ledgerErr
	}

	payer := p.PayerEmail
	if payer == "" {
		payer = r.UnknownPayer
	}
	r.Hub.BroadcastToRoom(res.Room, models.Envelope{
		Event: models.EventPaymentConfirmed,
		Data: models.PaymentConfirmed{
			PaymentID:           p.ID,
			PreferenceReference: p.PreferenceReference,
			Amount:              p.Amount,
			Payer:               payer,
			Status:              p.Status,
			Time:                r.now().UnixMilli(),
		},
	})
	res.Routed = true
	log.Info().Str(logger.FieldRoomID, res.Room).Msg("payment confirmed in room")

	r.publish(ctx, p, res.Room)
	return res, ledgerErr
}

// resolveRoom prefers the room attached to the payment and falls back to the
// ledger record of its preference.
func (r *Relay) resolveRoom(ctx context.Context, p Payment) string {
	if p.Room != "" && room.Valid(p.Room) {
		return p.Room
	}
	if p.PreferenceReference == "" {
		return ""
	}

	rec, err := r.Ledger.GetByPreferenceReference(ctx, p.PreferenceReference)
	if err != nil {
		l := logger.Ctx(ctx)
		l.Error().Err(err).Str(logger.FieldPaymentID, p.ID).Msg("failed to read ledger")
		return ""
	}
	if rec == nil || !room.Valid(rec.RoomID) {
		return ""
	}
	return rec.RoomID
}

func (r *Relay) record(ctx context.Context, p Payment) error {
	var update storage.Update = storage.StatusWithPayment{Status: p.Status, PaymentID: p.ID}
	if p.PayerEmail != "" {
		update = storage.StatusWithPayer{Status: p.Status, PaymentID: p.ID, PayerEmail: p.PayerEmail}
	}

	if p.PreferenceReference != "" {
		_, err := r.Ledger.UpdateByPreferenceReference(ctx, p.PreferenceReference, update)
		return err
	}
	_, err := r.Ledger.UpdateByPaymentID(ctx, p.ID, update)
	return err
}

func (r *Relay) publish(ctx context.Context, p Payment, roomID string) {
	if r.Events == nil {
		return
	}
	env := events.NewEnvelope(events.PaymentConfirmedV1, logger.RequestID(ctx), events.PaymentConfirmed{
		PaymentID:           p.ID,
		PreferenceReference: p.PreferenceReference,
		RoomID:              roomID,
		Amount:              p.Amount,
		PayerEmail:          p.PayerEmail,
		Status:              p.Status,
	})
	if err := r.Events.Publish(ctx, events.PaymentConfirmedV1, env); err != nil {
		l := logger.Ctx(ctx)
		l.Warn().Err(err).Str(logger.FieldPaymentID, p.ID).Msg("failed to publish payment event")
	}
}
