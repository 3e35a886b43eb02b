package payment

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"regimath/backend/internal/config"
	"regimath/backend/internal/logger"
	"regimath/backend/internal/models"
	"regimath/backend/internal/session"
	"regimath/backend/internal/storage"

	"github.com/google/uuid"
)

// WebhookPath is where the provider posts status notifications.
const WebhookPath = "/webhook/payments"

// Request is a payment request raised by a room member.
type Request struct {
	Room        string
	Amount      float64
	Description string
	Requester   session.Identity
}

// Service creates checkout links and records them in the ledger.
type Service struct {
	Provider Provider
	Ledger   storage.Ledger
	SiteURL  string

	now func() time.Time
}

// NewService returns a Service. A nil provider makes every request fail with
// ErrNotConfigured.
func NewService(provider Provider, ledger storage.Ledger, siteURL string) *Service {
	return &Service{
		Provider: provider,
		Ledger:   ledger,
		SiteURL:  strings.TrimRight(siteURL, "/"),
		now:      time.Now,
	}
}

// RequestPayment creates a provider preference for req and returns the
// event to broadcast into the room. The caller is responsible for room
// membership.
func (s *Service) RequestPayment(ctx context.Context, req Request) (models.PaymentRequest, error) {
	if s.Provider == nil {
		return models.PaymentRequest{}, ErrNotConfigured
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = config.DefaultPaymentDescription
	}
	reference := uuid.NewString()
	room := url.QueryEscape(req.Room)

	pref, err := s.Provider.CreatePreference(ctx, PreferenceRequest{
		Reference:       reference,
		Room:            req.Room,
		CreatedBy:       req.Requester.ID,
		Description:     description,
		Amount:          req.Amount,
		Currency:        config.PaymentCurrency,
		SuccessURL:      s.SiteURL + "/pagamento/sucesso?room=" + room,
		FailureURL:      s.SiteURL + "/pagamento/erro?room=" + room,
		PendingURL:      s.SiteURL + "/pagamento/pendente?room=" + room,
		NotificationURL: s.SiteURL + WebhookPath,
	})
	if err != nil {
		return models.PaymentRequest{}, err
	}
	if pref.CheckoutURL == "" {
		return models.PaymentRequest{}, fmt.Errorf("preference %s: %w", pref.ProviderID, ErrNoCheckoutURL)
	}

	log := logger.Ctx(ctx).With().
		Str(logger.FieldRoomID, req.Room).
		Str("preference_reference", reference).
		Logger()

	if err := s.Ledger.CreatePreference(ctx, &models.PaymentPreference{
		PreferenceReference:  reference,
		ProviderPreferenceID: pref.ProviderID,
		RoomID:               req.Room,
		Description:          description,
		Amount:               req.Amount,
		CreatedBy:            req.Requester.ID,
		Status:               models.PaymentStatusPending,
		CheckoutURL:          pref.CheckoutURL,
	}); err != nil {
		// The relay can still route through the payment metadata.
		log.Error().Err(err).Msg("failed to record payment preference")
	} else {
		log.Info().Float64("amount", req.Amount).Msg("payment preference created")
	}

	return models.PaymentRequest{
		Description:         description,
		Amount:              req.Amount,
		CheckoutURL:         pref.CheckoutURL,
		PreferenceReference: reference,
		SenderID:            req.Requester.ID,
		SenderName:          req.Requester.DisplayName(),
		Time:                s.now().UnixMilli(),
	}, nil
}
