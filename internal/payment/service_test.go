package payment_test

import (
	"context"
	"errors"
	"testing"

	"regimath/backend/internal/models"
	"regimath/backend/internal/payment"
	"regimath/backend/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testRoom = "chat_12-7"

var tutor = session.Identity{ID: "7", Name: "Ana"}

func TestService_RequestPayment(t *testing.T) {
	ctx := context.Background()
	provider := new(MockProvider)
	ledger, _ := newLedger(t)
	svc := payment.NewService(provider, ledger, "https://regimath.example/")

	var sent payment.PreferenceRequest
	provider.On("CreatePreference", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(payment.PreferenceRequest) }).
		Return(payment.Preference{ProviderID: "mp-1", CheckoutURL: "https://mp.example/checkout/1"}, nil)

	evt, err := svc.RequestPayment(ctx, payment.Request{Room: testRoom, Amount: 50, Description: "Aula de cálculo", Requester: tutor})
	require.NoError(t, err)

	assert.Equal(t, "https://mp.example/checkout/1", evt.CheckoutURL)
	assert.Equal(t, 50.0, evt.Amount)
	assert.Equal(t, "Aula de cálculo", evt.Description)
	assert.Equal(t, "7", evt.SenderID)
	assert.Equal(t, "Ana", evt.SenderName)
	assert.NotZero(t, evt.Time)
	require.NotEmpty(t, evt.PreferenceReference)

	assert.Equal(t, evt.PreferenceReference, sent.Reference)
	assert.Equal(t, testRoom, sent.Room)
	assert.Equal(t, "7", sent.CreatedBy)
	assert.Equal(t, "BRL", sent.Currency)
	assert.Equal(t, "https://regimath.example/pagamento/sucesso?room=chat_12-7", sent.SuccessURL)
	assert.Equal(t, "https://regimath.example/pagamento/erro?room=chat_12-7", sent.FailureURL)
	assert.Equal(t, "https://regimath.example/pagamento/pendente?room=chat_12-7", sent.PendingURL)
	assert.Equal(t, "https://regimath.example/webhook/payments", sent.NotificationURL)

	rec, err := ledger.GetByPreferenceReference(ctx, evt.PreferenceReference)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.PaymentStatusPending, rec.Status)
	assert.Equal(t, testRoom, rec.RoomID)
	assert.Equal(t, "mp-1", rec.ProviderPreferenceID)
	assert.Equal(t, 50.0, rec.Amount)
}

func TestService_DefaultDescription(t *testing.T) {
	provider := new(MockProvider)
	ledger, _ := newLedger(t)
	svc := payment.NewService(provider, ledger, "http://localhost:3001")

	provider.On("CreatePreference", mock.Anything, mock.MatchedBy(func(r payment.PreferenceRequest) bool {
		return r.Description == "Pagamento Regimath"
	})).Return(payment.Preference{ProviderID: "mp-1", CheckoutURL: "https://mp.example/c"}, nil)

	evt, err := svc.RequestPayment(context.Background(), payment.Request{Room: testRoom, Amount: 10, Description: "  ", Requester: tutor})
	require.NoError(t, err)
	assert.Equal(t, "Pagamento Regimath", evt.Description)
	provider.AssertExpectations(t)
}

func TestService_Failures(t *testing.T) {
	ctx := context.Background()
	req := payment.Request{Room: testRoom, Amount: 50, Requester: tutor}

	t.Run("not configured", func(t *testing.T) {
		ledger, _ := newLedger(t)
		_, err := payment.NewService(nil, ledger, "http://x").RequestPayment(ctx, req)
		assert.ErrorIs(t, err, payment.ErrNotConfigured)
	})

	t.Run("provider error", func(t *testing.T) {
		provider := new(MockProvider)
		ledger, db := newLedger(t)
		provider.On("CreatePreference", mock.Anything, mock.Anything).Return(payment.Preference{}, errors.New("timeout"))

		_, err := payment.NewService(provider, ledger, "http://x").RequestPayment(ctx, req)
		assert.Error(t, err)
		assert.Zero(t, countPreferences(t, db))
	})

	t.Run("no checkout url", func(t *testing.T) {
		provider := new(MockProvider)
		ledger, db := newLedger(t)
		provider.On("CreatePreference", mock.Anything, mock.Anything).Return(payment.Preference{ProviderID: "mp-1"}, nil)

		_, err := payment.NewService(provider, ledger, "http://x").RequestPayment(ctx, req)
		assert.ErrorIs(t, err, payment.ErrNoCheckoutURL)
		assert.Zero(t, countPreferences(t, db))
	})
}
