package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/mperror"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	mppreference "github.com/mercadopago/sdk-go/pkg/preference"
)

const (
	metadataRoom      = "room"
	metadataCreatedBy = "created_by"
)

// MercadoPago is the Provider backed by the Mercado Pago API.
type MercadoPago struct {
	preferences mppreference.Client
	payments    mppayment.Client
	sandbox     bool
}

// NewMercadoPago builds a client for accessToken. In sandbox mode checkout
// links point to the sandbox.
func NewMercadoPago(accessToken string, sandbox bool) (*MercadoPago, error) {
	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("configure mercadopago: %w", err)
	}
	return &MercadoPago{
		preferences: mppreference.NewClient(cfg),
		payments:    mppayment.NewClient(cfg),
		sandbox:     sandbox,
	}, nil
}

func (mp *MercadoPago) CreatePreference(ctx context.Context, req PreferenceRequest) (Preference, error) {
	res, err := mp.preferences.Create(ctx, mppreference.Request{
		Items: []mppreference.ItemRequest{{
			Title:      req.Description,
			Quantity:   1,
			CurrencyID: req.Currency,
			UnitPrice:  req.Amount,
		}},
		BackURLs: &mppreference.BackURLsRequest{
			Success: req.SuccessURL,
			Failure: req.FailureURL,
			Pending: req.PendingURL,
		},
		AutoReturn:        "approved",
		NotificationURL:   req.NotificationURL,
		ExternalReference: req.Reference,
		Metadata: map[string]any{
			metadataRoom:      req.Room,
			metadataCreatedBy: req.CreatedBy,
		},
	})
	if err != nil {
		return Preference{}, fmt.Errorf("create mercadopago preference: %w", err)
	}

	checkout := res.InitPoint
	if mp.sandbox {
		checkout = res.SandboxInitPoint
	}
	return Preference{ProviderID: res.ID, CheckoutURL: checkout}, nil
}

func (mp *MercadoPago) GetPayment(ctx context.Context, id string) (Payment, error) {
	numericID, err := strconv.Atoi(id)
	if err != nil {
		return Payment{}, fmt.Errorf("%w: invalid id %q", ErrPaymentNotFound, id)
	}

	res, err := mp.payments.Get(ctx, numericID)
	if err != nil {
		var resErr *mperror.ResponseError
		if errors.As(err, &resErr) && resErr.StatusCode == http.StatusNotFound {
			return Payment{}, fmt.Errorf("%w: mercadopago payment %s", ErrPaymentNotFound, id)
		}
		return Payment{}, fmt.Errorf("get mercadopago payment %s: %w", id, err)
	}

	p := Payment{
		ID:                  strconv.Itoa(res.ID),
		Status:              res.Status,
		Amount:              res.TransactionAmount,
		PreferenceReference: res.ExternalReference,
		PayerEmail:          res.Payer.Email,
	}
	if roomID, ok := res.Metadata[metadataRoom].(string); ok {
		p.Room = roomID
	}
	return p, nil
}
