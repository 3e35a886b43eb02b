package payment

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/mercadopago/sdk-go/pkg/mperror"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPayments struct {
	mppayment.Client
	res *mppayment.Response
	err error
}

func (s stubPayments) Get(context.Context, int) (*mppayment.Response, error) {
	return s.res, s.err
}

func TestMercadoPago_GetPayment(t *testing.T) {
	res := &mppayment.Response{
		ID:                42,
		Status:            "approved",
		TransactionAmount: 50,
		ExternalReference: "ref-1",
		Metadata:          map[string]any{metadataRoom: "chat_12-7"},
	}
	res.Payer.Email = "aluno@example.com"

	mp := &MercadoPago{payments: stubPayments{res: res}}
	p, err := mp.GetPayment(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, Payment{
		ID:                  "42",
		Status:              "approved",
		Amount:              50,
		PreferenceReference: "ref-1",
		PayerEmail:          "aluno@example.com",
		Room:                "chat_12-7",
	}, p)
}

func TestMercadoPago_GetPaymentErrors(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		err      error
		notFound bool
	}{
		{"non numeric id", "abc", nil, true},
		{"provider 404", "42", &mperror.ResponseError{StatusCode: http.StatusNotFound, Message: "not found"}, true},
		{"provider 500", "42", &mperror.ResponseError{StatusCode: http.StatusInternalServerError}, false},
		{"transport", "42", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mp := &MercadoPago{payments: stubPayments{err: tt.err}}

			_, err := mp.GetPayment(context.Background(), tt.id)
			require.Error(t, err)
			assert.Equal(t, tt.notFound, errors.Is(err, ErrPaymentNotFound))
		})
	}
}
