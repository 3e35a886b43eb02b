// Package payment creates checkout links for payment requests raised in chat
// rooms and relays provider status notifications back into those rooms.
package payment

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured   = errors.New("payment: provider not configured")
	ErrNoCheckoutURL   = errors.New("payment: provider returned no checkout url")
	ErrPaymentNotFound = errors.New("payment: payment not found")
)

// PreferenceRequest describes a checkout to create with the provider.
type PreferenceRequest struct {
	// Reference is echoed back by the provider as the payment's external
	// reference.
	Reference   string
	Room        string
	CreatedBy   string
	Description string
	Amount      float64
	Currency    string

	SuccessURL      string
	FailureURL      string
	PendingURL      string
	NotificationURL string
}

// Preference is a checkout created by the provider.
type Preference struct {
	ProviderID  string
	CheckoutURL string
}

// Payment is the provider's view of a payment.
type Payment struct {
	ID                  string
	Status              string
	Amount              float64
	PreferenceReference string
	// Room comes from the metadata attached at preference creation. It is
	// not trusted until validated.
	Room       string
	PayerEmail string
}

// Provider is the payment collaborator.
type Provider interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (Preference, error)
	GetPayment(ctx context.Context, id string) (Payment, error)
}
