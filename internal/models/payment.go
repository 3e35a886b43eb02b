package models

import "time"

// Payment statuses reported by the provider. Other provider-defined values are
// stored verbatim.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

// PaymentPreference is one payment request raised in a room, updated in place
// as the provider reports status changes.
type PaymentPreference struct {
	PreferenceReference  string    `gorm:"primaryKey;type:varchar(191)" json:"preferenceReference"`
	ProviderPreferenceID string    `gorm:"type:varchar(191);index" json:"providerPreferenceId,omitempty"`
	RoomID               string    `gorm:"type:varchar(191);index" json:"room,omitempty"`
	Description          string    `gorm:"type:text" json:"description,omitempty"`
	Amount               float64   `json:"amount"`
	CreatedBy            string    `gorm:"type:varchar(191)" json:"createdBy,omitempty"`
	Status               string    `gorm:"type:varchar(64);not null" json:"status"`
	CheckoutURL          string    `gorm:"type:text" json:"checkoutUrl,omitempty"`
	PaymentID            string    `gorm:"type:varchar(191);index" json:"paymentId,omitempty"`
	PayerEmail           string    `gorm:"type:varchar(320)" json:"payerEmail,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// OrphanPaymentUpdate is a payment status change that matched no preference.
// Kept for manual reconciliation, one row per payment and status.
type OrphanPaymentUpdate struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PaymentID  string    `gorm:"type:varchar(191);not null;uniqueIndex:idx_orphan_payment_status" json:"paymentId"`
	Status     string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_orphan_payment_status" json:"status"`
	PayerEmail string    `gorm:"type:varchar(320)" json:"payerEmail,omitempty"`
	ReceivedAt time.Time `json:"receivedAt"`
}
