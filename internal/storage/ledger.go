package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"regimath/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Update is a change reported for a payment. The concrete kinds are
// StatusOnly, StatusWithPayment and StatusWithPayer.
type Update interface {
	paymentID() string
	apply(p *models.PaymentPreference)
}

// StatusOnly replaces the status.
type StatusOnly struct {
	Status string
}

// StatusWithPayment replaces the status and records the provider payment id.
type StatusWithPayment struct {
	Status    string
	PaymentID string
}

// StatusWithPayer is StatusWithPayment plus the payer's email.
type StatusWithPayer struct {
	Status     string
	PaymentID  string
	PayerEmail string
}

func (u StatusOnly) paymentID() string { return "" }

func (u StatusOnly) apply(p *models.PaymentPreference) {
	p.Status = u.Status
}

func (u StatusWithPayment) paymentID() string { return u.PaymentID }

func (u StatusWithPayment) apply(p *models.PaymentPreference) {
	p.Status = u.Status
	if u.PaymentID != "" {
		p.PaymentID = u.PaymentID
	}
}

func (u StatusWithPayer) paymentID() string { return u.PaymentID }

func (u StatusWithPayer) apply(p *models.PaymentPreference) {
	p.Status = u.Status
	if u.PaymentID != "" {
		p.PaymentID = u.PaymentID
	}
	if u.PayerEmail != "" {
		p.PayerEmail = u.PayerEmail
	}
}

func payerOf(u Update) string {
	if p, ok := u.(StatusWithPayer); ok {
		return p.PayerEmail
	}
	return ""
}

func statusOf(u Update) string {
	var p models.PaymentPreference
	u.apply(&p)
	return p.Status
}

// LedgerStore keeps payment preferences in the payment_preferences table.
// Writes are serialized.
type LedgerStore struct {
	DB *gorm.DB

	mu sync.Mutex
}

func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{DB: db}
}

// CreatePreference inserts a new record.
func (s *LedgerStore) CreatePreference(ctx context.Context, rec *models.PaymentPreference) error {
	if rec.PreferenceReference == "" {
		return ErrEmptyReference
	}
	if rec.Status == "" {
		rec.Status = models.PaymentStatusPending
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create preference %s: %w", rec.PreferenceReference, err)
	}
	return nil
}

// UpdateByPreferenceReference merges u into the record for ref and reports
// whether one existed. Without a match, a minimal record is created when u
// carries a payment id; otherwise nothing is written.
func (s *LedgerStore) UpdateByPreferenceReference(ctx context.Context, ref string, u Update) (bool, error) {
	if ref == "" {
		return false, ErrEmptyReference
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.PaymentPreference
		err := tx.Where("preference_reference = ?", ref).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if u.paymentID() == "" {
				return nil
			}
			rec = models.PaymentPreference{PreferenceReference: ref}
			u.apply(&rec)
			return tx.Create(&rec).Error
		}
		if err != nil {
			return err
		}

		found = true
		u.apply(&rec)
		rec.UpdatedAt = time.Now()
		return tx.Save(&rec).Error
	})
	if err != nil {
		return false, fmt.Errorf("update preference %s: %w", ref, err)
	}
	return found, nil
}

// UpdateByPaymentID merges u into the record holding paymentID. Without a
// match the update is kept as an orphan for reconciliation; a repeated
// status for the same payment refreshes the existing orphan.
func (s *LedgerStore) UpdateByPaymentID(ctx context.Context, paymentID string, u Update) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.PaymentPreference
		err := tx.Where("payment_id = ?", paymentID).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			refresh := []string{"received_at"}
			if payerOf(u) != "" {
				refresh = append(refresh, "payer_email")
			}
			return tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "payment_id"}, {Name: "status"}},
				DoUpdates: clause.AssignmentColumns(refresh),
			}).Create(&models.OrphanPaymentUpdate{
				PaymentID:  paymentID,
				Status:     statusOf(u),
				PayerEmail: payerOf(u),
				ReceivedAt: time.Now(),
			}).Error
		}
		if err != nil {
			return err
		}

		found = true
		u.apply(&rec)
		rec.UpdatedAt = time.Now()
		return tx.Save(&rec).Error
	})
	if err != nil {
		return false, fmt.Errorf("update payment %s: %w", paymentID, err)
	}
	return found, nil
}

// GetByPreferenceReference returns nil, nil when no record exists.
func (s *LedgerStore) GetByPreferenceReference(ctx context.Context, ref string) (*models.PaymentPreference, error) {
	var rec models.PaymentPreference
	err := s.DB.WithContext(ctx).Where("preference_reference = ?", ref).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preference %s: %w", ref, err)
	}
	return &rec, nil
}

// ListOrphans returns unmatched payment updates, oldest first.
func (s *LedgerStore) ListOrphans(ctx context.Context) ([]models.OrphanPaymentUpdate, error) {
	var orphans []models.OrphanPaymentUpdate
	if err := s.DB.WithContext(ctx).Order("id asc").Find(&orphans).Error; err != nil {
		return nil, fmt.Errorf("list orphan payments: %w", err)
	}
	return orphans, nil
}
