// billing/numbering.go
//
// Per-user invoice number allocation. Each user has a single Settings row
// carrying (invoice_prefix, next_invoice_number); the allocator is the only
// writer of the counter. Numbers are never reused, even when the invoice
// that consumed one is later deleted, and gaps from failed requests are
// accepted. Uniqueness per user is the hard requirement.
package billing

import (
	"errors"
	"fmt"

	"invoicepilot-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultInvoicePrefix     = "INV-"
	DefaultNextInvoiceNumber = 1001

	// Minimum number width. Sequences of five or more digits extend the
	// width naturally; padding never truncates.
	numberPadWidth = 4
)

// ErrAllocationConflict means two concurrent allocations raced on the
// counter and the retry also lost. Transient; the caller should ask the
// user to try again.
var ErrAllocationConflict = errors.New("invoice number allocation conflict")

// SettingsStore is the narrow persistence surface the allocator needs. The
// atomicity of the whole allocate operation reduces to ReserveNumber being
// atomic at the storage layer.
type SettingsStore interface {
	// GetSettings returns the user's settings row, or (nil, nil) when the
	// user has none yet.
	GetSettings(userID uuid.UUID) (*models.Settings, error)
	CreateSettings(s *models.Settings) error
	// ReserveNumber atomically returns the user's current counter value and
	// advances the stored counter by one. Implementations backed by
	// optimistic concurrency return ErrAllocationConflict when they lose a
	// race; the allocator retries once.
	ReserveNumber(userID uuid.UUID) (prefix string, seq int64, err error)
}

type Allocator struct {
	store SettingsStore
}

func NewAllocator(store SettingsStore) *Allocator {
	return &Allocator{store: store}
}

// Allocate reserves the next invoice number for the user and returns it
// formatted as prefix + zero-padded sequence. A user without a Settings row
// is bootstrapped with the defaults first, so the first number ever issued
// is "INV-1001". The counter advance must commit together with the invoice
// insert; callers pass a store bound to the same transaction.
func (a *Allocator) Allocate(userID uuid.UUID) (string, error) {
	if err := a.ensureSettings(userID); err != nil {
		return "", err
	}

	prefix, seq, err := a.store.ReserveNumber(userID)
	if errors.Is(err, ErrAllocationConflict) {
		// Lost a race on the counter; retry once with the fresh value.
		prefix, seq, err = a.store.ReserveNumber(userID)
	}
	if err != nil {
		return "", err
	}
	return FormatInvoiceNumber(prefix, seq), nil
}

func (a *Allocator) ensureSettings(userID uuid.UUID) error {
	settings, err := a.store.GetSettings(userID)
	if err != nil {
		return err
	}
	if settings != nil {
		return nil
	}
	err = a.store.CreateSettings(&models.Settings{
		UserID:            userID,
		InvoicePrefix:     DefaultInvoicePrefix,
		NextInvoiceNumber: DefaultNextInvoiceNumber,
	})
	if err != nil {
		// A concurrent request may have bootstrapped the row first; that is
		// fine as long as it exists now.
		settings, getErr := a.store.GetSettings(userID)
		if getErr == nil && settings != nil {
			return nil
		}
		return err
	}
	return nil
}

// FormatInvoiceNumber renders prefix + sequence with a minimum width of four
// digits. 1001 -> "INV-1001", 10000 -> "INV-10000".
func FormatInvoiceNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s%0*d", prefix, numberPadWidth, seq)
}

// GormSettingsStore implements SettingsStore over a gorm connection,
// typically one already inside the invoice-creation transaction.
type GormSettingsStore struct {
	db *gorm.DB
}

func NewGormSettingsStore(db *gorm.DB) *GormSettingsStore {
	return &GormSettingsStore{db: db}
}

func (s *GormSettingsStore) GetSettings(userID uuid.UUID) (*models.Settings, error) {
	var settings models.Settings
	err := s.db.Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *GormSettingsStore) CreateSettings(settings *models.Settings) error {
	return s.db.Create(settings).Error
}

// ReserveNumber advances the counter in a single UPDATE so two concurrent
// allocations for the same user can never read the same value. The returned
// sequence is the pre-increment counter.
func (s *GormSettingsStore) ReserveNumber(userID uuid.UUID) (string, int64, error) {
	var row struct {
		InvoicePrefix string
		Seq           int64
	}
	result := s.db.Raw(`
		UPDATE settings
		SET next_invoice_number = next_invoice_number + 1, updated_at = NOW()
		WHERE user_id = ?
		RETURNING invoice_prefix, next_invoice_number - 1 AS seq`,
		userID).Scan(&row)
	if result.Error != nil {
		return "", 0, result.Error
	}
	if result.RowsAffected == 0 {
		return "", 0, gorm.ErrRecordNotFound
	}
	return row.InvoicePrefix, row.Seq, nil
}
