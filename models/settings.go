package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Settings holds per-user invoicing preferences, including the numbering
// state. Exactly one row per user; the counter is only ever advanced by the
// allocator and never decremented.
type Settings struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`

	InvoicePrefix     string `gorm:"default:'INV-'"`
	NextInvoiceNumber int64  `gorm:"default:1001"`

	DefaultPaymentTerms int             `gorm:"default:30"` // days
	TaxRate             decimal.Decimal `gorm:"type:decimal(5,2);default:0"`
	ThemeColor          string          `gorm:"default:'#3b82f6'"`
	FooterNotes         string          `gorm:"default:'Thank you for your business.'"`

	gorm.Model
}

func (s *Settings) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
