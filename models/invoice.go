package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice statuses. "overdue" is derived at read time from a sent invoice
// whose due date has passed; it is never stored.
const (
	StatusDraft = "draft"
	StatusSent  = "sent"
	StatusPaid  = "paid"
)

type Invoice struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_invoice_number"`
	ClientID uuid.UUID `gorm:"type:uuid;index;not null"`

	InvoiceNumber string `gorm:"not null;uniqueIndex:idx_user_invoice_number"`
	Status        string `gorm:"type:varchar(10);default:'draft'"`

	IssueDate time.Time `gorm:"not null"`
	DueDate   time.Time `gorm:"not null"`
	PaidDate  *time.Time

	Subtotal       decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(15,2);default:0"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(15,2);default:0"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null"`

	Notes string

	Client Client        `gorm:"foreignKey:ClientID"`
	Items  []InvoiceItem `gorm:"foreignKey:InvoiceID"`

	gorm.Model
}

type InvoiceItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	InvoiceID uuid.UUID `gorm:"type:uuid;index;not null"`

	Description string          `gorm:"not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(15,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null"`

	CreatedAt time.Time
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) (err error) {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return
}
