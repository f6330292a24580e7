package models

import (
	"time"

	"invoicepilot-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Email    string    `gorm:"uniqueIndex;not null"`
	Password string    `gorm:"not null" json:"-"`
	Name     string    `gorm:"not null"`

	// Business profile, used as the sender identity on outgoing invoices.
	BusinessName    string
	BusinessAddress string
	BusinessPhone   string
	BusinessEmail   string
	TaxID           string

	LastLogin *time.Time
	IsActive  bool `gorm:"default:true"`

	Clients  []Client  `gorm:"foreignKey:UserID"`
	Invoices []Invoice `gorm:"foreignKey:UserID"`

	gorm.Model
}

// Initialize UUID and hash the password before creating
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	u.ID = uuid.New()
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return
}
