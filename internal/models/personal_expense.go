package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PersonalExpense is a single-user expense record.
type PersonalExpense struct {
	ID       string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   string          `gorm:"index;not null" json:"user_id"`
	Title    string          `gorm:"not null" json:"title"`
	Amount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Date     time.Time       `gorm:"index;not null" json:"date"`
	Category int             `json:"category"`
	Note     string          `json:"note"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (e *PersonalExpense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
