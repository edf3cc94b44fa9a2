package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func init() {
	// Amounts serialize as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// SplitMap maps a participant user id to the amount they owe.
type SplitMap map[string]decimal.Decimal

// SharedExpense is a multi-participant expense. Participants and the split map
// are stored as JSON documents; the record is immutable once created. The sum
// of the splits is not validated against the amount.
type SharedExpense struct {
	ID           string                       `gorm:"primaryKey;type:uuid" json:"id"`
	CreatorID    string                       `gorm:"index;not null" json:"creator_id"`
	Title        string                       `gorm:"not null" json:"title"`
	Amount       decimal.Decimal              `gorm:"type:decimal(12,2);not null" json:"amount"`
	Date         time.Time                    `gorm:"index;not null" json:"date"`
	Participants datatypes.JSONSlice[string]  `json:"participants"`
	Splits       datatypes.JSONType[SplitMap] `json:"splits"`
	Note         string                       `json:"note"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (e *SharedExpense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
