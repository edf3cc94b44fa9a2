package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FriendStatus defines the state of a friend link.
type FriendStatus string

const (
	// FriendStatusPending marks a speculative placeholder created by an
	// inviter before the counterpart identity has reciprocated (or exists).
	FriendStatusPending FriendStatus = "pending"

	// FriendStatusAccepted marks a materialized mutual friendship.
	FriendStatusAccepted FriendStatus = "accepted"
)

// FriendLink is a directed friend relationship owned by exactly one user.
// The friend side is a denormalized name/phone/email snapshot rather than a
// foreign key, because the friend may not be registered yet.
type FriendLink struct {
	ID          string       `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string       `gorm:"index;not null" json:"user_id"`
	Name        string       `gorm:"not null" json:"name"`
	PhoneNumber string       `gorm:"index;not null" json:"phone_number"`
	Email       *string      `json:"email"`
	Status      FriendStatus `gorm:"type:varchar(20)" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (f *FriendLink) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// DisplayStatus resolves the status shown to clients. Rows written before the
// invitation system existed carry no status and count as accepted.
func (f *FriendLink) DisplayStatus() FriendStatus {
	if f.Status == "" {
		return FriendStatusAccepted
	}
	return f.Status
}
