package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvitationStatus defines the state of a friend invitation.
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
)

// Invitation is an outstanding friend request addressed to a phone number.
// Accepted invitations are retained as records, never removed.
type Invitation struct {
	ID          string           `gorm:"primaryKey;type:uuid" json:"id"`
	InviterID   string           `gorm:"index;not null" json:"inviter_id"`
	InviterName string           `gorm:"not null" json:"inviter_name"`
	FriendPhone string           `gorm:"index;not null" json:"friend_phone"`
	FriendName  string           `gorm:"not null" json:"friend_name"`
	Status      InvitationStatus `gorm:"type:varchar(20);not null;default:pending" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
