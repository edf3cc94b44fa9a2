package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/splitnest/splitnest/internal/models"
	apperrors "github.com/splitnest/splitnest/pkg/errors"
	"github.com/splitnest/splitnest/pkg/logger"
)

var (
	// ErrFriendNotFound indicates no friend link with the given ID belongs
	// to the caller.
	ErrFriendNotFound = apperrors.New("FRIEND_NOT_FOUND", "Friend not found", http.StatusNotFound)
)

// AddFriendInput describes a directly added friend entry.
type AddFriendInput struct {
	Name        string
	PhoneNumber string
	Email       *string
}

// UpdateFriendInput enumerates mutable friend-link attributes. Nil fields
// keep their current value.
type UpdateFriendInput struct {
	Name        *string
	PhoneNumber *string
	Email       *string
}

// InviteInput describes an async friend invitation.
type InviteInput struct {
	FriendName  string
	FriendPhone string
}

// InviteResult reports the records created by a friend invitation.
type InviteResult struct {
	Invitation *models.Invitation
	FriendLink *models.FriendLink
}

// PendingInvitation is a pending invitation joined with the inviter's
// contact details, as shown to the invited user.
type PendingInvitation struct {
	ID           string  `json:"id"`
	InviterID    string  `json:"inviterId"`
	InviterName  string  `json:"inviterName"`
	InviterPhone string  `json:"inviterPhone"`
	InviterEmail *string `json:"inviterEmail"`
	FriendName   string  `json:"friendName"`
	FriendPhone  string  `json:"friendPhone"`
	CreatedAt    string  `json:"createdAt"`
}

// FriendService manages each user's private friend list and the async
// invitation flow. Friend links are one-directional rows owned by a user;
// accepting an invitation is the SettlementService's job.
type FriendService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewFriendService constructs a FriendService instance.
func NewFriendService(db *gorm.DB) (*FriendService, error) {
	if db == nil {
		return nil, errors.New("friend service: db is required")
	}
	return &FriendService{
		db:  db,
		log: logger.WithModule("friends"),
	}, nil
}

// ListFriends returns all of the caller's friend links ordered by name.
// Both pending placeholders and accepted links are included.
func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]models.FriendLink, error) {
	ctx = ensureContext(ctx)

	var links []models.FriendLink
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("friend service: list friends: %w", err)
	}
	return links, nil
}

// AddDirect creates an immediately accepted friend link owned by the caller.
// The other side is not notified and gets no reciprocal entry.
func (s *FriendService) AddDirect(ctx context.Context, userID string, input AddFriendInput) (*models.FriendLink, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.PhoneNumber)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if phone == "" {
		return nil, apperrors.NewBadRequest("phoneNumber is required")
	}

	link := &models.FriendLink{
		UserID:      userID,
		Name:        name,
		PhoneNumber: phone,
		Email:       normalizeEmail(input.Email),
		Status:      models.FriendStatusAccepted,
	}

	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		return nil, fmt.Errorf("friend service: add friend: %w", err)
	}
	return link, nil
}

// UpdateDirect mutates a friend link owned by the caller. A link owned by
// someone else is indistinguishable from a missing one.
func (s *FriendService) UpdateDirect(ctx context.Context, userID, linkID string, input UpdateFriendInput) (*models.FriendLink, error) {
	ctx = ensureContext(ctx)

	updates := map[string]any{}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.PhoneNumber != nil && strings.TrimSpace(*input.PhoneNumber) != "" {
		updates["phone_number"] = strings.TrimSpace(*input.PhoneNumber)
	}
	if input.Email != nil {
		updates["email"] = normalizeEmail(input.Email)
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).
			Model(&models.FriendLink{}).
			Where("id = ? AND user_id = ?", linkID, userID).
			Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("friend service: update friend: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrFriendNotFound
		}
	}

	var link models.FriendLink
	err := s.db.WithContext(ctx).
		First(&link, "id = ? AND user_id = ?", linkID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFriendNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("friend service: load friend: %w", err)
	}
	return &link, nil
}

// RemoveDirect deletes a friend link owned by the caller. The counterpart's
// view of the relationship, if any, is untouched.
func (s *FriendService) RemoveDirect(ctx context.Context, userID, linkID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", linkID, userID).
		Delete(&models.FriendLink{})
	if result.Error != nil {
		return fmt.Errorf("friend service: remove friend: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrFriendNotFound
	}
	return nil
}

// CreateInvitation records a pending invitation and the inviter's pending
// placeholder link in a single transaction, so a crash between the two
// writes cannot leave a dangling half.
func (s *FriendService) CreateInvitation(ctx context.Context, inviter *models.User, input InviteInput) (*InviteResult, error) {
	ctx = ensureContext(ctx)

	friendName := strings.TrimSpace(input.FriendName)
	friendPhone := strings.TrimSpace(input.FriendPhone)
	if friendName == "" {
		return nil, apperrors.NewBadRequest("friendName is required")
	}
	if friendPhone == "" {
		return nil, apperrors.NewBadRequest("friendPhone is required")
	}

	invitation := &models.Invitation{
		InviterID:   inviter.ID,
		InviterName: inviter.Name,
		FriendPhone: friendPhone,
		FriendName:  friendName,
		Status:      models.InvitationStatusPending,
	}
	link := &models.FriendLink{
		UserID:      inviter.ID,
		Name:        friendName,
		PhoneNumber: friendPhone,
		Status:      models.FriendStatusPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invitation).Error; err != nil {
			return fmt.Errorf("create invitation: %w", err)
		}
		if err := tx.Create(link).Error; err != nil {
			return fmt.Errorf("create placeholder link: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("friend service: invite: %w", err)
	}

	s.log.Info("friend invitation created",
		zap.String("inviter_id", inviter.ID),
		zap.String("invitation_id", invitation.ID),
	)

	return &InviteResult{Invitation: invitation, FriendLink: link}, nil
}

// ListPendingInvitations returns pending invitations addressed to the given
// phone number, newest first, enriched with the inviter's current contact
// details.
func (s *FriendService) ListPendingInvitations(ctx context.Context, phone string) ([]PendingInvitation, error) {
	ctx = ensureContext(ctx)

	var rows []struct {
		models.Invitation
		InviterPhone string
		InviterEmail *string
	}
	err := s.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Select("invitations.*, users.phone AS inviter_phone, users.email AS inviter_email").
		Joins("JOIN users ON users.id = invitations.inviter_id").
		Where("invitations.friend_phone = ? AND invitations.status = ?", strings.TrimSpace(phone), models.InvitationStatusPending).
		Order("invitations.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("friend service: list pending invitations: %w", err)
	}

	out := make([]PendingInvitation, 0, len(rows))
	for _, row := range rows {
		out = append(out, PendingInvitation{
			ID:           row.ID,
			InviterID:    row.InviterID,
			InviterName:  row.InviterName,
			InviterPhone: row.InviterPhone,
			InviterEmail: row.InviterEmail,
			FriendName:   row.FriendName,
			FriendPhone:  row.FriendPhone,
			CreatedAt:    row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out, nil
}
