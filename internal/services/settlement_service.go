package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/splitnest/splitnest/internal/models"
	apperrors "github.com/splitnest/splitnest/pkg/errors"
	"github.com/splitnest/splitnest/pkg/logger"
	"github.com/splitnest/splitnest/pkg/metrics"
)

// ErrInvitationNotFound reports that the invitation does not exist or is no
// longer pending. A concurrent acceptor losing the race sees the same error
// as a stale ID, so clients only ever have one failure shape to handle.
var ErrInvitationNotFound = apperrors.New("INVITATION_NOT_FOUND", "Invitation not found", http.StatusNotFound)

// AcceptResult reports the outcome of an invitation settlement.
type AcceptResult struct {
	Invitation   *models.Invitation
	AcceptorLink *models.FriendLink
	InviterID    string
}

// SettlementService turns a pending invitation into a mutual friendship.
// All three writes run in one transaction: flip the invitation, insert the
// acceptor's accepted link, and promote the inviter's placeholder in place.
type SettlementService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewSettlementService constructs a SettlementService instance.
func NewSettlementService(db *gorm.DB) (*SettlementService, error) {
	if db == nil {
		return nil, errors.New("settlement service: db is required")
	}
	return &SettlementService{
		db:  db,
		log: logger.WithModule("settlement"),
	}, nil
}

// Accept settles a pending invitation on behalf of the accepting user.
// The conditional status flip is the linearization point: when two calls
// race on the same invitation, exactly one sees a row updated and the other
// gets ErrInvitationNotFound.
func (s *SettlementService) Accept(ctx context.Context, invitationID string, acceptor *models.User) (*AcceptResult, error) {
	ctx = ensureContext(ctx)

	var result AcceptResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invitation models.Invitation
		err := tx.First(&invitation, "id = ?", invitationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvitationNotFound
		}
		if err != nil {
			return fmt.Errorf("load invitation: %w", err)
		}

		flip := tx.Model(&models.Invitation{}).
			Where("id = ? AND status = ?", invitationID, models.InvitationStatusPending).
			Update("status", models.InvitationStatusAccepted)
		if flip.Error != nil {
			return fmt.Errorf("flip invitation: %w", flip.Error)
		}
		if flip.RowsAffected == 0 {
			return ErrInvitationNotFound
		}
		invitation.Status = models.InvitationStatusAccepted

		var inviter models.User
		err = tx.First(&inviter, "id = ?", invitation.InviterID).Error
		if err != nil {
			// The inviter row is a hard invariant of a pending invitation;
			// its absence means corrupted data, not a client mistake.
			return fmt.Errorf("load inviter %s: %w", invitation.InviterID, err)
		}

		acceptorLink := &models.FriendLink{
			UserID:      acceptor.ID,
			Name:        inviter.Name,
			PhoneNumber: inviter.Phone,
			Email:       inviter.Email,
			Status:      models.FriendStatusAccepted,
		}
		if err := tx.Create(acceptorLink).Error; err != nil {
			return fmt.Errorf("create acceptor link: %w", err)
		}

		// Promote the inviter's placeholder so it now points at the real
		// registered identity. The placeholder is keyed by the acceptor's
		// phone number, which is what the inviter typed when inviting.
		err = tx.Model(&models.FriendLink{}).
			Where("user_id = ? AND phone_number = ?", invitation.InviterID, acceptor.Phone).
			Updates(map[string]any{
				"name":         acceptor.Name,
				"phone_number": acceptor.Phone,
				"email":        acceptor.Email,
				"status":       models.FriendStatusAccepted,
			}).Error
		if err != nil {
			return fmt.Errorf("promote inviter placeholder: %w", err)
		}

		result = AcceptResult{
			Invitation:   &invitation,
			AcceptorLink: acceptorLink,
			InviterID:    invitation.InviterID,
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("settlement service: accept: %w", err)
	}

	metrics.InvitationsAccepted.Inc()
	s.log.Info("invitation accepted",
		zap.String("invitation_id", invitationID),
		zap.String("acceptor_id", acceptor.ID),
		zap.String("inviter_id", result.InviterID),
	)

	return &result, nil
}
