package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/splitnest/splitnest/internal/models"
	apperrors "github.com/splitnest/splitnest/pkg/errors"
	"github.com/splitnest/splitnest/pkg/logger"
)

// ShareInput is one friend's portion of a shared expense, addressed by the
// creator's friend-link ID.
type ShareInput struct {
	FriendLinkID string
	Amount       decimal.Decimal
}

// CreateSharedExpenseInput describes a new multi-party expense.
type CreateSharedExpenseInput struct {
	Title  string
	Amount decimal.Decimal
	Date   time.Time
	Shares []ShareInput
	Note   string
}

// SharedExpenseView is a shared expense enriched with the creator's display
// name for list responses.
type SharedExpenseView struct {
	models.SharedExpense
	CreatorName string `json:"creator_name"`
}

// SharedExpenseService records multi-participant expenses with a naive split
// map. Splits are never validated against the total and expenses are
// immutable once created.
type SharedExpenseService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewSharedExpenseService constructs a SharedExpenseService instance.
func NewSharedExpenseService(db *gorm.DB) (*SharedExpenseService, error) {
	if db == nil {
		return nil, errors.New("shared expense service: db is required")
	}
	return &SharedExpenseService{
		db:  db,
		log: logger.WithModule("shared_expenses"),
	}, nil
}

// Create resolves each share's friend link to a registered user and persists
// one expense row. Shares that cannot be resolved, because the link is not
// the creator's or its phone belongs to no registered user, are skipped and
// logged rather than failing the call. The creator's own share is the
// remainder of the total after all resolved shares and may go negative.
func (s *SharedExpenseService) Create(ctx context.Context, creatorID string, input CreateSharedExpenseInput) (*models.SharedExpense, error) {
	ctx = ensureContext(ctx)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.NewBadRequest("amount must be positive")
	}
	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	participants := []string{creatorID}
	splits := models.SplitMap{}
	sharesTotal := decimal.Zero

	for _, share := range input.Shares {
		var link models.FriendLink
		err := s.db.WithContext(ctx).
			First(&link, "id = ? AND user_id = ?", share.FriendLinkID, creatorID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("skipping unresolvable share: friend link not found",
				zap.String("creator_id", creatorID),
				zap.String("friend_link_id", share.FriendLinkID),
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("shared expense service: resolve friend link: %w", err)
		}

		var friend models.User
		err = s.db.WithContext(ctx).
			First(&friend, "phone = ?", link.PhoneNumber).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("skipping unresolvable share: friend is not registered",
				zap.String("creator_id", creatorID),
				zap.String("friend_link_id", share.FriendLinkID),
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("shared expense service: resolve friend user: %w", err)
		}

		if friend.ID == creatorID {
			s.log.Warn("skipping self-referential share",
				zap.String("creator_id", creatorID),
				zap.String("friend_link_id", share.FriendLinkID),
			)
			continue
		}

		if _, seen := splits[friend.ID]; !seen {
			participants = append(participants, friend.ID)
		}
		splits[friend.ID] = splits[friend.ID].Add(share.Amount)
		sharesTotal = sharesTotal.Add(share.Amount)
	}

	// The creator's share is imputed, not supplied. Shares may exceed the
	// total; the remainder is allowed to go negative.
	splits[creatorID] = input.Amount.Sub(sharesTotal)

	expense := &models.SharedExpense{
		CreatorID:    creatorID,
		Title:        title,
		Amount:       input.Amount,
		Date:         date,
		Participants: datatypes.NewJSONSlice(participants),
		Splits:       datatypes.NewJSONType(splits),
		Note:         strings.TrimSpace(input.Note),
	}

	if err := s.db.WithContext(ctx).Create(expense).Error; err != nil {
		return nil, fmt.Errorf("shared expense service: create: %w", err)
	}
	return expense, nil
}

// ListForUser returns expenses the user created or participates in, newest
// first, each carrying the creator's display name.
func (s *SharedExpenseService) ListForUser(ctx context.Context, userID string) ([]SharedExpenseView, error) {
	ctx = ensureContext(ctx)

	cond, arg := participantMatch(s.db.Dialector.Name(), userID)

	var expenses []models.SharedExpense
	err := s.db.WithContext(ctx).
		Where("creator_id = ? OR "+cond, userID, arg).
		Order("date DESC").
		Order("created_at DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, fmt.Errorf("shared expense service: list: %w", err)
	}

	names, err := s.creatorNames(ctx, expenses)
	if err != nil {
		return nil, err
	}

	out := make([]SharedExpenseView, 0, len(expenses))
	for _, expense := range expenses {
		out = append(out, SharedExpenseView{
			SharedExpense: expense,
			CreatorName:   names[expense.CreatorID],
		})
	}
	return out, nil
}

// participantMatch builds a membership test for the participants JSON array
// in the given SQL vendor's dialect. The column is JSONB on postgres, JSON on
// mysql, and serialized text on sqlite, so each needs its own operator.
func participantMatch(dialect, userID string) (cond string, arg any) {
	switch dialect {
	case "postgres":
		return "participants @> ?::jsonb", fmt.Sprintf("[%q]", userID)
	case "mysql":
		return "JSON_CONTAINS(participants, JSON_QUOTE(?))", userID
	default:
		return "EXISTS (SELECT 1 FROM json_each(participants) WHERE json_each.value = ?)", userID
	}
}

func (s *SharedExpenseService) creatorNames(ctx context.Context, expenses []models.SharedExpense) (map[string]string, error) {
	ids := make([]string, 0, len(expenses))
	seen := map[string]bool{}
	for _, expense := range expenses {
		if !seen[expense.CreatorID] {
			seen[expense.CreatorID] = true
			ids = append(ids, expense.CreatorID)
		}
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("shared expense service: load creators: %w", err)
	}

	names := make(map[string]string, len(users))
	for _, user := range users {
		names[user.ID] = user.Name
	}
	return names, nil
}
