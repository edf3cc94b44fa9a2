package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/splitnest/splitnest/internal/models"
	apperrors "github.com/splitnest/splitnest/pkg/errors"
)

// ErrExpenseNotFound indicates no personal expense with the given ID belongs
// to the caller.
var ErrExpenseNotFound = apperrors.New("EXPENSE_NOT_FOUND", "Expense not found", http.StatusNotFound)

// Expense categories, stored as small integers. Codes are part of the wire
// format and must not be renumbered.
const (
	CategoryFood = iota + 1
	CategoryTransportation
	CategoryEntertainment
	CategoryShopping
	CategoryBills
	CategoryHealthcare
	CategoryEducation
	CategoryTravel
	CategoryOther
)

var categoryNames = map[string]int{
	"Food":           CategoryFood,
	"Transportation": CategoryTransportation,
	"Entertainment":  CategoryEntertainment,
	"Shopping":       CategoryShopping,
	"Bills":          CategoryBills,
	"Healthcare":     CategoryHealthcare,
	"Education":      CategoryEducation,
	"Travel":         CategoryTravel,
	"Other":          CategoryOther,
}

// ResolveCategory maps a category name to its stored integer code. Unknown
// names fall back to Other.
func ResolveCategory(name string) int {
	if code, ok := categoryNames[strings.TrimSpace(name)]; ok {
		return code
	}
	return CategoryOther
}

// CreatePersonalExpenseInput describes a new single-user expense.
type CreatePersonalExpenseInput struct {
	Title    string
	Amount   decimal.Decimal
	Date     time.Time
	Category int
	Note     string
}

// UpdatePersonalExpenseInput enumerates mutable expense attributes. Nil
// fields keep their current value.
type UpdatePersonalExpenseInput struct {
	Title    *string
	Amount   *decimal.Decimal
	Date     *time.Time
	Category *int
	Note     *string
}

// MergedExpense is one entry in the combined personal+shared listing.
type MergedExpense struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Category    int             `json:"category,omitempty"`
	Note        string          `json:"note,omitempty"`
	CreatorID   string          `json:"creator_id,omitempty"`
	CreatorName string          `json:"creator_name,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Merged-expense kinds.
const (
	ExpenseKindPersonal = "personal"
	ExpenseKindShared   = "shared"
)

// ExpenseService manages single-user expenses and the merged expense feed.
type ExpenseService struct {
	db     *gorm.DB
	shared *SharedExpenseService
}

// NewExpenseService constructs an ExpenseService instance.
func NewExpenseService(db *gorm.DB, shared *SharedExpenseService) (*ExpenseService, error) {
	if db == nil {
		return nil, errors.New("expense service: db is required")
	}
	if shared == nil {
		return nil, errors.New("expense service: shared expense service is required")
	}
	return &ExpenseService{db: db, shared: shared}, nil
}

// CreatePersonal records a new personal expense for the user.
func (s *ExpenseService) CreatePersonal(ctx context.Context, userID string, input CreatePersonalExpenseInput) (*models.PersonalExpense, error) {
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
	category := input.Category
	if category < CategoryFood || category > CategoryOther {
		category = CategoryOther
	}

	expense := &models.PersonalExpense{
		UserID:   userID,
		Title:    title,
		Amount:   input.Amount,
		Date:     date,
		Category: category,
		Note:     strings.TrimSpace(input.Note),
	}

	if err := s.db.WithContext(ctx).Create(expense).Error; err != nil {
		return nil, fmt.Errorf("expense service: create: %w", err)
	}
	return expense, nil
}

// ListPersonal returns the user's personal expenses newest first.
func (s *ExpenseService) ListPersonal(ctx context.Context, userID string) ([]models.PersonalExpense, error) {
	ctx = ensureContext(ctx)

	var expenses []models.PersonalExpense
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Order("created_at DESC").
		Find(&expenses).Error
	if err != nil {
		return nil, fmt.Errorf("expense service: list: %w", err)
	}
	return expenses, nil
}

// UpdatePersonal mutates a personal expense owned by the caller. An expense
// owned by someone else looks exactly like a missing one.
func (s *ExpenseService) UpdatePersonal(ctx context.Context, userID, expenseID string, input UpdatePersonalExpenseInput) (*models.PersonalExpense, error) {
	ctx = ensureContext(ctx)

	updates := map[string]any{}
	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		updates["title"] = strings.TrimSpace(*input.Title)
	}
	if input.Amount != nil {
		if input.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, apperrors.NewBadRequest("amount must be positive")
		}
		updates["amount"] = *input.Amount
	}
	if input.Date != nil && !input.Date.IsZero() {
		updates["date"] = *input.Date
	}
	if input.Category != nil {
		category := *input.Category
		if category < CategoryFood || category > CategoryOther {
			category = CategoryOther
		}
		updates["category"] = category
	}
	if input.Note != nil {
		updates["note"] = strings.TrimSpace(*input.Note)
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).
			Model(&models.PersonalExpense{}).
			Where("id = ? AND user_id = ?", expenseID, userID).
			Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("expense service: update: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrExpenseNotFound
		}
	}

	var expense models.PersonalExpense
	err := s.db.WithContext(ctx).
		First(&expense, "id = ? AND user_id = ?", expenseID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrExpenseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("expense service: load: %w", err)
	}
	return &expense, nil
}

// RemovePersonal deletes a personal expense owned by the caller.
func (s *ExpenseService) RemovePersonal(ctx context.Context, userID, expenseID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", expenseID, userID).
		Delete(&models.PersonalExpense{})
	if result.Error != nil {
		return fmt.Errorf("expense service: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

// ListMerged combines the user's personal expenses with the shared expenses
// they participate in, newest first. The two sources are ordered separately
// by the store, so the merge re-sorts in memory.
func (s *ExpenseService) ListMerged(ctx context.Context, userID string) ([]MergedExpense, error) {
	ctx = ensureContext(ctx)

	personal, err := s.ListPersonal(ctx, userID)
	if err != nil {
		return nil, err
	}
	shared, err := s.shared.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := make([]MergedExpense, 0, len(personal)+len(shared))
	for _, expense := range personal {
		merged = append(merged, MergedExpense{
			ID:        expense.ID,
			Kind:      ExpenseKindPersonal,
			Title:     expense.Title,
			Amount:    expense.Amount,
			Date:      expense.Date,
			Category:  expense.Category,
			Note:      expense.Note,
			CreatedAt: expense.CreatedAt,
		})
	}
	for _, expense := range shared {
		merged = append(merged, MergedExpense{
			ID:          expense.ID,
			Kind:        ExpenseKindShared,
			Title:       expense.Title,
			Amount:      expense.Amount,
			Date:        expense.Date,
			Note:        expense.Note,
			CreatorID:   expense.CreatorID,
			CreatorName: expense.CreatorName,
			CreatedAt:   expense.CreatedAt,
		})
	}

	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].Date.Equal(merged[j].Date) {
			return merged[i].Date.After(merged[j].Date)
		}
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	return merged, nil
}
