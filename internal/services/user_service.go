package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/splitnest/splitnest/internal/models"
	"github.com/splitnest/splitnest/pkg/crypto"
	apperrors "github.com/splitnest/splitnest/pkg/errors"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrPhoneTaken indicates the phone number is already registered.
	ErrPhoneTaken = apperrors.New("PHONE_TAKEN", "User with this phone number already exists", http.StatusConflict)
)

const searchResultLimit = 50

// CreateUserInput describes the fields accepted when registering a user.
type CreateUserInput struct {
	Name     string
	Phone    string
	Password string
	Email    *string
}

// UpdateProfileInput enumerates mutable profile attributes. Nil fields keep
// their current value.
type UpdateProfileInput struct {
	Name  *string
	Email *string
}

// UserService is the identity store: registration, lookup by phone, search,
// profile and password management. Users are never hard-deleted.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Create registers a new user with a hashed password. A duplicate phone number
// fails with a conflict and leaves the original record unchanged.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.Phone)
	if name == "" {
		return nil, apperrors.NewBadRequest("name is required")
	}
	if phone == "" {
		return nil, apperrors.NewBadRequest("phone is required")
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Name:     name,
		Phone:    phone,
		Email:    normalizeEmail(input.Email),
		Password: hashed,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrPhoneTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	return user, nil
}

// GetByID loads a user by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// FindByPhone looks up a user by their phone number.
func (s *UserService) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "phone = ?", strings.TrimSpace(phone)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: find by phone: %w", err)
	}
	return &user, nil
}

// Exists reports whether a phone number is registered.
func (s *UserService) Exists(ctx context.Context, phone string) (bool, error) {
	ctx = ensureContext(ctx)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("phone = ?", strings.TrimSpace(phone)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("user service: phone exists: %w", err)
	}
	return count > 0, nil
}

// Search returns users matching the query by name, email (case-insensitive
// substring) or phone (raw substring), excluding the caller, ordered by name.
func (s *UserService) Search(ctx context.Context, query, excludeUserID string) ([]models.User, error) {
	ctx = ensureContext(ctx)

	pattern := "%" + strings.TrimSpace(query) + "%"
	lowered := strings.ToLower(pattern)

	var users []models.User
	err := s.db.WithContext(ctx).
		Where("id <> ?", excludeUserID).
		Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?", lowered, pattern, lowered).
		Order("name ASC").
		Limit(searchResultLimit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("user service: search: %w", err)
	}
	return users, nil
}

// UpdateProfile mutates name and/or email of the caller's own record.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	updates := map[string]any{}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		updates["email"] = normalizeEmail(input.Email)
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ?", userID).
			Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("user service: update profile: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, ErrUserNotFound
		}
	}

	return s.GetByID(ctx, userID)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(newPassword) == "" {
		return apperrors.NewBadRequest("new password is required")
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !crypto.VerifyPassword(user.Password, currentPassword) {
		return apperrors.New("PASSWORD_MISMATCH", "Current password is incorrect", http.StatusUnauthorized)
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("password", hashed).Error; err != nil {
		return fmt.Errorf("user service: change password: %w", err)
	}
	return nil
}

// Authenticate verifies phone/password credentials and returns the user.
// All failures collapse into invalid-credentials to avoid leaking which
// part was wrong.
func (s *UserService) Authenticate(ctx context.Context, phone, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.FindByPhone(ctx, phone)
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !crypto.VerifyPassword(user.Password, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return user, nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	trimmed := strings.ToLower(strings.TrimSpace(*email))
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
