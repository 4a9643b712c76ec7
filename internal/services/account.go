package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/go-repairs/auth"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/validation"
	"gorm.io/gorm"
)

const minPasswordLength = 8

// DefaultTrialDays is used when Account is built with a non-positive trial length.
const DefaultTrialDays = 14

// SignupInput registers a shop owner and the shop in one go.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	ShopName string `json:"shop_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (in SignupInput) validate() validation.Violations {
	v := make(validation.Violations)
	validation.Required("email", in.Email, v)
	validation.Email("email", strings.TrimSpace(in.Email), v)
	validation.MinLength("password", in.Password, minPasswordLength, v)
	validation.Required("password", in.Password, v)
	validation.Required("shop_name", in.ShopName, v)
	validation.MaxLength("shop_name", in.ShopName, 255, v)
	validation.MaxLength("name", in.Name, 255, v)
	return v
}

// AccountService handles signup and credential checks.
type AccountService struct {
	store
	trial time.Duration
}

func NewAccountService(db *gorm.DB, trialDays int, opts Options) *AccountService {
	if trialDays <= 0 {
		trialDays = DefaultTrialDays
	}
	return &AccountService{store: newStore(db, opts), trial: time.Duration(trialDays) * 24 * time.Hour}
}

// Register creates the user and its establishment in a single transaction.
// The establishment starts a trial.
func (s *AccountService) Register(ctx context.Context, in SignupInput) (*models.User, *models.Establishment, error) {
	if v := in.validate(); !v.Empty() {
		return nil, nil, models.NewValidationError(v)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	trialEnds := now.Add(s.trial)
	user := models.User{
		Email:    normalizeEmail(in.Email),
		Name:     strings.TrimSpace(in.Name),
		Password: hash,
	}
	est := models.Establishment{
		Name:               strings.TrimSpace(in.ShopName),
		Phone:              strings.TrimSpace(in.Phone),
		Address:            strings.TrimSpace(in.Address),
		SubscriptionStatus: models.SubscriptionTrial,
		TrialEndsAt:        &trialEnds,
	}

	db, cancel := s.conn(ctx)
	defer cancel()
	err = db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: email already registered", models.ErrConflict)
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		est.UserID = user.ID
		return tx.Create(&est).Error
	})
	if err != nil {
		return nil, nil, storeError("register", err)
	}
	return &user, &est, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords are indistinguishable.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var user models.User
	err := db.Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrUnauthorized
	}
	if err != nil {
		return nil, storeError("load user", err)
	}
	if !auth.CheckPassword(user.Password, password) {
		return nil, models.ErrUnauthorized
	}
	return &user, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
