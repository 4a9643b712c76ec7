package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/go-repairs/gate"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/internal/policy"
	"github.com/diewo77/go-repairs/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EstablishmentInput is the editable shop profile.
type EstablishmentInput struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	TicketColor   string `json:"ticket_color"`
	FooterMessage string `json:"footer_message"`
}

func (in EstablishmentInput) validate() validation.Violations {
	v := make(validation.Violations)
	validation.Required("name", in.Name, v)
	validation.MaxLength("name", in.Name, 255, v)
	validation.MaxLength("phone", in.Phone, 50, v)
	validation.MaxLength("address", in.Address, 500, v)
	validation.HexColor("ticket_color", in.TicketColor, v)
	validation.MaxLength("footer_message", in.FooterMessage, 1000, v)
	return v
}

// SubscriptionOverride is an administrative change of a shop's subscription.
// EndsAt applies to the trial or the paid period depending on Status.
type SubscriptionOverride struct {
	Status models.SubscriptionStatus `json:"status"`
	EndsAt *time.Time                `json:"ends_at"`
}

// EstablishmentService manages shop profiles and subscriptions.
type EstablishmentService struct {
	store
	gate *policy.AuthGate
}

func NewEstablishmentService(db *gorm.DB, g *policy.AuthGate, opts Options) *EstablishmentService {
	return &EstablishmentService{store: newStore(db, opts), gate: g}
}

// Create opens a shop for a user who has none yet.
func (s *EstablishmentService) Create(ctx context.Context, userID uint, in EstablishmentInput, trialDays int) (*models.Establishment, error) {
	if v := in.validate(); !v.Empty() {
		return nil, models.NewValidationError(v)
	}
	actor, err := s.gate.Actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actor.EstablishmentID != 0 {
		return nil, fmt.Errorf("%w: user already owns an establishment", models.ErrConflict)
	}
	if err := s.gate.Authorize(ctx, actor, gate.ActionCreate, policy.ResourceEstablishment, nil); err != nil {
		return nil, err
	}
	if trialDays <= 0 {
		trialDays = DefaultTrialDays
	}
	trialEnds := s.now().AddDate(0, 0, trialDays)
	est := models.Establishment{UserID: userID, SubscriptionStatus: models.SubscriptionTrial, TrialEndsAt: &trialEnds}
	in.apply(&est)

	db, cancel := s.conn(ctx)
	defer cancel()
	if err := db.Create(&est).Error; err != nil {
		return nil, storeError("create establishment", err)
	}
	s.gate.Forget(userID)
	return &est, nil
}

// ForUser returns the establishment owned by userID.
func (s *EstablishmentService) ForUser(ctx context.Context, userID uint) (*models.Establishment, error) {
	actor, err := s.gate.Actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actor.EstablishmentID == 0 {
		return nil, models.ErrNotFound
	}
	est, err := s.load(ctx, actor.EstablishmentID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actor, gate.ActionView, policy.ResourceEstablishment, est); err != nil {
		return nil, err
	}
	return est, nil
}

// Update edits the actor's shop profile.
func (s *EstablishmentService) Update(ctx context.Context, userID uint, in EstablishmentInput) (*models.Establishment, error) {
	if v := in.validate(); !v.Empty() {
		return nil, models.NewValidationError(v)
	}
	est, err := s.owned(ctx, userID)
	if err != nil {
		return nil, err
	}
	in.apply(est)
	if err := s.save(ctx, est); err != nil {
		return nil, err
	}
	return est, nil
}

// SetLogo stores the logo reference of the actor's shop.
func (s *EstablishmentService) SetLogo(ctx context.Context, userID uint, logoURL string) (*models.Establishment, error) {
	est, err := s.owned(ctx, userID)
	if err != nil {
		return nil, err
	}
	est.LogoURL = logoURL
	if err := s.save(ctx, est); err != nil {
		return nil, err
	}
	return est, nil
}

// ListAll returns every establishment. Admins only.
func (s *EstablishmentService) ListAll(ctx context.Context, userID uint) ([]models.Establishment, error) {
	actor, err := s.gate.Actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin {
		return nil, models.ErrForbidden
	}
	return s.All(ctx)
}

// All lists establishments without an actor (admin CLI).
func (s *EstablishmentService) All(ctx context.Context) ([]models.Establishment, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	out := make([]models.Establishment, 0)
	if err := db.Order("id ASC").Find(&out).Error; err != nil {
		return nil, storeError("list establishments", err)
	}
	return out, nil
}

// OverrideSubscription lets an admin change any shop's subscription.
func (s *EstablishmentService) OverrideSubscription(ctx context.Context, userID, establishmentID uint, o SubscriptionOverride) (*models.Establishment, error) {
	if !o.Status.Valid() {
		return nil, models.NewValidationError(validation.Violations{"status": "invalid"})
	}
	actor, err := s.gate.Actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin {
		return nil, models.ErrForbidden
	}
	est, err := s.load(ctx, establishmentID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actor, gate.ActionUpdate, policy.ResourceEstablishment, est); err != nil {
		return nil, err
	}
	est.SubscriptionStatus = o.Status
	switch o.Status {
	case models.SubscriptionTrial:
		est.TrialEndsAt = o.EndsAt
	case models.SubscriptionActive:
		est.SubscriptionEndsAt = o.EndsAt
	}
	if err := s.save(ctx, est); err != nil {
		return nil, err
	}
	return est, nil
}

// ExtendSubscription activates a shop for days more, counted from the later of
// now and the current paid expiry.
func (s *EstablishmentService) ExtendSubscription(ctx context.Context, establishmentID uint, days int) (*models.Establishment, error) {
	if days <= 0 {
		return nil, models.NewValidationError(validation.Violations{"days": "must_be_positive"})
	}
	est, err := s.load(ctx, establishmentID)
	if err != nil {
		return nil, err
	}
	from := s.now()
	if est.SubscriptionStatus == models.SubscriptionActive && est.SubscriptionEndsAt != nil && est.SubscriptionEndsAt.After(from) {
		from = *est.SubscriptionEndsAt
	}
	ends := from.AddDate(0, 0, days)
	est.SubscriptionStatus = models.SubscriptionActive
	est.SubscriptionEndsAt = &ends
	if err := s.save(ctx, est); err != nil {
		return nil, err
	}
	return est, nil
}

// owned loads the actor's establishment and checks the update permission.
func (s *EstablishmentService) owned(ctx context.Context, userID uint) (*models.Establishment, error) {
	actor, err := tenantActor(ctx, s.gate, userID, gate.ActionUpdate, policy.ResourceEstablishment)
	if err != nil {
		return nil, err
	}
	est, err := s.load(ctx, actor.EstablishmentID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actor, gate.ActionUpdate, policy.ResourceEstablishment, est); err != nil {
		return nil, err
	}
	return est, nil
}

func (s *EstablishmentService) load(ctx context.Context, id uint) (*models.Establishment, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var est models.Establishment
	if err := db.First(&est, id).Error; err != nil {
		return nil, storeError("load establishment", err)
	}
	return &est, nil
}

func (s *EstablishmentService) save(ctx context.Context, est *models.Establishment) error {
	db, cancel := s.conn(ctx)
	defer cancel()
	est.UpdatedAt = s.now()
	if err := db.Omit(clause.Associations).Save(est).Error; err != nil {
		return storeError("save establishment", err)
	}
	return nil
}

func (in EstablishmentInput) apply(est *models.Establishment) {
	est.Name = strings.TrimSpace(in.Name)
	est.Phone = strings.TrimSpace(in.Phone)
	est.Address = strings.TrimSpace(in.Address)
	est.TicketColor = strings.TrimSpace(in.TicketColor)
	est.FooterMessage = strings.TrimSpace(in.FooterMessage)
}
