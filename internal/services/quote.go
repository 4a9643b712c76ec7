package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-repairs/gate"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/internal/policy"
	"github.com/diewo77/go-repairs/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultQuoteValidity is the expiry applied when a quote is created without one.
const DefaultQuoteValidity = 30 * 24 * time.Hour

const numberAttempts = 3

// QuoteInput creates a quote.
type QuoteInput struct {
	ClientID  uint       `json:"client_id"`
	Total     float64    `json:"total"`
	IssueDate *time.Time `json:"issue_date"`
	ExpiresAt *time.Time `json:"expires_at"`
	Notes     string     `json:"notes"`
}

func (in QuoteInput) validate() validation.Violations {
	v := make(validation.Violations)
	if in.ClientID == 0 {
		v["client_id"] = "required"
	}
	validation.NonNegativeFloat("total", in.Total, v)
	if in.IssueDate != nil && in.ExpiresAt != nil && in.ExpiresAt.Before(*in.IssueDate) {
		v["expires_at"] = "before_issue_date"
	}
	validation.MaxLength("notes", in.Notes, 4000, v)
	return v
}

// QuoteService manages quotes of the actor's establishment.
type QuoteService struct {
	store
	gate *policy.AuthGate
}

func NewQuoteService(db *gorm.DB, g *policy.AuthGate, opts Options) *QuoteService {
	return &QuoteService{store: newStore(db, opts), gate: g}
}

// Create drafts a quote numbered DEV-YYYY-NNNN within the establishment and issue year.
func (s *QuoteService) Create(ctx context.Context, userID uint, in QuoteInput) (*models.Quote, error) {
	if v := in.validate(); !v.Empty() {
		return nil, models.NewValidationError(v)
	}
	actor, err := tenantActor(ctx, s.gate, userID, gate.ActionCreate, policy.ResourceQuote)
	if err != nil {
		return nil, err
	}
	issue := s.now()
	if in.IssueDate != nil {
		issue = *in.IssueDate
	}
	expires := issue.Add(DefaultQuoteValidity)
	if in.ExpiresAt != nil {
		expires = *in.ExpiresAt
	}
	q := models.Quote{
		EstablishmentID: actor.EstablishmentID,
		ClientID:        in.ClientID,
		Total:           in.Total,
		IssueDate:       issue,
		ExpiresAt:       expires,
		Status:          models.QuoteDraft,
		Notes:           strings.TrimSpace(in.Notes),
	}

	db, cancel := s.conn(ctx)
	defer cancel()
	var c models.Client
	err = db.Select("id", "establishment_id").First(&c, in.ClientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && c.EstablishmentID != actor.EstablishmentID) {
		return nil, models.NewValidationError(validation.Violations{"client_id": "not_found"})
	}
	if err != nil {
		return nil, storeError("load client", err)
	}

	for attempt := 0; attempt < numberAttempts; attempt++ {
		err = db.Transaction(func(tx *gorm.DB) error {
			number, err := nextQuoteNumber(tx, actor.EstablishmentID, issue.Year())
			if err != nil {
				return err
			}
			q.ID = 0
			q.Number = number
			return tx.Create(&q).Error
		})
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return nil, storeError("create quote", err)
	}
	return &q, nil
}

// nextQuoteNumber bumps the establishment's counter for year inside tx. A new
// counter starts after the highest number already stored for that year.
func nextQuoteNumber(tx *gorm.DB, establishmentID uint, year int) (string, error) {
	prefix := fmt.Sprintf("DEV-%d-", year)
	floor, err := highestQuoteNumber(tx, establishmentID, prefix)
	if err != nil {
		return "", err
	}
	seq := models.QuoteSequence{EstablishmentID: establishmentID, Year: year, LastNumber: floor + 1}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "establishment_id"}, {Name: "year"}},
		DoUpdates: clause.Assignments(map[string]any{"last_number": gorm.Expr("quote_sequences.last_number + 1")}),
	}).Create(&seq).Error; err != nil {
		return "", err
	}
	if err := tx.Where("establishment_id = ? AND year = ?", establishmentID, year).First(&seq).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, seq.LastNumber), nil
}

func highestQuoteNumber(tx *gorm.DB, establishmentID uint, prefix string) (int, error) {
	var last []string
	if err := tx.Model(&models.Quote{}).
		Where("establishment_id = ? AND number LIKE ?", establishmentID, prefix+"%").
		Order("length(number) DESC, number DESC").
		Limit(1).
		Pluck("number", &last).Error; err != nil {
		return 0, err
	}
	if len(last) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(last[0], prefix))
	if err != nil {
		return 0, fmt.Errorf("malformed quote number %q: %w", last[0], err)
	}
	return n, nil
}

// List returns the actor's quotes, newest first, optionally filtered by status.
func (s *QuoteService) List(ctx context.Context, userID uint, status *models.QuoteStatus, page Page) ([]models.Quote, error) {
	if status != nil && !status.Valid() {
		return nil, models.NewValidationError(validation.Violations{"status": "invalid"})
	}
	actor, err := tenantActor(ctx, s.gate, userID, gate.ActionList, policy.ResourceQuote)
	if err != nil {
		return nil, err
	}
	page = page.normalized()
	db, cancel := s.conn(ctx)
	defer cancel()
	q := db.Where("establishment_id = ?", actor.EstablishmentID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	out := make([]models.Quote, 0)
	if err := q.Order("issue_date DESC, id DESC").Limit(page.Limit).Offset(page.Offset).Find(&out).Error; err != nil {
		return nil, storeError("list quotes", err)
	}
	return out, nil
}

func (s *QuoteService) Get(ctx context.Context, userID, quoteID uint) (*models.Quote, error) {
	return s.authorized(ctx, userID, quoteID, gate.ActionView)
}

// UpdateStatus sets a quote status from the closed set.
func (s *QuoteService) UpdateStatus(ctx context.Context, userID, quoteID uint, status string) (*models.Quote, error) {
	next := models.QuoteStatus(strings.TrimSpace(status))
	if !next.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}
	q, err := s.authorized(ctx, userID, quoteID, gate.ActionUpdate)
	if err != nil {
		return nil, err
	}
	q.Status = next
	q.UpdatedAt = s.now()
	db, cancel := s.conn(ctx)
	defer cancel()
	if err := db.Model(q).Select("status", "updated_at").Updates(q).Error; err != nil {
		return nil, storeError("update quote", err)
	}
	return q, nil
}

func (s *QuoteService) Delete(ctx context.Context, userID, quoteID uint) error {
	q, err := s.authorized(ctx, userID, quoteID, gate.ActionDelete)
	if err != nil {
		return err
	}
	db, cancel := s.conn(ctx)
	defer cancel()
	return storeError("delete quote", db.Delete(&models.Quote{}, q.ID).Error)
}

func (s *QuoteService) authorized(ctx context.Context, userID, quoteID uint, action gate.Action) (*models.Quote, error) {
	actor, err := s.gate.Actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	db, cancel := s.conn(ctx)
	defer cancel()
	var q models.Quote
	if err := db.First(&q, quoteID).Error; err != nil {
		return nil, storeError("load quote", err)
	}
	if err := s.gate.Authorize(ctx, actor, action, policy.ResourceQuote, &q); err != nil {
		return nil, err
	}
	return &q, nil
}
