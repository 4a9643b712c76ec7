package services

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/go-repairs/gate"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/internal/policy"
	"github.com/diewo77/go-repairs/internal/repaircode"
	"github.com/diewo77/go-repairs/validation"
	"gorm.io/gorm"
)

const (
	maxItemLength        = 255
	maxDescriptionLength = 4000
)

// CreateRepairInput carries the fields a shop provides when taking in a device.
type CreateRepairInput struct {
	ClientID    *uint    `json:"client_id"`
	Item        string   `json:"item"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
}

func (in CreateRepairInput) validate() validation.Violations {
	v := make(validation.Violations)
	validation.Required("item", in.Item, v)
	validation.MaxLength("item", in.Item, maxItemLength, v)
	validation.MaxLength("description", in.Description, maxDescriptionLength, v)
	if in.Price != nil {
		validation.NonNegativeFloat("price", *in.Price, v)
	}
	return v
}

// Order of a repair listing by creation time.
type Order string

const (
	NewestFirst Order = "desc"
	OldestFirst Order = "asc"
)

// ParseOrder accepts "asc" or "desc" (default).
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc":
		return NewestFirst, nil
	case "asc":
		return OldestFirst, nil
	default:
		return "", models.NewValidationError(validation.Violations{"order": "invalid"})
	}
}

// ListOptions filters and pages a repair listing.
type ListOptions struct {
	Status *models.RepairStatus
	Order  Order
	Page
}

// RepairList is one page of repairs and the total matching the filter.
type RepairList struct {
	Items []models.Repair `json:"items"`
	Total int64           `json:"total"`
}

// RepairStats summarizes an establishment's workload and takings.
type RepairStats struct {
	ByStatus map[models.RepairStatus]int64 `json:"by_status"`
	Total    int64                         `json:"total"`
	// Revenue sums paid amounts, cancelled repairs excluded.
	Revenue float64 `json:"revenue"`
	// Outstanding sums quoted prices of unpaid, non-cancelled repairs.
	Outstanding float64 `json:"outstanding"`
}

// RepairService owns the repair lifecycle.
type RepairService struct {
	store
	gate  *policy.AuthGate
	codes *repaircode.Generator
}

// NewRepairService wires the service. codeOpts tune the code generator.
func NewRepairService(db *gorm.DB, g *policy.AuthGate, opts Options, codeOpts ...repaircode.Option) *RepairService {
	s := &RepairService{store: newStore(db, opts), gate: g}
	s.codes = repaircode.NewGenerator(s.ExistsByCode, codeOpts...)
	return s
}

// Create registers a new repair for the actor's establishment.
func (s *RepairService) Create(ctx context.Context, userID uint, in CreateRepairInput) (*models.Repair, error) {
	if v := in.validate(); !v.Empty() {
		return nil, models.NewValidationError(v)
	}
	actor, err := s.gate.Actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actor.EstablishmentID == 0 {
		return nil, models.NewValidationError(validation.Violations{"establishment_id": "not_found"})
	}
	if err := s.gate.Authorize(ctx, actor, gate.ActionCreate, policy.ResourceRepair, nil); err != nil {
		return nil, err
	}
	return s.CreateForEstablishment(ctx, actor.EstablishmentID, in)
}

// CreateForEstablishment inserts a repair without an actor. Callers are trusted
// (the admin CLI); the establishment and client are still checked.
func (s *RepairService) CreateForEstablishment(ctx context.Context, establishmentID uint, in CreateRepairInput) (*models.Repair, error) {
	if v := in.validate(); !v.Empty() {
		return nil, models.NewValidationError(v)
	}
	db, cancel := s.conn(ctx)
	defer cancel()

	var est models.Establishment
	if err := db.Select("id").First(&est, establishmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewValidationError(validation.Violations{"establishment_id": "not_found"})
		}
		return nil, storeError("load establishment", err)
	}
	if in.ClientID != nil {
		var c models.Client
		err := db.Select("id", "establishment_id").First(&c, *in.ClientID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && c.EstablishmentID != establishmentID) {
			return nil, models.NewValidationError(validation.Violations{"client_id": "not_found"})
		}
		if err != nil {
			return nil, storeError("load client", err)
		}
	}

	now := s.now()
	repair := models.Repair{
		EstablishmentID: establishmentID,
		ClientID:        in.ClientID,
		Item:            strings.TrimSpace(in.Item),
		Description:     strings.TrimSpace(in.Description),
		Status:          models.StatusNew,
		Price:           in.Price,
		PaymentStatus:   models.PaymentUnpaid,
	}
	// The existence check inside Generate narrows the window; the unique index closes it.
	for attempt := 0; attempt < s.codes.MaxAttempts(); attempt++ {
		code, err := s.codes.Generate(ctx)
		if err != nil {
			if errors.Is(err, repaircode.ErrCodeSpaceExhausted) {
				return nil, err
			}
			return nil, storeError("generate code", err)
		}
		repair.ID = 0
		repair.Code = code
		repair.CreatedAt, repair.UpdatedAt = now, now
		err = db.Create(&repair).Error
		if err == nil {
			s.metrics.RepairCreated()
			return &repair, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, storeError("create repair", err)
		}
		s.metrics.CodeCollision()
	}
	return nil, repaircode.ErrCodeSpaceExhausted
}

// ExistsByCode reports whether code is taken. code must already be normalized.
func (s *RepairService) ExistsByCode(ctx context.Context, code string) (bool, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	var n int64
	if err := db.Model(&models.Repair{}).Where("code = ?", code).Count(&n).Error; err != nil {
		return false, storeError("check code", err)
	}
	if n > 0 {
		s.metrics.CodeCollision()
	}
	return n > 0, nil
}

// UpdateStatus moves a repair to status. Any transition is accepted; concurrent
// updates resolve as last write wins.
func (s *RepairService) UpdateStatus(ctx context.Context, userID, repairID uint, status string) (*models.Repair, error) {
	next, err := models.ParseRepairStatus(status)
	if err != nil {
		return nil, err
	}
	repair, actor, err := s.authorized(ctx, userID, repairID, gate.ActionUpdate)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.update(ctx, repair.ID, actor.EstablishmentID, map[string]any{
		"status":     next,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}
	repair.Status = next
	repair.UpdatedAt = now
	s.metrics.StatusUpdated(string(next))
	return repair, nil
}

// RecordPayment marks the repair paid with amount.
func (s *RepairService) RecordPayment(ctx context.Context, userID, repairID uint, amount float64) (*models.Repair, error) {
	v := make(validation.Violations)
	validation.NonNegativeFloat("amount", amount, v)
	if !v.Empty() {
		return nil, models.NewValidationError(v)
	}
	repair, actor, err := s.authorized(ctx, userID, repairID, gate.ActionUpdate)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.update(ctx, repair.ID, actor.EstablishmentID, map[string]any{
		"payment_status": models.PaymentPaid,
		"paid_amount":    amount,
		"updated_at":     now,
	}); err != nil {
		return nil, err
	}
	repair.PaymentStatus = models.PaymentPaid
	repair.PaidAmount = &amount
	repair.UpdatedAt = now
	return repair, nil
}

// Get returns the full record of one of the actor's repairs.
func (s *RepairService) Get(ctx context.Context, userID, repairID uint) (*models.Repair, error) {
	repair, _, err := s.authorized(ctx, userID, repairID, gate.ActionView)
	return repair, err
}

// GetByCode looks a repair up by its public code, ignoring case and surrounding spaces.
// Only the establishment is preloaded: the public projection never shows the client.
func (s *RepairService) GetByCode(ctx context.Context, code string) (*models.Repair, error) {
	return s.findByCode(ctx, code, "Establishment")
}

// GetRecordByCode is GetByCode with the client attached, for operator tooling.
func (s *RepairService) GetRecordByCode(ctx context.Context, code string) (*models.Repair, error) {
	return s.findByCode(ctx, code, "Establishment", "Client")
}

func (s *RepairService) findByCode(ctx context.Context, code string, preloads ...string) (*models.Repair, error) {
	norm, err := repaircode.Normalize(code)
	if err != nil {
		return nil, err
	}
	db, cancel := s.conn(ctx)
	defer cancel()
	for _, p := range preloads {
		db = db.Preload(p)
	}
	var repair models.Repair
	if err := db.Where("code = ?", norm).First(&repair).Error; err != nil {
		return nil, storeError("load repair by code", err)
	}
	return &repair, nil
}

// ListByEstablishment pages the actor's repairs, newest first unless asked otherwise.
func (s *RepairService) ListByEstablishment(ctx context.Context, userID uint, opts ListOptions) (*RepairList, error) {
	actor, err := tenantActor(ctx, s.gate, userID, gate.ActionList, policy.ResourceRepair)
	if err != nil {
		return nil, err
	}
	return s.listForEstablishment(ctx, actor.EstablishmentID, opts)
}

func (s *RepairService) listForEstablishment(ctx context.Context, establishmentID uint, opts ListOptions) (*RepairList, error) {
	if opts.Status != nil && !opts.Status.Valid() {
		return nil, models.ErrInvalidStatus
	}
	page := opts.Page.normalized()
	db, cancel := s.conn(ctx)
	defer cancel()

	q := db.Model(&models.Repair{}).Where("establishment_id = ?", establishmentID)
	if opts.Status != nil {
		q = q.Where("status = ?", *opts.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, storeError("count repairs", err)
	}
	order := "created_at DESC, id DESC"
	if opts.Order == OldestFirst {
		order = "created_at ASC, id ASC"
	}
	items := make([]models.Repair, 0)
	if err := q.Preload("Client").Order(order).Limit(page.Limit).Offset(page.Offset).Find(&items).Error; err != nil {
		return nil, storeError("list repairs", err)
	}
	return &RepairList{Items: items, Total: total}, nil
}

// Stats aggregates the actor's repairs.
func (s *RepairService) Stats(ctx context.Context, userID uint) (*RepairStats, error) {
	actor, err := tenantActor(ctx, s.gate, userID, gate.ActionList, policy.ResourceRepair)
	if err != nil {
		return nil, err
	}
	db, cancel := s.conn(ctx)
	defer cancel()

	var rows []struct {
		Status models.RepairStatus
		Count  int64
	}
	if err := db.Model(&models.Repair{}).
		Select("status, count(*) as count").
		Where("establishment_id = ?", actor.EstablishmentID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, storeError("count by status", err)
	}
	stats := &RepairStats{ByStatus: make(map[models.RepairStatus]int64, len(models.RepairStatuses))}
	for _, st := range models.RepairStatuses {
		stats.ByStatus[st] = 0
	}
	for _, r := range rows {
		stats.ByStatus[r.Status] = r.Count
		stats.Total += r.Count
	}

	var sums struct {
		Revenue     float64
		Outstanding float64
	}
	if err := db.Model(&models.Repair{}).
		Select(
			"COALESCE(SUM(CASE WHEN payment_status = ? THEN paid_amount ELSE 0 END), 0) AS revenue, "+
				"COALESCE(SUM(CASE WHEN payment_status = ? THEN price ELSE 0 END), 0) AS outstanding",
			models.PaymentPaid, models.PaymentUnpaid,
		).
		Where("establishment_id = ? AND status <> ?", actor.EstablishmentID, models.StatusCancelled).
		Scan(&sums).Error; err != nil {
		return nil, storeError("sum revenue", err)
	}
	stats.Revenue = sums.Revenue
	stats.Outstanding = sums.Outstanding
	return stats, nil
}

// authorized loads a repair and checks that the actor may perform action on it.
// A missing id is ErrNotFound, a foreign tenant's repair ErrForbidden.
func (s *RepairService) authorized(ctx context.Context, userID, repairID uint, action gate.Action) (*models.Repair, policy.Actor, error) {
	actor, err := s.gate.Actor(ctx, userID)
	if err != nil {
		return nil, policy.Actor{}, err
	}
	db, cancel := s.conn(ctx)
	defer cancel()
	var repair models.Repair
	if err := db.Preload("Client").First(&repair, repairID).Error; err != nil {
		return nil, policy.Actor{}, storeError("load repair", err)
	}
	if err := s.gate.Authorize(ctx, actor, action, policy.ResourceRepair, &repair); err != nil {
		return nil, policy.Actor{}, err
	}
	return &repair, actor, nil
}

func (s *RepairService) update(ctx context.Context, repairID, establishmentID uint, fields map[string]any) error {
	db, cancel := s.conn(ctx)
	defer cancel()
	res := db.Model(&models.Repair{}).
		Where("id = ? AND establishment_id = ?", repairID, establishmentID).
		Updates(fields)
	if res.Error != nil {
		return storeError("update repair", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
