package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-repairs/internal/metrics"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/internal/repaircode"
)

// RepairReader is the read-only view of the store used by the public resolver.
type RepairReader interface {
	GetByCode(ctx context.Context, code string) (*models.Repair, error)
}

// PublicEstablishment is the shop identity shown to anonymous visitors.
type PublicEstablishment struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	LogoURL     string `json:"logo_url"`
	TicketColor string `json:"ticket_color"`
}

// PublicRepairView is everything an anonymous code holder may see. Nothing else
// about the repair (price, payment, client) leaves through it.
type PublicRepairView struct {
	Code          string              `json:"code"`
	Item          string              `json:"item"`
	Description   string              `json:"description"`
	Status        models.RepairStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Establishment PublicEstablishment `json:"establishment"`
}

// NewPublicRepairView projects a repair and its preloaded establishment.
func NewPublicRepairView(r *models.Repair) *PublicRepairView {
	return &PublicRepairView{
		Code:        r.Code,
		Item:        r.Item,
		Description: r.Description,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Establishment: PublicEstablishment{
			Name:        r.Establishment.Name,
			Phone:       r.Establishment.Phone,
			Address:     r.Establishment.Address,
			LogoURL:     r.Establishment.LogoURL,
			TicketColor: r.Establishment.AccentColor(),
		},
	}
}

// TrackingService answers anonymous lookups by repair code.
type TrackingService struct {
	repairs RepairReader
	metrics *metrics.Metrics
}

func NewTrackingService(repairs RepairReader, m *metrics.Metrics) *TrackingService {
	return &TrackingService{repairs: repairs, metrics: m}
}

// Resolve returns the public projection for code. A malformed code is reported
// as models.ErrNotFound so format errors reveal nothing; store failures stay
// models.ErrStoreUnavailable.
func (s *TrackingService) Resolve(ctx context.Context, code string) (*PublicRepairView, error) {
	norm, err := repaircode.Normalize(code)
	if err != nil {
		s.metrics.TrackingLookup(metrics.LookupInvalid)
		return nil, models.ErrNotFound
	}
	repair, err := s.repairs.GetByCode(ctx, norm)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrInvalidCodeFormat):
		s.metrics.TrackingLookup(metrics.LookupNotFound)
		return nil, models.ErrNotFound
	case errors.Is(err, models.ErrStoreUnavailable):
		s.metrics.TrackingLookup(metrics.LookupUnavailable)
		return nil, err
	default:
		s.metrics.TrackingLookup(metrics.LookupUnavailable)
		return nil, fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
	}
	s.metrics.TrackingLookup(metrics.LookupFound)
	return NewPublicRepairView(repair), nil
}
