// Package services holds the business rules of the repair shop: tenant-scoped
// repairs, clients and quotes, the public tracking projection and shop accounts.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-repairs/gate"
	"github.com/diewo77/go-repairs/internal/metrics"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/internal/policy"
	"gorm.io/gorm"
)

// DefaultStoreTimeout bounds each store round-trip when Options leaves it unset.
const DefaultStoreTimeout = 5 * time.Second

// Options are shared by every service constructor.
type Options struct {
	StoreTimeout time.Duration
	Metrics      *metrics.Metrics
	// Now overrides the clock (tests).
	Now func() time.Time
}

type store struct {
	db      *gorm.DB
	timeout time.Duration
	metrics *metrics.Metrics
	now     func() time.Time
}

func newStore(db *gorm.DB, opts Options) store {
	s := store{db: db, timeout: opts.StoreTimeout, metrics: opts.Metrics, now: opts.Now}
	if s.timeout <= 0 {
		s.timeout = DefaultStoreTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// conn returns a session bound to a context carrying the store deadline.
func (s store) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

// storeError maps gorm failures onto the domain error taxonomy.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s", models.ErrConflict, op)
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrForbidden), errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrStoreUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %s: %w", models.ErrStoreUnavailable, op, err)
	}
}

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func (p Page) normalized() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// tenantActor authorizes a collection-level action (list, create) and returns the
// actor, which is guaranteed to own an establishment.
func tenantActor(ctx context.Context, g *policy.AuthGate, userID uint, action gate.Action, resourceType string) (policy.Actor, error) {
	actor, err := g.AuthorizeUser(ctx, userID, action, resourceType, nil)
	if err != nil {
		return policy.Actor{}, err
	}
	if actor.EstablishmentID == 0 {
		return policy.Actor{}, models.ErrForbidden
	}
	return actor, nil
}
