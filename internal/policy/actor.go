package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/go-repairs/gate"
	"github.com/diewo77/go-repairs/internal/models"
	"gorm.io/gorm"
)

// Actor is the authorization subject: an authenticated user with its resolved tenant.
// EstablishmentID is 0 for a user who has not created a shop yet. The zero Actor is anonymous.
type Actor struct {
	UserID          uint
	EstablishmentID uint
	Admin           bool
}

// ActorResolver turns a session user id into an Actor, caching results for a short TTL.
type ActorResolver struct {
	db      *gorm.DB
	admins  AdminPolicy
	cache   *gate.Cache[uint, Actor]
	timeout time.Duration
}

// NewActorResolver builds a resolver. admins may be nil (nobody is admin).
func NewActorResolver(db *gorm.DB, admins AdminPolicy, ttl, timeout time.Duration) *ActorResolver {
	if admins == nil {
		admins = EmailAllowlist(nil)
	}
	return &ActorResolver{db: db, admins: admins, cache: gate.NewCache[uint, Actor](ttl), timeout: timeout}
}

// Resolve returns the actor for userID. Unknown users fail with models.ErrUnauthorized
// and store failures with models.ErrStoreUnavailable.
func (r *ActorResolver) Resolve(ctx context.Context, userID uint) (Actor, error) {
	if userID == 0 {
		return Actor{}, models.ErrUnauthorized
	}
	return r.cache.GetOrLoad(ctx, userID, r.load)
}

// Invalidate forgets the cached actor, e.g. after the user created its establishment.
func (r *ActorResolver) Invalidate(userID uint) {
	r.cache.Invalidate(userID)
}

func (r *ActorResolver) load(ctx context.Context, userID uint) (Actor, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Actor{}, models.ErrUnauthorized
		}
		return Actor{}, fmt.Errorf("%w: load user: %v", models.ErrStoreUnavailable, err)
	}
	actor := Actor{UserID: user.ID, Admin: r.admins.IsAdmin(user.Email)}

	var est models.Establishment
	err := r.db.WithContext(ctx).Select("id").Where("user_id = ?", user.ID).First(&est).Error
	switch {
	case err == nil:
		actor.EstablishmentID = est.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return Actor{}, fmt.Errorf("%w: load establishment: %v", models.ErrStoreUnavailable, err)
	}
	return actor, nil
}
