package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/diewo77/go-repairs/auth"
	"github.com/diewo77/go-repairs/httpx"
	"github.com/diewo77/go-repairs/internal/models"
)

// EstablishmentLookup finds the shop of a user.
type EstablishmentLookup interface {
	ForUser(ctx context.Context, userID uint) (*models.Establishment, error)
}

// RequireActiveSubscription blocks writes with 402 when the caller's shop is past its trial
// or paid period. Reads always pass, and users without a shop are left to the access gate.
func RequireActiveSubscription(shops EstablishmentLookup, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			uid, ok := auth.UserIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			est, err := shops.ForUser(r.Context(), uid)
			if errors.Is(err, models.ErrNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				httpx.WriteError(w, r, err)
				return
			}
			if !est.SubscriptionActive(now()) {
				httpx.JSONError(w, http.StatusPaymentRequired, "subscription_expired", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
