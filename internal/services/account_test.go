package services

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/go-repairs/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u, est, err := e.accounts.Register(ctx, SignupInput{
		Email: " Owner@Shop.Test ", Password: "correct-horse", ShopName: "Fix It",
	})
	require.NoError(t, err)
	assert.Equal(t, "owner@shop.test", u.Email)
	assert.NotEqual(t, "correct-horse", u.Password)
	assert.Equal(t, u.ID, est.UserID)
	assert.Equal(t, models.SubscriptionTrial, est.SubscriptionStatus)
	require.NotNil(t, est.TrialEndsAt)
	assert.True(t, est.TrialEndsAt.Equal(e.now.Add(14*24*time.Hour)))
	assert.True(t, est.SubscriptionActive(e.now))

	_, _, err = e.accounts.Register(ctx, SignupInput{Email: "owner@shop.test", Password: "another-pass", ShopName: "Dup"})
	assert.ErrorIs(t, err, models.ErrConflict)

	var n int64
	require.NoError(t, e.db.Model(&models.Establishment{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestRegister_Validation(t *testing.T) {
	e := newTestEnv(t)
	_, _, err := e.accounts.Register(context.Background(), SignupInput{Email: "nope", Password: "short"})
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "invalid_email", ve.Fields["email"])
	assert.Equal(t, "too_short", ve.Fields["password"])
	assert.Equal(t, "required", ve.Fields["shop_name"])
}

func TestAuthenticate(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	uid, _ := e.signup(t, "a@shop.test", "Shop A")

	u, err := e.accounts.Authenticate(ctx, "A@shop.test", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, uid, u.ID)

	_, err = e.accounts.Authenticate(ctx, "a@shop.test", "wrong-horse")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
	_, err = e.accounts.Authenticate(ctx, "ghost@shop.test", "correct-horse")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
