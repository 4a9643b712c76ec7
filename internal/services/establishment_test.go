package services

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/go-repairs/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstablishment_ForUserAndUpdate(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	uid, estID := e.signup(t, "a@shop.test", "Shop A")

	est, err := e.establishments.ForUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, estID, est.ID)

	_, err = e.establishments.Update(ctx, uid, EstablishmentInput{Name: "", TicketColor: "red"})
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "required", ve.Fields["name"])
	assert.Equal(t, "invalid_color", ve.Fields["ticket_color"])

	updated, err := e.establishments.Update(ctx, uid, EstablishmentInput{
		Name: "Shop A+", Phone: "0999", TicketColor: "#10b981", FooterMessage: "Merci !",
	})
	require.NoError(t, err)
	assert.Equal(t, "Shop A+", updated.Name)
	assert.Equal(t, models.SubscriptionTrial, updated.SubscriptionStatus)

	reloaded, err := e.establishments.ForUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "#10b981", reloaded.AccentColor())
	assert.Equal(t, "Merci !", reloaded.FooterMessage)

	withLogo, err := e.establishments.SetLogo(ctx, uid, "http://cdn.test/logos/x.png")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.test/logos/x.png", withLogo.LogoURL)
}

func TestEstablishment_CreateForNewcomer(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	uid := e.newUser(t, "new@shop.test")

	_, err := e.establishments.ForUser(ctx, uid)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = e.repairs.Create(ctx, uid, CreateRepairInput{Item: "Phone"})
	assert.ErrorIs(t, err, models.ErrValidation)

	est, err := e.establishments.Create(ctx, uid, EstablishmentInput{Name: "Late Shop"}, 7)
	require.NoError(t, err)
	require.NotNil(t, est.TrialEndsAt)
	assert.True(t, est.TrialEndsAt.Equal(e.now.AddDate(0, 0, 7)))

	// the cached actor was dropped, so the new shop is usable right away
	_, err = e.repairs.Create(ctx, uid, CreateRepairInput{Item: "Phone"})
	require.NoError(t, err)

	_, err = e.establishments.Create(ctx, uid, EstablishmentInput{Name: "Second"}, 7)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestEstablishment_AdminOverride(t *testing.T) {
	e := newTestEnv(t, "root@ops.test")
	ctx := context.Background()
	owner, estID := e.signup(t, "a@shop.test", "Shop A")
	admin, _ := e.signup(t, "root@ops.test", "Ops")

	_, err := e.establishments.ListAll(ctx, owner)
	assert.ErrorIs(t, err, models.ErrForbidden)
	all, err := e.establishments.ListAll(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ends := e.now.Add(30 * 24 * time.Hour)
	_, err = e.establishments.OverrideSubscription(ctx, owner, estID, SubscriptionOverride{Status: models.SubscriptionActive, EndsAt: &ends})
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = e.establishments.OverrideSubscription(ctx, admin, estID, SubscriptionOverride{Status: "gold"})
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = e.establishments.OverrideSubscription(ctx, admin, 999, SubscriptionOverride{Status: models.SubscriptionExpired})
	assert.ErrorIs(t, err, models.ErrNotFound)

	est, err := e.establishments.OverrideSubscription(ctx, admin, estID, SubscriptionOverride{Status: models.SubscriptionActive, EndsAt: &ends})
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, est.SubscriptionStatus)
	assert.True(t, est.SubscriptionActive(e.now))
	assert.False(t, est.SubscriptionActive(ends.Add(time.Second)))

	est, err = e.establishments.OverrideSubscription(ctx, admin, estID, SubscriptionOverride{Status: models.SubscriptionCancelled})
	require.NoError(t, err)
	assert.False(t, est.SubscriptionActive(e.now))
}

func TestEstablishment_ExtendSubscription(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, estID := e.signup(t, "a@shop.test", "Shop A")

	_, err := e.establishments.ExtendSubscription(ctx, estID, 0)
	assert.ErrorIs(t, err, models.ErrValidation)

	est, err := e.establishments.ExtendSubscription(ctx, estID, 30)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, est.SubscriptionStatus)
	require.NotNil(t, est.SubscriptionEndsAt)
	first := *est.SubscriptionEndsAt
	assert.True(t, first.Equal(e.now.AddDate(0, 0, 30)))

	// extending an active subscription stacks onto the current expiry
	est, err = e.establishments.ExtendSubscription(ctx, estID, 10)
	require.NoError(t, err)
	assert.True(t, est.SubscriptionEndsAt.Equal(first.AddDate(0, 0, 10)))
}
