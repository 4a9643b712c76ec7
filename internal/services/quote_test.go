package services

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/go-repairs/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteCreateNumbering(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a, _ := e.signup(t, "a@shop.test", "Shop A")
	b, _ := e.signup(t, "b@shop.test", "Shop B")
	ca, err := e.clients.Create(ctx, a, ClientInput{Name: "Client A"})
	require.NoError(t, err)
	cb, err := e.clients.Create(ctx, b, ClientInput{Name: "Client B"})
	require.NoError(t, err)

	q1, err := e.quotes.Create(ctx, a, QuoteInput{ClientID: ca.ID, Total: 120})
	require.NoError(t, err)
	assert.Equal(t, "DEV-2026-0001", q1.Number)
	assert.Equal(t, models.QuoteDraft, q1.Status)
	assert.True(t, q1.ExpiresAt.Equal(e.now.Add(DefaultQuoteValidity)))

	q2, err := e.quotes.Create(ctx, a, QuoteInput{ClientID: ca.ID, Total: 80})
	require.NoError(t, err)
	assert.Equal(t, "DEV-2026-0002", q2.Number)

	// numbering is per establishment
	qb, err := e.quotes.Create(ctx, b, QuoteInput{ClientID: cb.ID})
	require.NoError(t, err)
	assert.Equal(t, "DEV-2026-0001", qb.Number)

	// deleting does not free a number
	require.NoError(t, e.quotes.Delete(ctx, a, q1.ID))
	q3, err := e.quotes.Create(ctx, a, QuoteInput{ClientID: ca.ID})
	require.NoError(t, err)
	assert.Equal(t, "DEV-2026-0003", q3.Number)

	issued := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	old, err := e.quotes.Create(ctx, a, QuoteInput{ClientID: ca.ID, IssueDate: &issued})
	require.NoError(t, err)
	assert.Equal(t, "DEV-2025-0001", old.Number)
}

func TestQuoteCreateNumbering_DeletedNewestNotReused(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a, _ := e.signup(t, "a@shop.test", "Shop A")
	c, err := e.clients.Create(ctx, a, ClientInput{Name: "Client A"})
	require.NoError(t, err)

	_, err = e.quotes.Create(ctx, a, QuoteInput{ClientID: c.ID})
	require.NoError(t, err)
	q2, err := e.quotes.Create(ctx, a, QuoteInput{ClientID: c.ID})
	require.NoError(t, err)
	require.Equal(t, "DEV-2026-0002", q2.Number)

	require.NoError(t, e.quotes.Delete(ctx, a, q2.ID))
	q3, err := e.quotes.Create(ctx, a, QuoteInput{ClientID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, "DEV-2026-0003", q3.Number)
}

func TestQuoteCreateNumbering_ContinuesAfterStoredQuotes(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a, estA := e.signup(t, "a@shop.test", "Shop A")
	c, err := e.clients.Create(ctx, a, ClientInput{Name: "Client A"})
	require.NoError(t, err)

	// rows written before the counter existed
	require.NoError(t, e.db.Create(&models.Quote{
		EstablishmentID: estA,
		ClientID:        c.ID,
		Number:          "DEV-2026-0041",
		IssueDate:       e.now,
		ExpiresAt:       e.now.Add(DefaultQuoteValidity),
		Status:          models.QuoteDraft,
	}).Error)

	q, err := e.quotes.Create(ctx, a, QuoteInput{ClientID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, "DEV-2026-0042", q.Number)
}

func TestQuoteCreate_Validation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a, _ := e.signup(t, "a@shop.test", "Shop A")
	b, _ := e.signup(t, "b@shop.test", "Shop B")
	foreign, err := e.clients.Create(ctx, b, ClientInput{Name: "Client B"})
	require.NoError(t, err)

	var ve *models.ValidationError
	_, err = e.quotes.Create(ctx, a, QuoteInput{Total: -1})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "required", ve.Fields["client_id"])
	assert.Contains(t, ve.Fields, "total")

	_, err = e.quotes.Create(ctx, a, QuoteInput{ClientID: foreign.ID})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "not_found", ve.Fields["client_id"])

	issue := e.now
	expires := e.now.Add(-time.Hour)
	_, err = e.quotes.Create(ctx, a, QuoteInput{ClientID: foreign.ID, IssueDate: &issue, ExpiresAt: &expires})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "before_issue_date", ve.Fields["expires_at"])
}

func TestQuoteStatusAndTenancy(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a, _ := e.signup(t, "a@shop.test", "Shop A")
	b, _ := e.signup(t, "b@shop.test", "Shop B")
	c, err := e.clients.Create(ctx, a, ClientInput{Name: "Client"})
	require.NoError(t, err)
	q, err := e.quotes.Create(ctx, a, QuoteInput{ClientID: c.ID, Total: 42})
	require.NoError(t, err)

	_, err = e.quotes.UpdateStatus(ctx, a, q.ID, "signed")
	assert.ErrorIs(t, err, models.ErrInvalidStatus)
	sent, err := e.quotes.UpdateStatus(ctx, a, q.ID, "sent")
	require.NoError(t, err)
	assert.Equal(t, models.QuoteSent, sent.Status)

	_, err = e.quotes.UpdateStatus(ctx, b, q.ID, "accepted")
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = e.quotes.Get(ctx, b, q.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.ErrorIs(t, e.quotes.Delete(ctx, b, q.ID), models.ErrForbidden)

	got, err := e.quotes.Get(ctx, a, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteSent, got.Status)

	sentFilter := models.QuoteSent
	list, err := e.quotes.List(ctx, a, &sentFilter, Page{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	listB, err := e.quotes.List(ctx, b, nil, Page{})
	require.NoError(t, err)
	assert.Empty(t, listB)
	bad := models.QuoteStatus("lost")
	_, err = e.quotes.List(ctx, a, &bad, Page{})
	assert.ErrorIs(t, err, models.ErrValidation)
}
