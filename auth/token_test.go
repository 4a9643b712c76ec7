package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_IssueVerify(t *testing.T) {
	m := NewManager("secret", time.Hour, nil)
	token, claims, err := m.Issue(42)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, "42", claims.Subject)

	got, err := m.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), got.UserID)
	assert.Equal(t, claims.ID, got.ID)
}

func TestManager_RejectsWrongSecret(t *testing.T) {
	token, _, err := NewManager("one", time.Hour, nil).Issue(1)
	require.NoError(t, err)
	_, err = NewManager("two", time.Hour, nil).Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsExpired(t *testing.T) {
	m := NewManager("secret", time.Minute, nil)
	now := time.Now()
	m.now = func() time.Time { return now }
	token, _, err := m.Issue(1)
	require.NoError(t, err)

	m.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = m.Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewManager("secret", time.Hour, nil).Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_Revoke(t *testing.T) {
	m := NewManager("secret", time.Hour, NewMemoryRevoker(time.Minute))
	token, claims, err := m.Issue(7)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(context.Background(), claims))
	_, err = m.Verify(context.Background(), token)
	require.ErrorIs(t, err, ErrRevokedToken)

	other, _, err := m.Issue(7)
	require.NoError(t, err)
	_, err = m.Verify(context.Background(), other)
	require.NoError(t, err)
}

func TestMemoryRevoker_PastExpiryIsNoop(t *testing.T) {
	r := NewMemoryRevoker(time.Minute)
	require.NoError(t, r.Revoke(context.Background(), "jti", time.Now().Add(-time.Second)))
	revoked, err := r.IsRevoked(context.Background(), "jti")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "battery staple"))
}
