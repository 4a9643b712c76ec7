package repaircode

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/diewo77/go-repairs/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_FormatAndIdempotentNormalize(t *testing.T) {
	g := NewGenerator(nil)
	for i := 0; i < 200; i++ {
		code, err := g.Generate(context.Background())
		require.NoError(t, err)
		require.Len(t, code, Length)
		for _, c := range code {
			require.True(t, strings.ContainsRune(Alphabet, c), "unexpected rune %q in %s", c, code)
		}
		norm, err := Normalize(code)
		require.NoError(t, err)
		assert.Equal(t, code, norm)
	}
}

func TestGenerate_RetriesOnCollision(t *testing.T) {
	calls := 0
	exists := func(_ context.Context, _ string) (bool, error) {
		calls++
		return calls < 3, nil
	}
	code, err := NewGenerator(exists).Generate(context.Background())
	require.NoError(t, err)
	assert.Len(t, code, Length)
	assert.Equal(t, 3, calls)
}

func TestGenerate_ExhaustedAttempts(t *testing.T) {
	calls := 0
	exists := func(_ context.Context, _ string) (bool, error) {
		calls++
		return true, nil
	}
	_, err := NewGenerator(exists, WithMaxAttempts(4)).Generate(context.Background())
	require.ErrorIs(t, err, ErrCodeSpaceExhausted)
	assert.Equal(t, 4, calls)
}

func TestGenerate_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	exists := func(_ context.Context, _ string) (bool, error) { return false, boom }
	_, err := NewGenerator(exists).Generate(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestGenerate_DeterministicWithFixedEntropy(t *testing.T) {
	g := NewGenerator(nil, WithRandom(bytes.NewReader(make([]byte, 64))))
	code, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("A", Length), code)
}

func TestGenerate_EntropyFailure(t *testing.T) {
	g := NewGenerator(nil, WithRandom(bytes.NewReader(nil)))
	_, err := g.Generate(context.Background())
	require.Error(t, err)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"ABC123", "ABC123", false},
		{"abc123", "ABC123", false},
		{"  xk7p2m9q \n", "XK7P2M9Q", false},
		{"", "", true},
		{"   ", "", true},
		{"DOES-NOT-EXIST", "", true},
		{"abc 123", "", true},
		{"ÉTÉ", "", true},
		{strings.Repeat("A", MaxInputLength+1), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, models.ErrInvalidCodeFormat)
				require.ErrorIs(t, err, models.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
