// Package repaircode generates and canonicalizes the public tracking codes printed on repair tickets.
package repaircode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/diewo77/go-repairs/internal/models"
)

const (
	// Alphabet has no look-alike glyphs (0/O, 1/I/L) so codes survive being read aloud or retyped.
	Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	// Length gives 31^8 (about 8.5e11) possible codes.
	Length = 8
	// DefaultMaxAttempts bounds the retry loop on collisions.
	DefaultMaxAttempts = 5
	// MaxInputLength rejects absurd public input before it reaches the store.
	MaxInputLength = 32
)

// ErrCodeSpaceExhausted is returned when every attempt collided with an existing code.
var ErrCodeSpaceExhausted = errors.New("repair code generation exhausted its attempts")

// ExistsFunc reports whether a code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator produces unique codes, checking candidates against the store.
type Generator struct {
	exists      ExistsFunc
	maxAttempts int
	random      io.Reader
}

// Option customizes a Generator.
type Option func(*Generator)

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithRandom replaces crypto/rand as the entropy source (tests only).
func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.random = r }
}

// NewGenerator returns a Generator. exists may be nil when uniqueness is enforced elsewhere.
func NewGenerator(exists ExistsFunc, opts ...Option) *Generator {
	g := &Generator{exists: exists, maxAttempts: DefaultMaxAttempts, random: rand.Reader}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a code not currently present in the store.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		code, err := g.random8()
		if err != nil {
			return "", err
		}
		if g.exists == nil {
			return code, nil
		}
		taken, err := g.exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w (%d attempts)", ErrCodeSpaceExhausted, g.maxAttempts)
}

// MaxAttempts is the configured retry bound.
func (g *Generator) MaxAttempts() int { return g.maxAttempts }

func (g *Generator) random8() (string, error) {
	limit := big.NewInt(int64(len(Alphabet)))
	var b strings.Builder
	b.Grow(Length)
	for i := 0; i < Length; i++ {
		n, err := rand.Int(g.random, limit)
		if err != nil {
			return "", fmt.Errorf("read entropy: %w", err)
		}
		b.WriteByte(Alphabet[n.Int64()])
	}
	return b.String(), nil
}

// Normalize trims and upper-cases input. It fails with models.ErrInvalidCodeFormat when the
// result is empty, too long, or contains anything other than ASCII letters and digits.
func Normalize(input string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(input))
	if code == "" || len(code) > MaxInputLength {
		return "", models.ErrInvalidCodeFormat
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return "", models.ErrInvalidCodeFormat
		}
	}
	return code, nil
}
