package policy

import "strings"

// AdminPolicy decides whether an identity may use administrative overrides.
type AdminPolicy interface {
	IsAdmin(email string) bool
}

// AdminFunc adapts a function to AdminPolicy.
type AdminFunc func(email string) bool

func (f AdminFunc) IsAdmin(email string) bool { return f(email) }

// EmailAllowlist is an AdminPolicy built from configuration. Matching ignores case and spaces.
type EmailAllowlist map[string]struct{}

// NewEmailAllowlist builds the allowlist, skipping blank entries.
func NewEmailAllowlist(emails []string) EmailAllowlist {
	l := make(EmailAllowlist, len(emails))
	for _, e := range emails {
		if e = normalizeEmail(e); e != "" {
			l[e] = struct{}{}
		}
	}
	return l
}

func (l EmailAllowlist) IsAdmin(email string) bool {
	_, ok := l[normalizeEmail(email)]
	return ok
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
