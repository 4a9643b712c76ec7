// Package validation collects field violations before a request reaches the store.
package validation

import (
	"net/mail"
	"regexp"
	"strings"
)

// Violations maps a field name to a violation code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators. Each records at most one violation per field.
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func MaxLength(field, value string, maxLen int, v Violations) {
	if len([]rune(value)) > maxLen {
		v[field] = "too_long"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func NonNegativeFloat(field string, val float64, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v[field] = "out_of_range"
	}
}

// Email accepts an empty value; use Required for mandatory emails.
func Email(field, value string, v Violations) {
	if value == "" {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v[field] = "invalid_email"
	}
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// HexColor accepts an empty value or #RRGGBB.
func HexColor(field, value string, v Violations) {
	if value != "" && !hexColor.MatchString(value) {
		v[field] = "invalid_color"
	}
}

// MinLength checks rune length; used for passwords.
func MinLength(field, value string, minLen int, v Violations) {
	if len([]rune(value)) < minLen {
		v[field] = "too_short"
	}
}
