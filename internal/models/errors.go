package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors shared by services and transport. Callers match them with errors.Is.
var (
	ErrValidation        = errors.New("validation_failed")
	ErrInvalidCodeFormat = fmt.Errorf("%w: invalid_code_format", ErrValidation)
	ErrInvalidStatus     = fmt.Errorf("%w: invalid_status", ErrValidation)
	ErrNotFound          = errors.New("not_found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrStoreUnavailable  = errors.New("store_unavailable")
)

// ValidationError carries per-field violation codes ("required", "out_of_range", ...).
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError from a field/code map.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+e.Fields[k])
	}
	return "validation_failed: " + strings.Join(parts, ", ")
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error { return ErrValidation }
