// Package handlers exposes the services over HTTP. JSON in and out, except the
// public tracking page which also renders HTML.
package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-repairs/auth"
	"github.com/diewo77/go-repairs/httpx"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/internal/services"
	"github.com/go-chi/chi/v5"
)

// sessionUser returns the authenticated user id. Routes are mounted behind
// auth.RequireAuth, so a missing id is reported as unauthorized.
func sessionUser(r *http.Request) (uint, error) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return 0, models.ErrUnauthorized
	}
	return uid, nil
}

// idParam parses a positive numeric path parameter.
func idParam(r *http.Request, name string) (uint, error) {
	n, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || n == 0 {
		return 0, models.NewValidationError(map[string]string{name: "invalid"})
	}
	return uint(n), nil
}

// pageFrom reads limit and offset; invalid values fall back to defaults.
func pageFrom(r *http.Request) services.Page {
	q := r.URL.Query()
	var p services.Page
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		p.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil {
		p.Offset = n
	}
	return p
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := httpx.Decode(w, r, dst); err != nil {
		return models.NewValidationError(map[string]string{"body": "invalid_json"})
	}
	return nil
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
