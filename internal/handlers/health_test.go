package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	ok := Healthz(func(context.Context) error { return nil })
	rec := httptest.NewRecorder()
	ok(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := Healthz(func(context.Context) error { return errors.New("connection refused") })
	rec = httptest.NewRecorder()
	down(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded"}`, rec.Body.String())
}

func TestIDParamAndPage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?limit=10&offset=abc", nil)
	p := pageFrom(r)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 0, p.Offset)

	_, err := idParam(r, "id")
	assert.Error(t, err)
}
