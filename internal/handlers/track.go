package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/diewo77/go-repairs/httpx"
	"github.com/diewo77/go-repairs/internal/logger"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/internal/services"
	"github.com/diewo77/go-repairs/view"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Resolver answers public lookups.
type Resolver interface {
	Resolve(ctx context.Context, code string) (*services.PublicRepairView, error)
}

// TrackHandler serves the anonymous tracking page and its JSON twin.
type TrackHandler struct {
	tracking Resolver
}

func NewTrackHandler(tracking Resolver) *TrackHandler {
	return &TrackHandler{tracking: tracking}
}

// Show resolves {code}. Failures never say more than "not found" or "unavailable".
func (h *TrackHandler) Show(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	v, err := h.tracking.Resolve(r.Context(), code)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		logger.FromContext(r.Context()).Error("tracking lookup failed", zap.Error(err))
	}

	if wantsHTML(r) {
		status := http.StatusOK
		switch {
		case errors.Is(err, models.ErrNotFound):
			status = http.StatusNotFound
		case err != nil:
			status = http.StatusServiceUnavailable
		}
		data := map[string]any{"View": v, "Code": code}
		if err != nil {
			data["View"] = nil
		}
		if rerr := view.Render(w, r, status, "track.html", data); rerr != nil {
			logger.FromContext(r.Context()).Error("render tracking page", zap.Error(rerr))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, v)
	case errors.Is(err, models.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not found", nil)
	default:
		httpx.JSONError(w, http.StatusServiceUnavailable, "service unavailable", nil)
	}
}

// Lookup handles the search form: /track?code=X redirects to /track/X.
func (h *TrackHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		if err := view.Render(w, r, http.StatusOK, "track.html", map[string]any{"View": nil, "Empty": true}); err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}
	http.Redirect(w, r, "/track/"+url.PathEscape(code), http.StatusSeeOther)
}
