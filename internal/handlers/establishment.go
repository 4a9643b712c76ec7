package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/diewo77/go-repairs/httpx"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/internal/services"
	"github.com/diewo77/go-repairs/internal/storage"
)

type EstablishmentHandler struct {
	establishments *services.EstablishmentService
	logos          storage.LogoStore
	trialDays      int
}

// NewEstablishmentHandler wires the profile routes. logos may be nil when no
// object storage is configured; uploads then answer 503.
func NewEstablishmentHandler(establishments *services.EstablishmentService, logos storage.LogoStore, trialDays int) *EstablishmentHandler {
	return &EstablishmentHandler{establishments: establishments, logos: logos, trialDays: trialDays}
}

// Create opens a shop for a user who signed up without one.
func (h *EstablishmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, err := sessionUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var in services.EstablishmentInput
	if err := decode(w, r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	est, err := h.establishments.Create(r.Context(), uid, in, h.trialDays)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, est)
}

func (h *EstablishmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, err := sessionUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	est, err := h.establishments.ForUser(r.Context(), uid)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, est)
}

func (h *EstablishmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, err := sessionUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var in services.EstablishmentInput
	if err := decode(w, r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	est, err := h.establishments.Update(r.Context(), uid, in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, est)
}

// UploadLogo reads the multipart field "logo", stores it and saves its URL.
func (h *EstablishmentHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	uid, err := sessionUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if h.logos == nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "storage_unavailable", nil)
		return
	}
	est, err := h.establishments.ForUser(r.Context(), uid)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxLogoSize+64<<10)
	file, _, err := r.FormFile("logo")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httpx.WriteError(w, r, models.NewValidationError(map[string]string{"logo": "too_large"}))
			return
		}
		httpx.WriteError(w, r, models.NewValidationError(map[string]string{"logo": "required"}))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, storage.MaxLogoSize+1))
	if err != nil {
		httpx.WriteError(w, r, models.NewValidationError(map[string]string{"logo": "unreadable"}))
		return
	}

	url, err := h.logos.Upload(r.Context(), est.ID, data)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		httpx.WriteError(w, r, models.NewValidationError(map[string]string{"logo": "too_large"}))
		return
	case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrEmpty):
		httpx.WriteError(w, r, models.NewValidationError(map[string]string{"logo": "unsupported_type"}))
		return
	case err != nil:
		httpx.WriteError(w, r, err)
		return
	}
	est, err = h.establishments.SetLogo(r.Context(), uid, url)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, est)
}
