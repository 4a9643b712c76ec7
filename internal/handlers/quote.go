package handlers

import (
	"net/http"

	"github.com/diewo77/go-repairs/httpx"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/internal/services"
)

type QuoteHandler struct {
	quotes *services.QuoteService
}

func NewQuoteHandler(quotes *services.QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, err := sessionUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var in services.QuoteInput
	if err := decode(w, r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	q, err := h.quotes.Create(r.Context(), uid, in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, err := sessionUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var status *models.QuoteStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := models.QuoteStatus(raw)
		status = &st
	}
	quotes, err := h.quotes.List(r.Context(), uid, status, pageFrom(r))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quotes)
}

func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := userAndID(w, r)
	if !ok {
		return
	}
	q, err := h.quotes.Get(r.Context(), uid, id)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := userAndID(w, r)
	if !ok {
		return
	}
	var in struct {
		Status string `json:"status"`
	}
	if err := decode(w, r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	q, err := h.quotes.UpdateStatus(r.Context(), uid, id, in.Status)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := userAndID(w, r)
	if !ok {
		return
	}
	if err := h.quotes.Delete(r.Context(), uid, id); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
