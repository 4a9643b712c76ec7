package handlers

import (
	"net/http"

	"github.com/diewo77/go-repairs/httpx"
	"github.com/diewo77/go-repairs/internal/models"
	"github.com/diewo77/go-repairs/internal/services"
	"github.com/diewo77/go-repairs/internal/timeline"
)

type RepairHandler struct {
	repairs *services.RepairService
}

func NewRepairHandler(repairs *services.RepairService) *RepairHandler {
	return &RepairHandler{repairs: repairs}
}

func (h *RepairHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, err := sessionUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var in services.CreateRepairInput
	if err := decode(w, r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	repair, err := h.repairs.Create(r.Context(), uid, in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, repair)
}

// List accepts ?status=, ?order=asc|desc, ?limit= and ?offset=.
func (h *RepairHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, err := sessionUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	order, err := services.ParseOrder(r.URL.Query().Get("order"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	opts := services.ListOptions{Order: order, Page: pageFrom(r)}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := models.ParseRepairStatus(raw)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		opts.Status = &st
	}
	list, err := h.repairs.ListByEstablishment(r.Context(), uid, opts)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *RepairHandler) Stats(w http.ResponseWriter, r *http.Request) {
	uid, err := sessionUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	stats, err := h.repairs.Stats(r.Context(), uid)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *RepairHandler) Get(w http.ResponseWriter, r *http.Request) {
	repair, ok := h.load(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, repair)
}

func (h *RepairHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	uid, err := sessionUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var in struct {
		Status string `json:"status"`
	}
	if err := decode(w, r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	repair, err := h.repairs.UpdateStatus(r.Context(), uid, id, in.Status)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, repair)
}

func (h *RepairHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	uid, err := sessionUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var in struct {
		Amount *float64 `json:"amount"`
	}
	if err := decode(w, r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if in.Amount == nil {
		httpx.WriteError(w, r, models.NewValidationError(map[string]string{"amount": "required"}))
		return
	}
	repair, err := h.repairs.RecordPayment(r.Context(), uid, id, *in.Amount)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, repair)
}

type timelineResponse struct {
	Status    models.RepairStatus `json:"status"`
	Cancelled bool                `json:"cancelled"`
	Progress  float64             `json:"progress"`
	Steps     []timeline.Step     `json:"steps"`
}

// Timeline returns the progress steps of one repair.
func (h *RepairHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	repair, ok := h.load(w, r)
	if !ok {
		return
	}
	steps, err := timeline.ComputeSteps(repair.Status)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, timelineResponse{
		Status:    repair.Status,
		Cancelled: timeline.IsCancelled(repair.Status),
		Progress:  timeline.Progress(repair.Status),
		Steps:     steps,
	})
}

func (h *RepairHandler) load(w http.ResponseWriter, r *http.Request) (*models.Repair, bool) {
	uid, id, ok := userAndID(w, r)
	if !ok {
		return nil, false
	}
	repair, err := h.repairs.Get(r.Context(), uid, id)
	if err != nil {
		httpx.WriteError(w, r, err)
		return nil, false
	}
	return repair, true
}
