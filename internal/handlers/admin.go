package handlers

import (
	"net/http"

	"github.com/diewo77/go-repairs/httpx"
	"github.com/diewo77/go-repairs/internal/services"
)

// AdminHandler exposes the administrative overrides. Routes sit behind policy.AuthGate.RequireAdmin;
// the service checks again.
type AdminHandler struct {
	establishments *services.EstablishmentService
}

func NewAdminHandler(establishments *services.EstablishmentService) *AdminHandler {
	return &AdminHandler{establishments: establishments}
}

func (h *AdminHandler) ListEstablishments(w http.ResponseWriter, r *http.Request) {
	uid, err := sessionUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	all, err := h.establishments.ListAll(r.Context(), uid)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, all)
}

func (h *AdminHandler) OverrideSubscription(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := userAndID(w, r)
	if !ok {
		return
	}
	var in services.SubscriptionOverride
	if err := decode(w, r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	est, err := h.establishments.OverrideSubscription(r.Context(), uid, id, in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, est)
}
