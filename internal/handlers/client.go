package handlers

import (
	"net/http"

	"github.com/diewo77/go-repairs/httpx"
	"github.com/diewo77/go-repairs/internal/services"
)

type ClientHandler struct {
	clients *services.ClientService
}

func NewClientHandler(clients *services.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, err := sessionUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var in services.ClientInput
	if err := decode(w, r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	c, err := h.clients.Create(r.Context(), uid, in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

// List accepts ?q= plus paging.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, err := sessionUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	list, err := h.clients.List(r.Context(), uid, r.URL.Query().Get("q"), pageFrom(r))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := userAndID(w, r)
	if !ok {
		return
	}
	c, err := h.clients.Get(r.Context(), uid, id)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := userAndID(w, r)
	if !ok {
		return
	}
	var in services.ClientInput
	if err := decode(w, r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	c, err := h.clients.Update(r.Context(), uid, id, in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, id, ok := userAndID(w, r)
	if !ok {
		return
	}
	if err := h.clients.Delete(r.Context(), uid, id); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// userAndID reads the session user and the {id} path parameter, writing the error itself.
func userAndID(w http.ResponseWriter, r *http.Request) (uint, uint, bool) {
	uid, err := sessionUser(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return 0, 0, false
	}
	id, err := idParam(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return 0, 0, false
	}
	return uid, id, true
}
