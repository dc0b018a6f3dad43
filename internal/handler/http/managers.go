package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"RewardCardPlatform/internal/service"
)

// PasswordRequest тело запроса смены пароля
type PasswordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) listManagers(w http.ResponseWriter, r *http.Request) {
	items, err := h.managers.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) createManager(w http.ResponseWriter, r *http.Request) {
	var in service.ManagerInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.managers.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// getManager служит и проверкой существования карты: 404 для удаленной карты
func (h *Handler) getManager(w http.ResponseWriter, r *http.Request) {
	m, err := h.managers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) updateManager(w http.ResponseWriter, r *http.Request) {
	var in service.ManagerInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.managers.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) deleteManager(w http.ResponseWriter, r *http.Request) {
	if err := h.managers.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateManagerPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.managers.UpdatePassword(r.Context(), chi.URLParam(r, "id"), req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
