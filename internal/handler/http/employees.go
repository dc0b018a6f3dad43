package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"RewardCardPlatform/internal/service"
)

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	items, err := h.employees.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	var in service.EmployeeInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	e, err := h.employees.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.employees.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	var upd service.EmployeeUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		h.writeError(w, r, err)
		return
	}
	e, err := h.employees.Update(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// deleteEmployee удаляет сотрудника вместе с его картами
func (h *Handler) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.employees.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
