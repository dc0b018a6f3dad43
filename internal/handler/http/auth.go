package http

import (
	"net/http"
)

// LoginByIDRequest тело запроса входа по идентификатору карты
type LoginByIDRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// LoginRequest тело запроса входа по имени
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginByID проверяет пароль руководителя. Сессией управляет клиент,
// сервер только подтверждает учетные данные.
func (h *Handler) loginByID(w http.ResponseWriter, r *http.Request) {
	var req LoginByIDRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	info, err := h.managers.VerifyCredentials(r.Context(), req.ID, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	info, err := h.managers.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
