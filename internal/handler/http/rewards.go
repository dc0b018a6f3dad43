package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/internal/service"
)

// RedeemRequest тело запроса погашения. Одобривший администратор
// погашает карту напрямую, остальные проходят проверку роли.
type RedeemRequest struct {
	CardID   string          `json:"cardId"`
	Approver domain.Approver `json:"approver"`
}

func (h *Handler) listRewards(w http.ResponseWriter, r *http.Request) {
	var (
		items []*domain.RewardCard
		err   error
	)
	if employeeID := r.URL.Query().Get("employeeId"); employeeID != "" {
		items, err = h.cards.ListByEmployee(r.Context(), employeeID)
	} else {
		items, err = h.cards.List(r.Context())
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) listRedeemed(w http.ResponseWriter, r *http.Request) {
	items, err := h.cards.ListRedeemed(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.cards.Summary(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) issueReward(w http.ResponseWriter, r *http.Request) {
	var req service.IssueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	card, err := h.cards.Issue(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (h *Handler) redeemReward(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.CardID == "" {
		h.writeError(w, r, domain.Validation("cardId is required"))
		return
	}

	var (
		card *domain.RewardCard
		err  error
	)
	if req.Approver.IsAdmin() {
		card, err = h.cards.RedeemAsAdmin(r.Context(), req.CardID)
	} else {
		card, err = h.cards.Redeem(r.Context(), req.CardID, req.Approver)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *Handler) getReward(w http.ResponseWriter, r *http.Request) {
	card, err := h.cards.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (h *Handler) deleteReward(w http.ResponseWriter, r *http.Request) {
	if err := h.cards.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
