package http

import (
	"context"
	"net/http"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/pkg/errors"
)

// Виды результата сканирования
const (
	ScanKindCard    = "card"
	ScanKindManager = "manager"
)

// ScanRequest отсканированное содержимое QR-кода
type ScanRequest struct {
	Payload string `json:"payload"`
}

// ScanResult карта поощрения или карта руководителя, найденная по QR-коду
type ScanResult struct {
	Kind    string              `json:"kind"`
	Card    *domain.RewardCard  `json:"card,omitempty"`
	Manager *domain.ManagerCard `json:"manager,omitempty"`
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	payload, err := domain.ParsePayload(req.Payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.resolve(r.Context(), payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// resolve ищет объект по типу пейлоада; голый идентификатор сначала
// ищется среди карт поощрения, затем среди руководителей
func (h *Handler) resolve(ctx context.Context, p domain.Payload) (*ScanResult, error) {
	switch p.Type {
	case domain.PayloadTypeManager:
		return h.resolveManager(ctx, p.ID)
	case domain.PayloadTypeCard:
		return h.resolveCard(ctx, p.ID)
	}

	result, err := h.resolveCard(ctx, p.ID)
	if err == nil || !errors.IsCode(err, errors.ErrNotFound) {
		return result, err
	}
	result, err = h.resolveManager(ctx, p.ID)
	if errors.IsCode(err, errors.ErrNotFound) {
		return nil, domain.ErrInvalidPayload.WithDetails("no card or manager with id " + p.ID)
	}
	return result, err
}

func (h *Handler) resolveCard(ctx context.Context, id string) (*ScanResult, error) {
	card, err := h.cards.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ScanResult{Kind: ScanKindCard, Card: card}, nil
}

func (h *Handler) resolveManager(ctx context.Context, id string) (*ScanResult, error) {
	m, err := h.managers.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ScanResult{Kind: ScanKindManager, Manager: m}, nil
}
