package repository

import (
	"context"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/internal/store"
	"RewardCardPlatform/pkg/logger"
)

// ManagerRepository хранилище карт руководителей
type ManagerRepository struct {
	base
}

// NewManagerRepository создает репозиторий руководителей
func NewManagerRepository(s store.RecordStore, log logger.Logger) *ManagerRepository {
	return &ManagerRepository{base{store: s, logger: log}}
}

// Get возвращает карту руководителя или ErrManagerNotFound
func (r *ManagerRepository) Get(ctx context.Context, id string) (*domain.ManagerCard, error) {
	key := store.ManagerKey(id)
	rec, err := r.get(ctx, key, domain.ErrManagerNotFound)
	if err != nil {
		return nil, err
	}
	m, err := decodeManager(rec)
	if err != nil {
		return nil, r.malformed(ctx, key, err, domain.ErrManagerNotFound)
	}
	return m, nil
}

// Save записывает карту руководителя и добавляет ее в индекс
func (r *ManagerRepository) Save(ctx context.Context, m *domain.ManagerCard) error {
	rec, err := encodeManager(m)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, store.ManagerKey(m.ID), rec); err != nil {
		return err
	}
	return r.store.AddToSet(ctx, store.ManagersSet, m.ID)
}

// Delete удаляет карту руководителя
func (r *ManagerRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, store.ManagerKey(id)); err != nil {
		return err
	}
	return r.store.RemoveFromSet(ctx, store.ManagersSet, id)
}

// List возвращает все карты руководителей
func (r *ManagerRepository) List(ctx context.Context) ([]*domain.ManagerCard, error) {
	ids, err := r.listIDs(ctx, store.ManagersSet)
	if err != nil {
		return nil, err
	}
	return collect(ctx, ids, r.Get)
}
