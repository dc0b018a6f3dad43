package repository

import (
	"context"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/internal/store"
	"RewardCardPlatform/pkg/logger"
)

// EmployeeRepository хранилище сотрудников
type EmployeeRepository struct {
	base
}

// NewEmployeeRepository создает репозиторий сотрудников
func NewEmployeeRepository(s store.RecordStore, log logger.Logger) *EmployeeRepository {
	return &EmployeeRepository{base{store: s, logger: log}}
}

// Get возвращает сотрудника или ErrEmployeeNotFound
func (r *EmployeeRepository) Get(ctx context.Context, id string) (*domain.Employee, error) {
	key := store.EmployeeKey(id)
	rec, err := r.get(ctx, key, domain.ErrEmployeeNotFound)
	if err != nil {
		return nil, err
	}
	e, err := decodeEmployee(rec)
	if err != nil {
		return nil, r.malformed(ctx, key, err, domain.ErrEmployeeNotFound)
	}
	return e, nil
}

// Save записывает сотрудника и добавляет его в индекс
func (r *EmployeeRepository) Save(ctx context.Context, e *domain.Employee) error {
	if err := r.store.Put(ctx, store.EmployeeKey(e.ID), encodeEmployee(e)); err != nil {
		return err
	}
	return r.store.AddToSet(ctx, store.EmployeesSet, e.ID)
}

// Delete удаляет запись сотрудника и убирает его из индекса
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, store.EmployeeKey(id)); err != nil {
		return err
	}
	if err := r.store.RemoveFromSet(ctx, store.EmployeesSet, id); err != nil {
		return err
	}
	return r.store.Delete(ctx, store.EmployeeCardsKey(id))
}

// List возвращает всех сотрудников из индекса
func (r *EmployeeRepository) List(ctx context.Context) ([]*domain.Employee, error) {
	ids, err := r.listIDs(ctx, store.EmployeesSet)
	if err != nil {
		return nil, err
	}
	return collect(ctx, ids, r.Get)
}

// CardIDs возвращает идентификаторы карт сотрудника
func (r *EmployeeRepository) CardIDs(ctx context.Context, employeeID string) ([]string, error) {
	return r.listIDs(ctx, store.EmployeeCardsKey(employeeID))
}
