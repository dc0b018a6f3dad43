// Package service реализует операции над сотрудниками, картами поощрения
// и картами руководителей поверх репозиториев.
package service

import (
	"context"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/pkg/errors"
	"RewardCardPlatform/pkg/logger"
)

// EmployeeStore хранилище сотрудников
type EmployeeStore interface {
	Get(ctx context.Context, id string) (*domain.Employee, error)
	Save(ctx context.Context, e *domain.Employee) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.Employee, error)
	CardIDs(ctx context.Context, employeeID string) ([]string, error)
}

// CardStore хранилище карт поощрения с условной записью
type CardStore interface {
	Get(ctx context.Context, id string) (*domain.RewardCard, error)
	Create(ctx context.Context, c *domain.RewardCard) error
	Swap(ctx context.Context, c *domain.RewardCard) error
	DeleteAtRevision(ctx context.Context, c *domain.RewardCard) error
	Delete(ctx context.Context, c *domain.RewardCard) error
	DeleteByID(ctx context.Context, employeeID, id string) error
	Unlink(ctx context.Context, employeeID, id string) error
	List(ctx context.Context) ([]*domain.RewardCard, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*domain.RewardCard, error)
}

// ManagerStore хранилище карт руководителей
type ManagerStore interface {
	Get(ctx context.Context, id string) (*domain.ManagerCard, error)
	Save(ctx context.Context, m *domain.ManagerCard) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*domain.ManagerCard, error)
}

// degradeList на пути чтения заменяет недоступность хранилища пустым списком
func degradeList[T any](ctx context.Context, log logger.Logger, op string, items []T, err error) ([]T, error) {
	if err == nil {
		return items, nil
	}
	if errors.IsCode(err, errors.ErrUpstreamUnavailable) {
		log.Warn("Record store unavailable, returning empty list",
			logger.CtxField(ctx),
			logger.String("operation", op),
			logger.Error(err),
		)
		return []T{}, nil
	}
	return nil, err
}

// degradeGet на пути чтения заменяет недоступность хранилища ошибкой notFound
func degradeGet(ctx context.Context, log logger.Logger, op string, err error, notFound *errors.Error) error {
	if errors.IsCode(err, errors.ErrUpstreamUnavailable) {
		log.Warn("Record store unavailable, reporting not found",
			logger.CtxField(ctx),
			logger.String("operation", op),
			logger.Error(err),
		)
		return notFound.WithCause(err)
	}
	return err
}

// managerExists проверяет существование руководителя для политики одобрения
func managerExists(ctx context.Context, managers ManagerStore) domain.ManagerExists {
	return func(id string) (bool, error) {
		if _, err := managers.Get(ctx, id); err != nil {
			if errors.IsCode(err, errors.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	}
}
