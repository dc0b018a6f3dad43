package repository

import (
	"context"
	stderrors "errors"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/internal/store"
	"RewardCardPlatform/pkg/logger"
)

// CardRepository хранилище карт поощрения
type CardRepository struct {
	base
}

// NewCardRepository создает репозиторий карт
func NewCardRepository(s store.RecordStore, log logger.Logger) *CardRepository {
	return &CardRepository{base{store: s, logger: log}}
}

// Get возвращает карту с ее ревизией или ErrCardNotFound
func (r *CardRepository) Get(ctx context.Context, id string) (*domain.RewardCard, error) {
	key := store.CardKey(id)
	rec, err := r.get(ctx, key, domain.ErrCardNotFound)
	if err != nil {
		return nil, err
	}
	c, err := decodeCard(rec)
	if err != nil {
		return nil, r.malformed(ctx, key, err, domain.ErrCardNotFound)
	}
	return c, nil
}

// Create атомарно создает карту; занятый идентификатор дает ErrCardIDInUse
func (r *CardRepository) Create(ctx context.Context, c *domain.RewardCard) error {
	if err := r.store.Create(ctx, store.CardKey(c.ID), encodeCard(c)); err != nil {
		if stderrors.Is(err, store.ErrRecordExists) {
			return domain.ErrCardIDInUse.WithDetails(c.ID)
		}
		return err
	}
	c.Revision = 1
	if err := r.store.AddToSet(ctx, store.CardsSet, c.ID); err != nil {
		return err
	}
	return r.store.AddToSet(ctx, store.EmployeeCardsKey(c.EmployeeID), c.ID)
}

// Swap записывает карту, если ее ревизия в хранилище равна c.Revision.
// Конфликт ревизий возвращается как store.ErrRevisionMismatch.
func (r *CardRepository) Swap(ctx context.Context, c *domain.RewardCard) error {
	if err := r.store.CompareAndSwap(ctx, store.CardKey(c.ID), c.Revision, encodeCard(c)); err != nil {
		if stderrors.Is(err, store.ErrRecordNotFound) {
			return domain.ErrCardNotFound.WithDetails(c.ID)
		}
		return err
	}
	c.Revision++
	return nil
}

// DeleteAtRevision удаляет карту, только если она не менялась с момента чтения
func (r *CardRepository) DeleteAtRevision(ctx context.Context, c *domain.RewardCard) error {
	if err := r.store.CompareAndDelete(ctx, store.CardKey(c.ID), c.Revision); err != nil {
		if stderrors.Is(err, store.ErrRecordNotFound) {
			return domain.ErrCardNotFound.WithDetails(c.ID)
		}
		return err
	}
	return r.unindex(ctx, c)
}

// Delete убирает карту из индексов и удаляет запись
func (r *CardRepository) Delete(ctx context.Context, c *domain.RewardCard) error {
	if err := r.unindex(ctx, c); err != nil {
		return err
	}
	return r.store.Delete(ctx, store.CardKey(c.ID))
}

// DeleteByID удаляет запись и членство в глобальном индексе без чтения записи.
// Используется для поврежденных записей при каскадном удалении.
func (r *CardRepository) DeleteByID(ctx context.Context, employeeID, id string) error {
	return r.Delete(ctx, &domain.RewardCard{ID: id, EmployeeID: employeeID})
}

// Unlink убирает идентификатор из индекса сотрудника, не трогая саму карту.
// Нужен для устаревших записей индекса, когда идентификатор уже выдан другому.
func (r *CardRepository) Unlink(ctx context.Context, employeeID, id string) error {
	return r.store.RemoveFromSet(ctx, store.EmployeeCardsKey(employeeID), id)
}

func (r *CardRepository) unindex(ctx context.Context, c *domain.RewardCard) error {
	if err := r.store.RemoveFromSet(ctx, store.CardsSet, c.ID); err != nil {
		return err
	}
	return r.store.RemoveFromSet(ctx, store.EmployeeCardsKey(c.EmployeeID), c.ID)
}

// List возвращает все карты
func (r *CardRepository) List(ctx context.Context) ([]*domain.RewardCard, error) {
	ids, err := r.listIDs(ctx, store.CardsSet)
	if err != nil {
		return nil, err
	}
	return collect(ctx, ids, r.Get)
}

// ListByEmployee возвращает карты сотрудника. Карты, выданные по устаревшей
// записи индекса другому сотруднику, пропускаются.
func (r *CardRepository) ListByEmployee(ctx context.Context, employeeID string) ([]*domain.RewardCard, error) {
	ids, err := r.listIDs(ctx, store.EmployeeCardsKey(employeeID))
	if err != nil {
		return nil, err
	}
	cards, err := collect(ctx, ids, r.Get)
	if err != nil {
		return nil, err
	}
	owned := cards[:0]
	for _, c := range cards {
		if c.EmployeeID == employeeID {
			owned = append(owned, c)
		}
	}
	return owned, nil
}
