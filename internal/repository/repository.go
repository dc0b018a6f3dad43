// Package repository хранит сотрудников, карты поощрения и карты руководителей
// в хранилище записей и проверяет записи при чтении.
package repository

import (
	"context"
	stderrors "errors"

	"RewardCardPlatform/internal/store"
	"RewardCardPlatform/pkg/errors"
	"RewardCardPlatform/pkg/logger"
)

type base struct {
	store  store.RecordStore
	logger logger.Logger
}

// get читает запись; отсутствие записи заменяется на notFound
func (b *base) get(ctx context.Context, key string, notFound *errors.Error) (store.Record, error) {
	rec, err := b.store.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, store.ErrRecordNotFound) {
			return nil, notFound.WithDetails(key)
		}
		return nil, err
	}
	return rec, nil
}

// malformed логирует запись, не прошедшую проверку, и возвращает notFound
func (b *base) malformed(ctx context.Context, key string, decodeErr error, notFound *errors.Error) error {
	b.logger.Error("Malformed record treated as not found",
		logger.CtxField(ctx),
		logger.String("key", key),
		logger.Error(decodeErr),
	)
	return notFound.WithDetails(key).WithCause(decodeErr)
}

// listIDs возвращает идентификаторы из индекса
func (b *base) listIDs(ctx context.Context, setKey string) ([]string, error) {
	return b.store.ListSet(ctx, setKey)
}

// collect загружает записи по идентификаторам, пропуская отсутствующие и поврежденные.
// Ошибка связи с хранилищем прерывает загрузку.
func collect[T any](ctx context.Context, ids []string, get func(context.Context, string) (T, error)) ([]T, error) {
	items := make([]T, 0, len(ids))
	for _, id := range ids {
		item, err := get(ctx, id)
		if err != nil {
			if errors.IsCode(err, errors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
