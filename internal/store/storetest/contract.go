// Package storetest содержит общий набор проверок для реализаций store.RecordStore.
package storetest

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RewardCardPlatform/internal/store"
)

// Factory создает пустое хранилище для одного подтеста
type Factory func(t *testing.T) store.RecordStore

// Run запускает проверки контракта хранилища записей
func Run(t *testing.T, newStore Factory) {
	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), store.CardKey("nope"))
		assert.True(t, stderrors.Is(err, store.ErrRecordNotFound))
	})

	t.Run("PutGetDelete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		key := store.EmployeeKey("e1")

		require.NoError(t, s.Put(ctx, key, store.Record{"name": "Kiss Anna", "lockReason": "x"}))
		require.NoError(t, s.Put(ctx, key, store.Record{"name": "Kiss Anna"}))

		rec, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "Kiss Anna", rec["name"])
		// Put заменяет запись целиком
		_, stale := rec["lockReason"]
		assert.False(t, stale)
		assert.Equal(t, int64(2), rec.Revision())

		require.NoError(t, s.Delete(ctx, key))
		require.NoError(t, s.Delete(ctx, key))
		_, err = s.Get(ctx, key)
		assert.True(t, stderrors.Is(err, store.ErrRecordNotFound))
	})

	t.Run("EmptyRecord", func(t *testing.T) {
		s := newStore(t)
		assert.Error(t, s.Put(context.Background(), "k", store.Record{}))
		assert.Error(t, s.Create(context.Background(), "k", nil))
		assert.True(t, stderrors.Is(s.Create(context.Background(), "k", store.Record{}), store.ErrEmptyRecord))

		require.NoError(t, s.Create(context.Background(), "k", store.Record{"name": "Kiss Anna"}))
		err := s.CompareAndSwap(context.Background(), "k", 1, store.Record{})
		assert.True(t, stderrors.Is(err, store.ErrEmptyRecord))

		rec, err := s.Get(context.Background(), "k")
		require.NoError(t, err)
		assert.Equal(t, "Kiss Anna", rec["name"])
		assert.Equal(t, int64(1), rec.Revision())
	})

	t.Run("Create", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		key := store.CardKey("c1")

		require.NoError(t, s.Create(ctx, key, store.Record{"cardType": "gold"}))
		err := s.Create(ctx, key, store.Record{"cardType": "basic"})
		assert.True(t, stderrors.Is(err, store.ErrRecordExists))

		rec, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "gold", rec["cardType"])
		assert.Equal(t, int64(1), rec.Revision())
	})

	t.Run("CompareAndSwap", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		key := store.CardKey("c1")

		err := s.CompareAndSwap(ctx, key, 1, store.Record{"isRedeemed": "true"})
		assert.True(t, stderrors.Is(err, store.ErrRecordNotFound))

		require.NoError(t, s.Create(ctx, key, store.Record{"isRedeemed": "false"}))
		require.NoError(t, s.CompareAndSwap(ctx, key, 1, store.Record{"isRedeemed": "true"}))

		err = s.CompareAndSwap(ctx, key, 1, store.Record{"isRedeemed": "true"})
		assert.True(t, stderrors.Is(err, store.ErrRevisionMismatch))

		rec, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "true", rec["isRedeemed"])
		assert.Equal(t, int64(2), rec.Revision())
	})

	t.Run("CompareAndDelete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		key := store.CardKey("c1")

		require.NoError(t, s.Create(ctx, key, store.Record{"a": "1"}))
		err := s.CompareAndDelete(ctx, key, 7)
		assert.True(t, stderrors.Is(err, store.ErrRevisionMismatch))

		require.NoError(t, s.CompareAndDelete(ctx, key, 1))
		err = s.CompareAndDelete(ctx, key, 1)
		assert.True(t, stderrors.Is(err, store.ErrRecordNotFound))
	})

	t.Run("ConcurrentCompareAndSwap", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		key := store.CardKey("race")
		require.NoError(t, s.Create(ctx, key, store.Record{"isRedeemed": "false"}))

		var wins int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.CompareAndSwap(ctx, key, 1, store.Record{"isRedeemed": "true"}) == nil {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins)
	})

	t.Run("Sets", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		members, err := s.ListSet(ctx, store.CardsSet)
		require.NoError(t, err)
		assert.Empty(t, members)

		require.NoError(t, s.AddToSet(ctx, store.CardsSet, "b"))
		require.NoError(t, s.AddToSet(ctx, store.CardsSet, "a"))
		require.NoError(t, s.AddToSet(ctx, store.CardsSet, "a"))

		members, err = s.ListSet(ctx, store.CardsSet)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, members)

		require.NoError(t, s.RemoveFromSet(ctx, store.CardsSet, "a"))
		require.NoError(t, s.RemoveFromSet(ctx, store.CardsSet, "missing"))
		members, err = s.ListSet(ctx, store.CardsSet)
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, members)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(context.Background()))
	})
}
