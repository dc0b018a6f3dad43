// Package memory реализует хранилище записей в памяти процесса.
package memory

import (
	"context"
	"sort"
	"sync"

	"RewardCardPlatform/internal/store"
)

// Store хранилище записей в памяти. Семантика совпадает с Redis-реализацией.
type Store struct {
	mu      sync.Mutex
	records map[string]store.Record
	sets    map[string]map[string]struct{}
	// failWith, если задана, возвращается всеми операциями
	failWith error
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		records: make(map[string]store.Record),
		sets:    make(map[string]map[string]struct{}),
	}
}

// SetUnavailable переводит хранилище в режим недоступности; nil возвращает его в строй
func (s *Store) SetUnavailable(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *Store) check(op, key string) error {
	if s.failWith != nil {
		return store.Unavailable(op, key, s.failWith)
	}
	return nil
}

// Get читает запись
func (s *Store) Get(ctx context.Context, key string) (store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("GET", key); err != nil {
		return nil, err
	}
	rec, ok := s.records[key]
	if !ok {
		return nil, store.ErrRecordNotFound.WithDetails(key)
	}
	return rec.Clone(), nil
}

// Put безусловно заменяет запись и увеличивает ревизию
func (s *Store) Put(ctx context.Context, key string, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("PUT", key); err != nil {
		return err
	}
	if len(rec) == 0 {
		return store.ErrEmptyRecord
	}
	var rev int64
	if existing, ok := s.records[key]; ok {
		rev = existing.Revision()
	}
	s.records[key] = rec.WithRevision(rev + 1)
	return nil
}

// Delete удаляет запись или индекс с этим ключом
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("DEL", key); err != nil {
		return err
	}
	delete(s.records, key)
	delete(s.sets, key)
	return nil
}

// Create создает запись с ревизией 1, если ключ свободен
func (s *Store) Create(ctx context.Context, key string, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("CREATE", key); err != nil {
		return err
	}
	if len(rec) == 0 {
		return store.ErrEmptyRecord
	}
	if _, ok := s.records[key]; ok {
		return store.ErrRecordExists.WithDetails(key)
	}
	s.records[key] = rec.WithRevision(1)
	return nil
}

// CompareAndSwap заменяет запись, если ее ревизия равна expectedRevision
func (s *Store) CompareAndSwap(ctx context.Context, key string, expectedRevision int64, rec store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("CAS", key); err != nil {
		return err
	}
	if len(rec) == 0 {
		return store.ErrEmptyRecord
	}
	existing, ok := s.records[key]
	if !ok {
		return store.ErrRecordNotFound.WithDetails(key)
	}
	if existing.Revision() != expectedRevision {
		return store.ErrRevisionMismatch.WithDetails(key)
	}
	s.records[key] = rec.WithRevision(expectedRevision + 1)
	return nil
}

// CompareAndDelete удаляет запись, если ее ревизия равна expectedRevision
func (s *Store) CompareAndDelete(ctx context.Context, key string, expectedRevision int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("CAD", key); err != nil {
		return err
	}
	existing, ok := s.records[key]
	if !ok {
		return store.ErrRecordNotFound.WithDetails(key)
	}
	if existing.Revision() != expectedRevision {
		return store.ErrRevisionMismatch.WithDetails(key)
	}
	delete(s.records, key)
	return nil
}

// AddToSet добавляет элемент в индекс
func (s *Store) AddToSet(ctx context.Context, setKey, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("SADD", setKey); err != nil {
		return err
	}
	set, ok := s.sets[setKey]
	if !ok {
		set = make(map[string]struct{})
		s.sets[setKey] = set
	}
	set[member] = struct{}{}
	return nil
}

// RemoveFromSet удаляет элемент из индекса
func (s *Store) RemoveFromSet(ctx context.Context, setKey, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("SREM", setKey); err != nil {
		return err
	}
	if set, ok := s.sets[setKey]; ok {
		delete(set, member)
		if len(set) == 0 {
			delete(s.sets, setKey)
		}
	}
	return nil
}

// ListSet возвращает элементы индекса в отсортированном порядке
func (s *Store) ListSet(ctx context.Context, setKey string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("SMEMBERS", setKey); err != nil {
		return nil, err
	}
	members := make([]string, 0, len(s.sets[setKey]))
	for member := range s.sets[setKey] {
		members = append(members, member)
	}
	sort.Strings(members)
	return members, nil
}

// Ping проверяет доступность хранилища
func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.check("PING", "")
}
