// Package redis реализует хранилище записей на хэшах и множествах Redis.
package redis

import (
	"context"
	"sort"

	goredis "github.com/redis/go-redis/v9"

	"RewardCardPlatform/internal/store"
	"RewardCardPlatform/pkg/logger"
)

var putScript = goredis.NewScript(`
local rev = tonumber(redis.call('HGET', KEYS[1], 'revision') or '0')
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], unpack(ARGV))
redis.call('HSET', KEYS[1], 'revision', tostring(rev + 1))
return rev + 1
`)

var createScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

var compareAndSwapScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
local rev = redis.call('HGET', KEYS[1], 'revision') or '0'
if rev ~= ARGV[1] then
  return 0
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], unpack(ARGV, 2))
return 1
`)

var compareAndDeleteScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
local rev = redis.call('HGET', KEYS[1], 'revision') or '0'
if rev ~= ARGV[1] then
  return 0
end
redis.call('DEL', KEYS[1])
return 1
`)

// Store хранилище записей в Redis
type Store struct {
	client goredis.UniversalClient
	logger logger.Logger
}

// NewStore создает хранилище поверх клиента go-redis
func NewStore(client goredis.UniversalClient, log logger.Logger) *Store {
	return &Store{client: client, logger: log}
}

// Get читает хэш записи
func (s *Store) Get(ctx context.Context, key string) (store.Record, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, s.unavailable("HGETALL", key, err)
	}
	if len(fields) == 0 {
		return nil, store.ErrRecordNotFound.WithDetails(key)
	}
	return store.Record(fields), nil
}

// Put безусловно заменяет запись и увеличивает ревизию
func (s *Store) Put(ctx context.Context, key string, rec store.Record) error {
	args, err := fieldArgs(rec)
	if err != nil {
		return err
	}
	if err := putScript.Run(ctx, s.client, []string{key}, args...).Err(); err != nil {
		return s.unavailable("PUT", key, err)
	}
	return nil
}

// Delete удаляет запись или индекс с этим ключом
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return s.unavailable("DEL", key, err)
	}
	return nil
}

// Create создает запись с ревизией 1, если ключ свободен
func (s *Store) Create(ctx context.Context, key string, rec store.Record) error {
	args, err := revisionedArgs(rec, 1)
	if err != nil {
		return err
	}
	created, err := createScript.Run(ctx, s.client, []string{key}, args...).Int()
	if err != nil {
		return s.unavailable("CREATE", key, err)
	}
	if created == 0 {
		return store.ErrRecordExists.WithDetails(key)
	}
	return nil
}

// CompareAndSwap заменяет запись, если ее ревизия равна expectedRevision
func (s *Store) CompareAndSwap(ctx context.Context, key string, expectedRevision int64, rec store.Record) error {
	args, err := revisionedArgs(rec, expectedRevision+1)
	if err != nil {
		return err
	}
	args = append([]interface{}{revisionArg(expectedRevision)}, args...)

	result, err := compareAndSwapScript.Run(ctx, s.client, []string{key}, args...).Int()
	if err != nil {
		return s.unavailable("CAS", key, err)
	}
	return conditionalResult(result, key)
}

// CompareAndDelete удаляет запись, если ее ревизия равна expectedRevision
func (s *Store) CompareAndDelete(ctx context.Context, key string, expectedRevision int64) error {
	result, err := compareAndDeleteScript.Run(ctx, s.client, []string{key}, revisionArg(expectedRevision)).Int()
	if err != nil {
		return s.unavailable("CAD", key, err)
	}
	return conditionalResult(result, key)
}

// AddToSet добавляет элемент в индекс
func (s *Store) AddToSet(ctx context.Context, setKey, member string) error {
	if err := s.client.SAdd(ctx, setKey, member).Err(); err != nil {
		return s.unavailable("SADD", setKey, err)
	}
	return nil
}

// RemoveFromSet удаляет элемент из индекса
func (s *Store) RemoveFromSet(ctx context.Context, setKey, member string) error {
	if err := s.client.SRem(ctx, setKey, member).Err(); err != nil {
		return s.unavailable("SREM", setKey, err)
	}
	return nil
}

// ListSet возвращает элементы индекса в отсортированном порядке
func (s *Store) ListSet(ctx context.Context, setKey string) ([]string, error) {
	members, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, s.unavailable("SMEMBERS", setKey, err)
	}
	sort.Strings(members)
	return members, nil
}

// Ping проверяет доступность Redis
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return s.unavailable("PING", "", err)
	}
	return nil
}

func (s *Store) unavailable(op, key string, err error) error {
	s.logger.Warn("Record store command failed",
		logger.String("op", op),
		logger.String("key", key),
		logger.Error(err),
	)
	return store.Unavailable(op, key, err)
}

func fieldArgs(rec store.Record) ([]interface{}, error) {
	if len(rec) == 0 {
		return nil, store.ErrEmptyRecord
	}
	fields := make([]string, 0, len(rec))
	for field := range rec {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	args := make([]interface{}, 0, len(rec)*2)
	for _, field := range fields {
		args = append(args, field, rec[field])
	}
	return args, nil
}

// revisionedArgs проверяет запись до добавления поля ревизии
func revisionedArgs(rec store.Record, rev int64) ([]interface{}, error) {
	if len(rec) == 0 {
		return nil, store.ErrEmptyRecord
	}
	return fieldArgs(rec.WithRevision(rev))
}

func revisionArg(rev int64) string {
	return store.Record{}.WithRevision(rev)[store.RevisionField]
}

func conditionalResult(result int, key string) error {
	switch result {
	case -1:
		return store.ErrRecordNotFound.WithDetails(key)
	case 0:
		return store.ErrRevisionMismatch.WithDetails(key)
	default:
		return nil
	}
}
