// Package store описывает хранилище записей с ключами и индексами-множествами.
package store

import (
	"context"
	"fmt"
	"strconv"

	"RewardCardPlatform/pkg/errors"
)

// RevisionField поле записи с номером ревизии для условной записи
const RevisionField = "revision"

// Ключи и индексы
const (
	EmployeesSet = "employees"
	CardsSet     = "cards"
	ManagersSet  = "managers"
)

// EmployeeKey ключ записи сотрудника
func EmployeeKey(id string) string { return "employee:" + id }

// CardKey ключ записи карты поощрения
func CardKey(id string) string { return "card:" + id }

// ManagerKey ключ записи карты руководителя
func ManagerKey(id string) string { return "manager:" + id }

// EmployeeCardsKey индекс карт сотрудника
func EmployeeCardsKey(id string) string { return "employee:" + id + ":cards" }

// Причины ошибок хранилища
const (
	ReasonRecordExists     errors.Reason = "RECORD_EXISTS"
	ReasonRevisionMismatch errors.Reason = "REVISION_MISMATCH"
)

// Ошибки хранилища
var (
	ErrRecordNotFound   = errors.New(errors.ErrNotFound, "record not found")
	ErrRecordExists     = errors.New(errors.ErrConflict, "record already exists").WithReason(ReasonRecordExists)
	ErrRevisionMismatch = errors.New(errors.ErrConflict, "record revision changed").WithReason(ReasonRevisionMismatch)
	ErrEmptyRecord      = errors.New(errors.ErrValidation, "record has no fields")
)

// Unavailable оборачивает ошибку связи с хранилищем
func Unavailable(op, key string, err error) error {
	return errors.Wrap(err, errors.ErrUpstreamUnavailable, "record store unavailable").
		WithDetails(fmt.Sprintf("%s %s", op, key))
}

// Record плоская запись (хэш): имя поля -> строковое значение
type Record map[string]string

// Revision номер ревизии записи; у записи без поля ревизия 0
func (r Record) Revision() int64 {
	rev, err := strconv.ParseInt(r[RevisionField], 10, 64)
	if err != nil {
		return 0
	}
	return rev
}

// Clone копирует запись
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// WithRevision возвращает копию записи с заданной ревизией
func (r Record) WithRevision(rev int64) Record {
	out := r.Clone()
	out[RevisionField] = strconv.FormatInt(rev, 10)
	return out
}

// RecordStore хранилище записей с индексами-множествами.
// Get возвращает ErrRecordNotFound для отсутствующей записи.
// Create атомарно создает запись или возвращает ErrRecordExists.
// CompareAndSwap и CompareAndDelete выполняются, только если ревизия не изменилась,
// иначе ErrRevisionMismatch. Сбой связи возвращается с кодом UPSTREAM_UNAVAILABLE.
type RecordStore interface {
	Get(ctx context.Context, key string) (Record, error)
	Put(ctx context.Context, key string, rec Record) error
	Delete(ctx context.Context, key string) error
	Create(ctx context.Context, key string, rec Record) error
	CompareAndSwap(ctx context.Context, key string, expectedRevision int64, rec Record) error
	CompareAndDelete(ctx context.Context, key string, expectedRevision int64) error

	AddToSet(ctx context.Context, setKey, member string) error
	RemoveFromSet(ctx context.Context, setKey, member string) error
	ListSet(ctx context.Context, setKey string) ([]string, error)

	Ping(ctx context.Context) error
}
