package domain

import (
	"strings"
	"time"
)

// EmploymentType тип занятости сотрудника
type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "full-time"
	EmploymentPartTime EmploymentType = "part-time"
	EmploymentStudent  EmploymentType = "student"
)

// Valid сообщает, известен ли тип занятости
func (t EmploymentType) Valid() bool {
	switch t {
	case EmploymentFullTime, EmploymentPartTime, EmploymentStudent:
		return true
	}
	return false
}

// Employee сотрудник, получающий карты поощрения
type Employee struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Position       string         `json:"position"`
	EmploymentType EmploymentType `json:"employmentType"`
	CreatedAt      time.Time      `json:"createdAt"`
	IsLocked       bool           `json:"isLocked"`
	LockReason     string         `json:"lockReason,omitempty"`
}

// Lock блокирует выдачу поощрений сотруднику
func (e *Employee) Lock(reason string) {
	e.IsLocked = true
	e.LockReason = strings.TrimSpace(reason)
}

// Unlock снимает блокировку; причина очищается
func (e *Employee) Unlock() {
	e.IsLocked = false
	e.LockReason = ""
}

// Validate проверяет обязательные поля
func (e *Employee) Validate() error {
	return firstError(
		validate.ValidateRequired(e.Name, "name"),
		validate.ValidateStringLength(e.Name, "name", 1, MaxNameLength),
		validate.ValidateRequired(e.Position, "position"),
		validate.ValidateStringLength(e.Position, "position", 1, MaxNameLength),
		validate.ValidateEnum(string(e.EmploymentType), []string{
			string(EmploymentFullTime), string(EmploymentPartTime), string(EmploymentStudent),
		}, "employmentType"),
	)
}
