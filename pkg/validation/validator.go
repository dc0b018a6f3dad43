// Package validation общие проверки входных данных. Ошибки возвращаются
// с кодом VALIDATION_ERROR и описанием поля в Details.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"RewardCardPlatform/pkg/errors"
)

// Validator предоставляет общие функции валидации
type Validator struct{}

// NewValidator создает новый Validator
func NewValidator() *Validator {
	return &Validator{}
}

func invalid(format string, args ...interface{}) error {
	return errors.New(errors.ErrValidation, "validation failed").WithDetails(fmt.Sprintf(format, args...))
}

// ValidateRequired проверяет, что строка не пустая после обрезки пробелов
func (v *Validator) ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return invalid("%s is required", fieldName)
	}
	return nil
}

// ValidateEnum проверяет значение на соответствие enum
func (v *Validator) ValidateEnum(value string, allowedValues []string, fieldName string) error {
	if value == "" {
		return invalid("%s is required", fieldName)
	}
	for _, allowed := range allowedValues {
		if value == allowed {
			return nil
		}
	}
	return invalid("%s must be one of %s", fieldName, strings.Join(allowedValues, ", "))
}

// ValidateStringLength проверяет длину строки в символах
func (v *Validator) ValidateStringLength(value, fieldName string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if length < min {
		return invalid("%s must be at least %d characters, got: %d", fieldName, min, length)
	}
	if max > 0 && length > max {
		return invalid("%s must not exceed %d characters, got: %d", fieldName, max, length)
	}
	return nil
}

// ValidateIdentifier проверяет идентификатор из QR-кода: непустой, без
// пробельных символов, не длиннее max
func (v *Validator) ValidateIdentifier(value, fieldName string, max int) error {
	if value == "" {
		return invalid("%s is required", fieldName)
	}
	if strings.ContainsAny(value, " \t\r\n") {
		return invalid("%s contains whitespace", fieldName)
	}
	return v.ValidateStringLength(value, fieldName, 1, max)
}
