package domain

import "RewardCardPlatform/pkg/validation"

// Ограничения длины полей
const (
	MaxNameLength   = 100
	MaxCardIDLength = 64
)

var validate = validation.NewValidator()

// ValidateCardID проверяет заданный вручную идентификатор карты
func ValidateCardID(id string) error {
	return validate.ValidateIdentifier(id, "cardId", MaxCardIDLength)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
