package domain

import (
	"RewardCardPlatform/pkg/errors"
)

// Доменные ошибки. Сравниваются через errors.Is по коду и причине.
var (
	ErrCardNotFound             = errors.New(errors.ErrNotFound, "reward card not found").WithReason(errors.ReasonCardNotFound)
	ErrCardIDInUse              = errors.New(errors.ErrConflict, "card id is in use by an active card").WithReason(errors.ReasonCardIDInUse)
	ErrAlreadyRedeemed          = errors.New(errors.ErrConflict, "reward card already redeemed").WithReason(errors.ReasonAlreadyRedeemed)
	ErrCardExpired              = errors.New(errors.ErrExpired, "reward card expired").WithReason(errors.ReasonCardExpired)
	ErrEmployeeNotFound         = errors.New(errors.ErrNotFound, "employee not found").WithReason(errors.ReasonEmployeeNotFound)
	ErrEmployeeLocked           = errors.New(errors.ErrForbidden, "employee is locked").WithReason(errors.ReasonEmployeeLocked)
	ErrManagerNotFound          = errors.New(errors.ErrNotFound, "manager card not found").WithReason(errors.ReasonManagerNotFound)
	ErrInsufficientApprovalRole = errors.New(errors.ErrForbidden, "approver role cannot approve redemption").WithReason(errors.ReasonInsufficientApprovalRole)
	ErrApprovalRequired         = errors.New(errors.ErrForbidden, "manager approval required").WithReason(errors.ReasonApprovalRequired)
	ErrInvalidApprover          = errors.New(errors.ErrForbidden, "approver is not a known manager").WithReason(errors.ReasonInvalidApprover)
	ErrInvalidIdentity          = errors.New(errors.ErrInvalidCredential, "manager identity does not exist").WithReason(errors.ReasonInvalidIdentity)
	ErrInvalidPassword          = errors.New(errors.ErrInvalidCredential, "invalid id or password").WithReason(errors.ReasonInvalidPassword)
	ErrPermissionDenied         = errors.New(errors.ErrForbidden, "permission denied").WithReason(errors.ReasonPermissionDenied)
	ErrInvalidPayload           = errors.New(errors.ErrValidation, "invalid qr payload").WithReason(errors.ReasonInvalidPayload)
)

// Validation создает ошибку валидации входных данных
func Validation(details string) *errors.Error {
	return errors.New(errors.ErrValidation, "validation failed").WithDetails(details)
}
