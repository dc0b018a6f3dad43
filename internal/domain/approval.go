package domain

import "strings"

// Approver руководитель, одобряющий выдачу или погашение
type Approver struct {
	ID   string `json:"approverId"`
	Name string `json:"approverName"`
	Role string `json:"approverRole"`
}

// Empty сообщает, что одобряющий не указан
func (a Approver) Empty() bool {
	return strings.TrimSpace(a.ID) == ""
}

// IsAdmin одобряющий является встроенным администратором
func (a Approver) IsAdmin() bool {
	return a.ID == AdminID && a.Role == AdminRole
}

// AdminApprover одобряющий для прямого погашения администратором
func AdminApprover() Approver {
	return Approver{ID: AdminID, Name: AdminName, Role: AdminRole}
}

// ApproverFromInfo одобряющий из идентичности вошедшего руководителя
func ApproverFromInfo(info ManagerInfo) Approver {
	return Approver{ID: info.ID, Name: info.Name, Role: info.Role}
}

// ManagerExists проверяет существование карты руководителя
type ManagerExists func(id string) (bool, error)

// CheckRedemptionApproval погашение одобряет только Műszakvezető или администратор.
// Решает роль отсканированного одобряющего, а не вошедшего пользователя.
func CheckRedemptionApproval(approver Approver, exists ManagerExists) error {
	if approver.Empty() || strings.TrimSpace(approver.Name) == "" || strings.TrimSpace(approver.Role) == "" {
		return ErrApprovalRequired
	}
	if approver.IsAdmin() {
		return nil
	}
	if Role(approver.Role) != RoleShiftLeader {
		return ErrInsufficientApprovalRole
	}
	ok, err := exists(approver.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidApprover
	}
	return nil
}

// CheckIssuanceApproval basic не требует одобрения; gold и platinum требуют существующего
// руководителя или администратора, роль не ограничивается.
func CheckIssuanceApproval(cardType CardType, approver Approver, exists ManagerExists) error {
	if approver.Empty() {
		if cardType.RequiresApproval() {
			return ErrApprovalRequired
		}
		return nil
	}
	if IsAdminID(approver.ID) {
		return nil
	}
	ok, err := exists(approver.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidApprover
	}
	return nil
}
