package domain

import "time"

// Встроенная учетная запись администратора
const (
	AdminID       = "admin"
	AdminName     = "Szabó Dávid"
	AdminRole     = "Admin"
	AdminPassword = "EsztergomiSavinko"
)

// InactivityWindow время бездействия, после которого сессия завершается
const InactivityWindow = 3 * time.Minute

// ManagerInfo идентичность вошедшего руководителя. Пароль сюда никогда не попадает.
type ManagerInfo struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Role        string       `json:"role"`
	Permissions []Permission `json:"permissions"`
}

// AdminIdentity возвращает идентичность администратора с полным набором прав
func AdminIdentity() ManagerInfo {
	return ManagerInfo{
		ID:          AdminID,
		Name:        AdminName,
		Role:        AdminRole,
		Permissions: AdminPermissions(),
	}
}

// IsAdminID сообщает, является ли идентификатор встроенным администратором
func IsAdminID(id string) bool {
	return id == AdminID
}
