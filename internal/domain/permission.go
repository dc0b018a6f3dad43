package domain

// Permission право руководителя
type Permission string

const (
	PermManageEmployees Permission = "manage_employees"
	PermIssueRewards    Permission = "issue_rewards"
	PermRedeemRewards   Permission = "redeem_rewards"
	PermManageManagers  Permission = "manage_managers"

	// Устаревшие права, подразумеваются правом manage_managers
	PermAddDeleteManagers      Permission = "add_delete_managers"
	PermEditManagerPrivileges  Permission = "edit_manager_privileges"
	PermChangeManagerPasswords Permission = "change_manager_passwords"
)

var knownPermissions = map[Permission]bool{
	PermManageEmployees:        true,
	PermIssueRewards:           true,
	PermRedeemRewards:          true,
	PermManageManagers:         true,
	PermAddDeleteManagers:      true,
	PermEditManagerPrivileges:  true,
	PermChangeManagerPasswords: true,
}

var legacyManagerPermissions = map[Permission]bool{
	PermAddDeleteManagers:      true,
	PermEditManagerPrivileges:  true,
	PermChangeManagerPasswords: true,
}

// Valid сообщает, известно ли право
func (p Permission) Valid() bool {
	return knownPermissions[p]
}

var rolePermissions = map[Role][]Permission{
	RoleShiftLeader: {PermManageEmployees, PermIssueRewards, PermRedeemRewards, PermManageManagers},
	RoleCoordinator: {PermManageEmployees, PermIssueRewards},
	RoleTrainer:     {PermIssueRewards},
}

// RolePermissions возвращает права роли по умолчанию
func RolePermissions(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// EffectivePermissions возвращает явно выданные права, а при их отсутствии права роли
func EffectivePermissions(role Role, granted []Permission) []Permission {
	if len(granted) > 0 {
		out := make([]Permission, len(granted))
		copy(out, granted)
		return out
	}
	return RolePermissions(role)
}

// AdminPermissions полный набор прав администратора, включая устаревшие
func AdminPermissions() []Permission {
	return []Permission{
		PermManageEmployees,
		PermIssueRewards,
		PermRedeemRewards,
		PermManageManagers,
		PermAddDeleteManagers,
		PermEditManagerPrivileges,
		PermChangeManagerPasswords,
	}
}

// HasPermission проверяет право в наборе с учетом устаревших имен
func HasPermission(perms []Permission, p Permission) bool {
	for _, have := range perms {
		if have == p {
			return true
		}
	}
	if legacyManagerPermissions[p] {
		for _, have := range perms {
			if have == PermManageManagers {
				return true
			}
		}
	}
	return false
}
