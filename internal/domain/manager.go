package domain

import "time"

// Role роль руководителя
type Role string

const (
	RoleTrainer     Role = "Tréner"
	RoleCoordinator Role = "Koordinátor"
	RoleShiftLeader Role = "Műszakvezető"
)

// Valid сообщает, известна ли роль
func (r Role) Valid() bool {
	switch r {
	case RoleTrainer, RoleCoordinator, RoleShiftLeader:
		return true
	}
	return false
}

// ManagerCard карта руководителя
type ManagerCard struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Position    string       `json:"position"`
	Role        Role         `json:"role"`
	CreatedAt   time.Time    `json:"createdAt"`
	QRCode      string       `json:"qrCode"`
	Permissions []Permission `json:"permissions,omitempty"`
	// Password хэш bcrypt или устаревший открытый текст; в JSON не сериализуется
	Password string `json:"-"`
}

// HasPassword сообщает, разрешен ли вход по паролю
func (m *ManagerCard) HasPassword() bool {
	return m.Password != ""
}

// EffectivePermissions права руководителя с учетом прав роли по умолчанию
func (m *ManagerCard) EffectivePermissions() []Permission {
	return EffectivePermissions(m.Role, m.Permissions)
}

// Info возвращает идентичность руководителя без пароля
func (m *ManagerCard) Info() ManagerInfo {
	return ManagerInfo{
		ID:          m.ID,
		Name:        m.Name,
		Role:        string(m.Role),
		Permissions: m.EffectivePermissions(),
	}
}

// Validate проверяет обязательные поля
func (m *ManagerCard) Validate() error {
	if err := firstError(
		validate.ValidateRequired(m.Name, "name"),
		validate.ValidateStringLength(m.Name, "name", 1, MaxNameLength),
		validate.ValidateRequired(m.Position, "position"),
		validate.ValidateStringLength(m.Position, "position", 1, MaxNameLength),
		validate.ValidateEnum(string(m.Role), []string{
			string(RoleTrainer), string(RoleCoordinator), string(RoleShiftLeader),
		}, "role"),
	); err != nil {
		return err
	}
	for _, p := range m.Permissions {
		if !p.Valid() {
			return Validation("unknown permission: " + string(p))
		}
	}
	return nil
}
