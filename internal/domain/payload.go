package domain

import (
	"encoding/json"
	"strings"
)

// Типы QR-пейлоада
const (
	PayloadTypeManager = "manager"
	PayloadTypeCard    = "card"
)

// Payload разобранное содержимое QR-кода: голый идентификатор или JSON с полем id
type Payload struct {
	ID          string       `json:"id"`
	Type        string       `json:"type,omitempty"`
	Name        string       `json:"name,omitempty"`
	Position    string       `json:"position,omitempty"`
	Role        string       `json:"role,omitempty"`
	Permissions []Permission `json:"permissions,omitempty"`
	EmployeeID  string       `json:"employeeId,omitempty"`
	CardType    CardType     `json:"cardType,omitempty"`
	Points      int          `json:"points,omitempty"`
}

// ParsePayload принимает голый идентификатор или JSON-объект с непустым id.
// Дополнительные поля не обязательны.
func ParsePayload(raw string) (Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Payload{}, ErrInvalidPayload.WithDetails("empty payload")
	}

	if strings.HasPrefix(raw, "{") {
		var p Payload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return Payload{}, ErrInvalidPayload.WithDetails("malformed json payload").WithCause(err)
		}
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return Payload{}, ErrInvalidPayload.WithDetails("payload has no id")
		}
		return p, nil
	}

	if strings.ContainsAny(raw, " \t\r\n") {
		return Payload{}, ErrInvalidPayload.WithDetails("identifier contains whitespace")
	}
	return Payload{ID: raw}, nil
}

// ManagerPayload JSON-пейлоад карты руководителя после редактирования
func ManagerPayload(m *ManagerCard) (string, error) {
	data, err := json.Marshal(Payload{
		ID:          m.ID,
		Type:        PayloadTypeManager,
		Name:        m.Name,
		Position:    m.Position,
		Role:        string(m.Role),
		Permissions: m.Permissions,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
