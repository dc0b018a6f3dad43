package domain

import "time"

// CardType тип карты поощрения
type CardType string

const (
	CardBasic    CardType = "basic"
	CardGold     CardType = "gold"
	CardPlatinum CardType = "platinum"
)

var cardPoints = map[CardType]int{
	CardBasic:    1,
	CardGold:     2,
	CardPlatinum: 3,
}

// Valid сообщает, известен ли тип карты
func (t CardType) Valid() bool {
	_, ok := cardPoints[t]
	return ok
}

// Points количество баллов карты: basic 1, gold 2, platinum 3
func (t CardType) Points() int {
	return cardPoints[t]
}

// RequiresApproval сообщает, нужна ли выдаче одобрение руководителя
func (t CardType) RequiresApproval() bool {
	return t == CardGold || t == CardPlatinum
}

// Срок действия карты в зависимости от типа занятости
const (
	FullTimeValidity = 7 * 24 * time.Hour
	PartTimeValidity = 14 * 24 * time.Hour
)

// ExpiresAt вычисляет срок действия карты, выданной в момент issuedAt
func ExpiresAt(t EmploymentType, issuedAt time.Time) time.Time {
	switch t {
	case EmploymentPartTime, EmploymentStudent:
		return issuedAt.Add(PartTimeValidity)
	default:
		return issuedAt.Add(FullTimeValidity)
	}
}

// CardStatus вычисляемое состояние карты
type CardStatus string

const (
	StatusActive   CardStatus = "active"
	StatusRedeemed CardStatus = "redeemed"
	StatusExpired  CardStatus = "expired"
)

// RewardCard карта поощрения
type RewardCard struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	CardType     CardType   `json:"cardType"`
	Points       int        `json:"points"`
	IssuedAt     time.Time  `json:"issuedAt"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	IsRedeemed   bool       `json:"isRedeemed"`
	RedeemedAt   *time.Time `json:"redeemedAt,omitempty"`
	ApprovedBy   string     `json:"approvedBy,omitempty"`
	ApproverName string     `json:"approverName,omitempty"`
	ApproverRole string     `json:"approverRole,omitempty"`
	QRCode       string     `json:"qrCode"`
	// Revision ревизия записи в хранилище для условной записи
	Revision int64 `json:"-"`
}

// IsExpired карта просрочена, если expiresAt раньше now
func (c *RewardCard) IsExpired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

// Status возвращает состояние карты на момент now
func (c *RewardCard) Status(now time.Time) CardStatus {
	switch {
	case c.IsRedeemed:
		return StatusRedeemed
	case c.IsExpired(now):
		return StatusExpired
	default:
		return StatusActive
	}
}

// CanRedeem проверяет переход active -> redeemed
func (c *RewardCard) CanRedeem(now time.Time) error {
	if c.IsRedeemed {
		return ErrAlreadyRedeemed
	}
	if c.IsExpired(now) {
		return ErrCardExpired
	}
	return nil
}

// MarkRedeemed фиксирует погашение и одобрившего руководителя
func (c *RewardCard) MarkRedeemed(now time.Time, approver Approver) {
	c.IsRedeemed = true
	redeemedAt := now
	c.RedeemedAt = &redeemedAt
	c.ApprovedBy = approver.ID
	c.ApproverName = approver.Name
	c.ApproverRole = approver.Role
}

// ExpiringWithin сообщает, истекает ли активная карта в ближайшие d
func (c *RewardCard) ExpiringWithin(now time.Time, d time.Duration) bool {
	return c.Status(now) == StatusActive && !c.ExpiresAt.After(now.Add(d))
}
