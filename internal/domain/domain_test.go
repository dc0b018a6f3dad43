package domain

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardPoints(t *testing.T) {
	assert.Equal(t, 1, CardBasic.Points())
	assert.Equal(t, 2, CardGold.Points())
	assert.Equal(t, 3, CardPlatinum.Points())
	assert.Equal(t, 0, CardType("diamond").Points())
	assert.False(t, CardType("diamond").Valid())

	assert.False(t, CardBasic.RequiresApproval())
	assert.True(t, CardGold.RequiresApproval())
	assert.True(t, CardPlatinum.RequiresApproval())
}

func TestExpiresAt(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, t0.Add(7*24*time.Hour), ExpiresAt(EmploymentFullTime, t0))
	assert.Equal(t, t0.Add(14*24*time.Hour), ExpiresAt(EmploymentPartTime, t0))
	assert.Equal(t, t0.Add(14*24*time.Hour), ExpiresAt(EmploymentStudent, t0))
	assert.Equal(t, t0.Add(7*24*time.Hour), ExpiresAt(EmploymentType("contractor"), t0))
}

func TestCardStatus(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	card := &RewardCard{ID: "c1", CardType: CardGold, ExpiresAt: now.Add(time.Hour)}

	assert.Equal(t, StatusActive, card.Status(now))
	assert.NoError(t, card.CanRedeem(now))
	assert.True(t, card.ExpiringWithin(now, 3*24*time.Hour))
	assert.False(t, card.ExpiringWithin(now, time.Minute))

	expired := &RewardCard{ID: "c2", ExpiresAt: now.Add(-time.Second)}
	assert.Equal(t, StatusExpired, expired.Status(now))
	assert.True(t, stderrors.Is(expired.CanRedeem(now), ErrCardExpired))

	// Ровно на границе карта еще действительна
	boundary := &RewardCard{ID: "c3", ExpiresAt: now}
	assert.NoError(t, boundary.CanRedeem(now))

	card.MarkRedeemed(now, AdminApprover())
	assert.Equal(t, StatusRedeemed, card.Status(now))
	require.NotNil(t, card.RedeemedAt)
	assert.Equal(t, now, *card.RedeemedAt)
	assert.Equal(t, AdminID, card.ApprovedBy)
	assert.Equal(t, AdminRole, card.ApproverRole)
	assert.True(t, stderrors.Is(card.CanRedeem(now), ErrAlreadyRedeemed))
}

func TestEmployeeLock(t *testing.T) {
	e := &Employee{Name: "Kiss Anna", Position: "Pultos", EmploymentType: EmploymentStudent}
	require.NoError(t, e.Validate())

	e.Lock("  késés ")
	assert.True(t, e.IsLocked)
	assert.Equal(t, "késés", e.LockReason)

	e.Unlock()
	assert.False(t, e.IsLocked)
	assert.Empty(t, e.LockReason)

	e.EmploymentType = "intern"
	assert.Error(t, e.Validate())
}

func TestRolePermissions(t *testing.T) {
	assert.ElementsMatch(t,
		[]Permission{PermManageEmployees, PermIssueRewards, PermRedeemRewards, PermManageManagers},
		RolePermissions(RoleShiftLeader))
	assert.ElementsMatch(t, []Permission{PermManageEmployees, PermIssueRewards}, RolePermissions(RoleCoordinator))
	assert.ElementsMatch(t, []Permission{PermIssueRewards}, RolePermissions(RoleTrainer))
	assert.Empty(t, RolePermissions(Role("Gondnok")))

	// Явные права заменяют права роли
	assert.Equal(t, []Permission{PermRedeemRewards}, EffectivePermissions(RoleTrainer, []Permission{PermRedeemRewards}))
	assert.Equal(t, RolePermissions(RoleTrainer), EffectivePermissions(RoleTrainer, nil))

	// Возвращается копия таблицы
	perms := RolePermissions(RoleTrainer)
	perms[0] = PermManageManagers
	assert.Equal(t, PermIssueRewards, RolePermissions(RoleTrainer)[0])
}

func TestHasPermission_LegacyNames(t *testing.T) {
	perms := []Permission{PermManageManagers}

	assert.True(t, HasPermission(perms, PermAddDeleteManagers))
	assert.True(t, HasPermission(perms, PermEditManagerPrivileges))
	assert.True(t, HasPermission(perms, PermChangeManagerPasswords))
	assert.False(t, HasPermission(perms, PermIssueRewards))

	assert.False(t, HasPermission([]Permission{PermIssueRewards}, PermAddDeleteManagers))
	assert.Len(t, AdminPermissions(), 7)
}

func existsIn(ids ...string) ManagerExists {
	return func(id string) (bool, error) {
		for _, known := range ids {
			if known == id {
				return true, nil
			}
		}
		return false, nil
	}
}

func TestCheckRedemptionApproval(t *testing.T) {
	exists := existsIn("m1", "m2")

	assert.NoError(t, CheckRedemptionApproval(Approver{ID: "m1", Name: "Nagy Péter", Role: string(RoleShiftLeader)}, exists))
	assert.NoError(t, CheckRedemptionApproval(AdminApprover(), exists))

	err := CheckRedemptionApproval(Approver{ID: "m2", Name: "Tóth Eszter", Role: string(RoleTrainer)}, exists)
	assert.True(t, stderrors.Is(err, ErrInsufficientApprovalRole))

	err = CheckRedemptionApproval(Approver{ID: "m2", Name: "Tóth Eszter", Role: string(RoleCoordinator)}, exists)
	assert.True(t, stderrors.Is(err, ErrInsufficientApprovalRole))

	err = CheckRedemptionApproval(Approver{ID: "gone", Name: "Volt Vezető", Role: string(RoleShiftLeader)}, exists)
	assert.True(t, stderrors.Is(err, ErrInvalidApprover))

	err = CheckRedemptionApproval(Approver{}, exists)
	assert.True(t, stderrors.Is(err, ErrApprovalRequired))

	// Роль Admin без встроенного идентификатора не принимается
	err = CheckRedemptionApproval(Approver{ID: "m1", Name: "X", Role: AdminRole}, exists)
	assert.True(t, stderrors.Is(err, ErrInsufficientApprovalRole))
}

func TestCheckIssuanceApproval(t *testing.T) {
	exists := existsIn("m1")

	assert.NoError(t, CheckIssuanceApproval(CardBasic, Approver{}, exists))
	assert.True(t, stderrors.Is(CheckIssuanceApproval(CardGold, Approver{}, exists), ErrApprovalRequired))
	assert.True(t, stderrors.Is(CheckIssuanceApproval(CardPlatinum, Approver{}, exists), ErrApprovalRequired))

	// Роль для выдачи не ограничивается
	assert.NoError(t, CheckIssuanceApproval(CardGold, Approver{ID: "m1", Role: string(RoleTrainer)}, exists))
	assert.NoError(t, CheckIssuanceApproval(CardPlatinum, Approver{ID: AdminID}, exists))

	err := CheckIssuanceApproval(CardGold, Approver{ID: "ghost"}, exists)
	assert.True(t, stderrors.Is(err, ErrInvalidApprover))

	lookupErr := stderrors.New("store down")
	err = CheckIssuanceApproval(CardGold, Approver{ID: "m1"}, func(string) (bool, error) { return false, lookupErr })
	assert.Same(t, lookupErr, err)
}

func TestParsePayload(t *testing.T) {
	p, err := ParsePayload("  a1b2c3d4 ")
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3d4", p.ID)
	assert.Empty(t, p.Type)

	p, err = ParsePayload(`{"id":"m1","type":"manager","name":"Nagy Péter","role":"Műszakvezető","permissions":["redeem_rewards"]}`)
	require.NoError(t, err)
	assert.Equal(t, "m1", p.ID)
	assert.Equal(t, PayloadTypeManager, p.Type)
	assert.Equal(t, []Permission{PermRedeemRewards}, p.Permissions)

	p, err = ParsePayload(`{"id":"c1","employeeId":"e1","cardType":"gold","points":2}`)
	require.NoError(t, err)
	assert.Equal(t, CardGold, p.CardType)
	assert.Equal(t, 2, p.Points)

	for _, raw := range []string{"", "   ", `{"name":"x"}`, `{"id":""}`, `{broken`, "two words"} {
		_, err := ParsePayload(raw)
		assert.True(t, stderrors.Is(err, ErrInvalidPayload), raw)
	}
}

func TestManagerCard(t *testing.T) {
	m := &ManagerCard{ID: "m1", Name: "Nagy Péter", Position: "Vezető", Role: RoleCoordinator, Password: "secret"}
	require.NoError(t, m.Validate())

	info := m.Info()
	assert.Equal(t, "m1", info.ID)
	assert.Equal(t, string(RoleCoordinator), info.Role)
	assert.ElementsMatch(t, RolePermissions(RoleCoordinator), info.Permissions)

	payload, err := ManagerPayload(m)
	require.NoError(t, err)
	parsed, err := ParsePayload(payload)
	require.NoError(t, err)
	assert.Equal(t, PayloadTypeManager, parsed.Type)
	assert.NotContains(t, payload, "secret")

	m.Permissions = []Permission{"fly"}
	assert.Error(t, m.Validate())
	m.Permissions = nil
	m.Role = "Gondnok"
	assert.Error(t, m.Validate())
}

func TestValidateCardID(t *testing.T) {
	assert.NoError(t, ValidateCardID("a1b2c3d4"))
	assert.Error(t, ValidateCardID("két szó"))
	assert.Error(t, ValidateCardID(strings.Repeat("x", MaxCardIDLength+1)))
}
