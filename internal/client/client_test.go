package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RewardCardPlatform/internal/client"
	"RewardCardPlatform/internal/domain"
	handler "RewardCardPlatform/internal/handler/http"
	"RewardCardPlatform/internal/pkg/password"
	"RewardCardPlatform/internal/repository"
	"RewardCardPlatform/internal/service"
	"RewardCardPlatform/internal/session"
	"RewardCardPlatform/internal/store/memory"
	"RewardCardPlatform/pkg/errors"
	"RewardCardPlatform/pkg/logger"
	"RewardCardPlatform/pkg/metrics"
)

type payloadEncoder struct{}

func (payloadEncoder) Encode(payload string) (string, error) {
	return "qr:" + payload, nil
}

type env struct {
	server    *httptest.Server
	client    *client.Client
	employees *service.EmployeeService
	managers  *service.ManagerService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	s := memory.NewStore()
	log := logger.NewNop()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	reg := prometheus.NewRegistry()
	m := metrics.NewMetricsWithRegistry("reward-client-test", reg, reg)

	employeeRepo := repository.NewEmployeeRepository(s, log)
	cardRepo := repository.NewCardRepository(s, log)
	managerRepo := repository.NewManagerRepository(s, log)

	employees := service.NewEmployeeService(employeeRepo, cardRepo, clock, log)
	cards := service.NewCardService(cardRepo, employeeRepo, managerRepo, payloadEncoder{}, clock, m, log)
	managers := service.NewManagerService(managerRepo, password.NewBcryptHasher(4), payloadEncoder{}, clock, m, log)

	srv := httptest.NewServer(handler.NewHandler(employees, cards, managers, handler.Options{}, log).Router())
	t.Cleanup(srv.Close)

	return &env{
		server:    srv,
		client:    client.New(srv.URL, time.Second, log),
		employees: employees,
		managers:  managers,
	}
}

func (e *env) manager(t *testing.T, role domain.Role) *domain.ManagerCard {
	t.Helper()
	m, err := e.managers.Create(context.Background(), service.ManagerInput{
		Name: "Tóth Éva", Position: "Vezető", Role: role, Password: "Titok123",
	})
	require.NoError(t, err)
	return m
}

// TestClient_Exists проверяет проверку существования карты руководителя
func TestClient_Exists(t *testing.T) {
	e := newEnv(t)
	m := e.manager(t, domain.RoleTrainer)
	ctx := context.Background()

	ok, err := e.client.Exists(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.client.Exists(ctx, "torolt-kartya")
	require.NoError(t, err)
	assert.False(t, ok)

	e.server.Close()
	_, err = e.client.Exists(ctx, m.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrUpstreamUnavailable))
}

// TestClient_Credentials проверяет вход и смену пароля
func TestClient_Credentials(t *testing.T) {
	e := newEnv(t)
	m := e.manager(t, domain.RoleShiftLeader)
	ctx := context.Background()

	info, err := e.client.VerifyCredentials(ctx, m.ID, "Titok123")
	require.NoError(t, err)
	assert.Equal(t, m.ID, info.ID)
	assert.Contains(t, info.Permissions, domain.PermManageManagers)

	_, err = e.client.VerifyCredentials(ctx, m.ID, "rossz")
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	_, err = e.client.VerifyCredentials(ctx, "ismeretlen", "Titok123")
	assert.ErrorIs(t, err, domain.ErrInvalidIdentity)

	require.NoError(t, e.client.UpdatePassword(ctx, m.ID, "UjJelszo"))
	info, err = e.client.Authenticate(ctx, "TÓTH ÉVA", "UjJelszo")
	require.NoError(t, err)
	assert.Equal(t, m.ID, info.ID)
}

// TestClient_IssueRedeemScan проверяет операции с картами
func TestClient_IssueRedeemScan(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	leader := e.manager(t, domain.RoleShiftLeader)
	employee, err := e.employees.Create(ctx, service.EmployeeInput{Name: "Kiss Anna", Position: "Pultos"})
	require.NoError(t, err)

	card, err := e.client.Issue(ctx, service.IssueRequest{EmployeeID: employee.ID, CardType: domain.CardPlatinum})
	assert.ErrorIs(t, err, domain.ErrApprovalRequired)
	assert.Nil(t, card)

	approver := domain.Approver{ID: leader.ID, Name: leader.Name, Role: string(leader.Role)}
	card, err = e.client.Issue(ctx, service.IssueRequest{EmployeeID: employee.ID, CardType: domain.CardPlatinum, Approver: approver})
	require.NoError(t, err)
	assert.Equal(t, 3, card.Points)

	result, err := e.client.Scan(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, handler.ScanKindCard, result.Kind)

	redeemed, err := e.client.Redeem(ctx, card.ID, approver)
	require.NoError(t, err)
	assert.True(t, redeemed.IsRedeemed)
	assert.Equal(t, leader.Name, redeemed.ApproverName)

	summary, err := e.client.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RedeemedCards)
}

// TestClient_NonJSONError проверяет ответ сервера без тела ошибки
func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := client.New(srv.URL, time.Second, logger.NewNop())
	_, err := c.Exists(context.Background(), "x")
	assert.True(t, errors.IsCode(err, errors.ErrUpstreamUnavailable))
}

// TestClient_AsSessionDirectory проверяет вход в сессию через сервер
func TestClient_AsSessionDirectory(t *testing.T) {
	e := newEnv(t)
	m := e.manager(t, domain.RoleCoordinator)
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	mgr := session.NewManager(e.client, session.NewMemoryStorage(), clock, logger.NewNop())
	defer mgr.Close()

	require.NoError(t, mgr.LoginWithPassword(ctx, m.ID, "Titok123"))
	assert.True(t, mgr.IsLoggedIn())
	assert.True(t, mgr.HasPermission(domain.PermIssueRewards))
	assert.False(t, mgr.HasPermission(domain.PermRedeemRewards))

	mgr.Logout(ctx)

	e.server.Close()
	err := mgr.LoginWithIdentity(ctx, m.Info())
	require.NoError(t, err, "identity login tolerates an unreachable server")
	assert.True(t, mgr.IsLoggedIn())

	err = mgr.LoginWithPassword(ctx, m.ID, "Titok123")
	assert.True(t, errors.IsCode(err, errors.ErrUpstreamUnavailable))
}
