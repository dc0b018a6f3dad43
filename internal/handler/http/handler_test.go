package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/internal/pkg/password"
	"RewardCardPlatform/internal/repository"
	"RewardCardPlatform/internal/service"
	"RewardCardPlatform/internal/store/memory"
	"RewardCardPlatform/pkg/health"
	"RewardCardPlatform/pkg/logger"
	"RewardCardPlatform/pkg/metrics"
	"RewardCardPlatform/pkg/mocks"
)

type payloadEncoder struct{}

func (payloadEncoder) Encode(payload string) (string, error) {
	return "qr:" + payload, nil
}

type testServer struct {
	server    *httptest.Server
	clock     clockwork.FakeClock
	employees *service.EmployeeService
	managers  *service.ManagerService
}

func newTestServer(t *testing.T, limiter *mocks.RateLimiter) *testServer {
	t.Helper()

	s := memory.NewStore()
	log := logger.NewNop()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	reg := prometheus.NewRegistry()
	m := metrics.NewMetricsWithRegistry("reward-http-test", reg, reg)

	employeeRepo := repository.NewEmployeeRepository(s, log)
	cardRepo := repository.NewCardRepository(s, log)
	managerRepo := repository.NewManagerRepository(s, log)

	employees := service.NewEmployeeService(employeeRepo, cardRepo, clock, log)
	cards := service.NewCardService(cardRepo, employeeRepo, managerRepo, payloadEncoder{}, clock, m, log)
	managers := service.NewManagerService(managerRepo, password.NewBcryptHasher(4), payloadEncoder{}, clock, m, log)

	opts := Options{
		Health: health.NewProbeHealthChecker("test", time.Second).
			AddProbe("store", func(context.Context) error { return nil }),
		Metrics:           m,
		AllowedOrigins:    []string{"*"},
		LoginPerMinute:    5,
		RequestsPerMinute: 100,
	}
	if limiter != nil {
		opts.RateLimiter = limiter
	}

	srv := httptest.NewServer(NewHandler(employees, cards, managers, opts, log).Router())
	t.Cleanup(srv.Close)

	return &testServer{server: srv, clock: clock, employees: employees, managers: managers}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Reason  string `json:"reason"`
		Message string `json:"message"`
	} `json:"error"`
}

func (ts *testServer) createEmployee(t *testing.T) *domain.Employee {
	t.Helper()
	var e domain.Employee
	status := ts.do(t, http.MethodPost, "/api/employees", service.EmployeeInput{
		Name: "Kiss Anna", Position: "Pultos", EmploymentType: domain.EmploymentFullTime,
	}, &e)
	require.Equal(t, http.StatusCreated, status)
	return &e
}

func (ts *testServer) createManager(t *testing.T, role domain.Role) *domain.ManagerCard {
	t.Helper()
	var m domain.ManagerCard
	status := ts.do(t, http.MethodPost, "/api/managers", service.ManagerInput{
		Name: "Nagy Péter", Position: "Vezető", Role: role, Password: "Titok123",
	}, &m)
	require.Equal(t, http.StatusCreated, status)
	return &m
}

// TestOpsEndpoints проверяет служебные маршруты
func TestOpsEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, path := range []string{"/health", "/ready", "/live", "/metrics"} {
		resp, err := ts.server.Client().Get(ts.server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

// TestEmployeesCRUD проверяет жизненный цикл сотрудника через API
func TestEmployeesCRUD(t *testing.T) {
	ts := newTestServer(t, nil)
	e := ts.createEmployee(t)

	var got domain.Employee
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/employees/"+e.ID, nil, &got))
	assert.Equal(t, "Kiss Anna", got.Name)

	locked := true
	reason := "Késés"
	var updated domain.Employee
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, "/api/employees/"+e.ID,
		service.EmployeeUpdate{IsLocked: &locked, LockReason: &reason}, &updated))
	assert.True(t, updated.IsLocked)
	assert.Equal(t, "Késés", updated.LockReason)

	var list []domain.Employee
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/employees", nil, &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/employees/"+e.ID, nil, nil))

	var errBody errorBody
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/employees/"+e.ID, nil, &errBody))
	assert.Equal(t, "EMPLOYEE_NOT_FOUND", errBody.Error.Reason)
}

// TestEmployeesValidation проверяет ошибки входных данных
func TestEmployeesValidation(t *testing.T) {
	ts := newTestServer(t, nil)

	var errBody errorBody
	status := ts.do(t, http.MethodPost, "/api/employees", service.EmployeeInput{Position: "Pultos"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", errBody.Error.Code)

	resp, err := ts.server.Client().Post(ts.server.URL+"/api/employees", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestRewardsIssueAndRedeem проверяет выдачу и погашение через API
func TestRewardsIssueAndRedeem(t *testing.T) {
	ts := newTestServer(t, nil)
	e := ts.createEmployee(t)
	leader := ts.createManager(t, domain.RoleShiftLeader)
	trainer := ts.createManager(t, domain.RoleTrainer)

	var card domain.RewardCard
	status := ts.do(t, http.MethodPost, "/api/rewards/issue", service.IssueRequest{
		CardID: "card-001", EmployeeID: e.ID, CardType: domain.CardGold,
		Approver: domain.Approver{ID: leader.ID, Name: leader.Name, Role: string(leader.Role)},
	}, &card)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 2, card.Points)

	t.Run("активный идентификатор занят", func(t *testing.T) {
		var errBody errorBody
		status := ts.do(t, http.MethodPost, "/api/rewards/issue", service.IssueRequest{
			CardID: "card-001", EmployeeID: e.ID, CardType: domain.CardBasic,
		}, &errBody)
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "CARD_ID_IN_USE", errBody.Error.Reason)
	})

	t.Run("Tréner не может одобрить погашение", func(t *testing.T) {
		var errBody errorBody
		status := ts.do(t, http.MethodPost, "/api/rewards/redeem", RedeemRequest{
			CardID:   "card-001",
			Approver: domain.Approver{ID: trainer.ID, Name: trainer.Name, Role: string(trainer.Role)},
		}, &errBody)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "INSUFFICIENT_APPROVAL_ROLE", errBody.Error.Reason)
	})

	t.Run("администратор погашает напрямую", func(t *testing.T) {
		var redeemed domain.RewardCard
		status := ts.do(t, http.MethodPost, "/api/rewards/redeem", RedeemRequest{
			CardID: "card-001", Approver: domain.AdminApprover(),
		}, &redeemed)
		require.Equal(t, http.StatusOK, status)
		assert.True(t, redeemed.IsRedeemed)
		assert.Equal(t, domain.AdminID, redeemed.ApprovedBy)
	})

	t.Run("повторное погашение", func(t *testing.T) {
		var errBody errorBody
		status := ts.do(t, http.MethodPost, "/api/rewards/redeem", RedeemRequest{
			CardID: "card-001", Approver: domain.AdminApprover(),
		}, &errBody)
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "ALREADY_REDEEMED", errBody.Error.Reason)
	})

	var redeemed []domain.RewardCard
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/rewards/redeemed", nil, &redeemed))
	assert.Len(t, redeemed, 1)

	var summary service.Summary
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/rewards/summary", nil, &summary))
	assert.Equal(t, 1, summary.TotalEmployees)
	assert.Equal(t, 1, summary.RedeemedCards)
	assert.Equal(t, 0, summary.ActiveCards)
}

// TestRewardsExpiredCard проверяет статус 410 для просроченной карты
func TestRewardsExpiredCard(t *testing.T) {
	ts := newTestServer(t, nil)
	e := ts.createEmployee(t)

	var card domain.RewardCard
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/rewards/issue", service.IssueRequest{
		EmployeeID: e.ID, CardType: domain.CardBasic,
	}, &card))

	ts.clock.Advance(8 * 24 * time.Hour)

	var errBody errorBody
	status := ts.do(t, http.MethodPost, "/api/rewards/redeem", RedeemRequest{
		CardID: card.ID, Approver: domain.AdminApprover(),
	}, &errBody)
	assert.Equal(t, http.StatusGone, status)
	assert.Equal(t, "CARD_EXPIRED", errBody.Error.Reason)
}

// TestRewardsListAndDelete проверяет список по сотруднику и удаление карты
func TestRewardsListAndDelete(t *testing.T) {
	ts := newTestServer(t, nil)
	first := ts.createEmployee(t)
	second := ts.createEmployee(t)

	for _, employeeID := range []string{first.ID, first.ID, second.ID} {
		require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/rewards/issue", service.IssueRequest{
			EmployeeID: employeeID, CardType: domain.CardBasic,
		}, &domain.RewardCard{}))
	}

	var all, own []domain.RewardCard
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/rewards", nil, &all))
	assert.Len(t, all, 3)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/rewards?employeeId="+first.ID, nil, &own))
	assert.Len(t, own, 2)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/rewards/"+own[0].ID, nil, nil))

	var errBody errorBody
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/rewards/"+own[0].ID, nil, &errBody))
	assert.Equal(t, "CARD_NOT_FOUND", errBody.Error.Reason)
}

// TestManagersAndAuth проверяет карты руководителей и вход
func TestManagersAndAuth(t *testing.T) {
	ts := newTestServer(t, nil)
	m := ts.createManager(t, domain.RoleCoordinator)
	assert.Equal(t, "qr:"+m.ID, m.QRCode)

	var got domain.ManagerCard
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/managers/"+m.ID, nil, &got))
	assert.Equal(t, domain.RoleCoordinator, got.Role)

	var info domain.ManagerInfo
	status := ts.do(t, http.MethodPost, "/api/auth/login-by-id", LoginByIDRequest{ID: m.ID, Password: "Titok123"}, &info)
	require.Equal(t, http.StatusOK, status)
	assert.ElementsMatch(t, []domain.Permission{domain.PermManageEmployees, domain.PermIssueRewards}, info.Permissions)

	var errBody errorBody
	status = ts.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Username: "nagy péter", Password: "rossz"}, &errBody)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_PASSWORD", errBody.Error.Reason)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodPost, "/api/managers/"+m.ID+"/password",
		PasswordRequest{Password: "UjJelszo"}, nil))
	status = ts.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Username: "nagy péter", Password: "UjJelszo"}, &info)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, m.ID, info.ID)

	var updated domain.ManagerCard
	status = ts.do(t, http.MethodPut, "/api/managers/"+m.ID, service.ManagerInput{
		Name: "Nagy Péter", Position: "Vezető", Role: domain.RoleShiftLeader,
	}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, updated.QRCode, `"type":"manager"`)

	var list []domain.ManagerCard
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/managers", nil, &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/managers/"+m.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/managers/"+m.ID, nil, &errBody))

	status = ts.do(t, http.MethodPost, "/api/auth/login-by-id", LoginByIDRequest{ID: m.ID, Password: "UjJelszo"}, &errBody)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_IDENTITY", errBody.Error.Reason)
}

// TestScan проверяет разрешение QR-пейлоада
func TestScan(t *testing.T) {
	ts := newTestServer(t, nil)
	e := ts.createEmployee(t)
	m := ts.createManager(t, domain.RoleShiftLeader)

	var card domain.RewardCard
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/rewards/issue", service.IssueRequest{
		EmployeeID: e.ID, CardType: domain.CardBasic,
	}, &card))

	tests := []struct {
		name       string
		payload    string
		wantStatus int
		wantKind   string
	}{
		{"голый идентификатор карты", card.ID, http.StatusOK, ScanKindCard},
		{"голый идентификатор руководителя", m.ID, http.StatusOK, ScanKindManager},
		{"JSON руководителя", `{"id":"` + m.ID + `","type":"manager"}`, http.StatusOK, ScanKindManager},
		{"JSON карты", `{"id":"` + card.ID + `","type":"card"}`, http.StatusOK, ScanKindCard},
		{"неизвестный идентификатор", "ismeretlen", http.StatusBadRequest, ""},
		{"JSON без id", `{"type":"manager"}`, http.StatusBadRequest, ""},
		{"пустой пейлоад", "", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result ScanResult
			status := ts.do(t, http.MethodPost, "/api/scan", ScanRequest{Payload: tt.payload}, &result)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, result.Kind)
			}
		})
	}
}

// TestLoginRateLimited проверяет ограничение частоты входа
func TestLoginRateLimited(t *testing.T) {
	limiter := new(mocks.RateLimiter)
	limiter.On("CheckRateLimit", mock.Anything, mock.MatchedBy(func(key string) bool {
		return len(key) > 4 && key[:4] == "api:"
	}), 100, time.Minute).Return(false, nil)
	limiter.On("CheckRateLimit", mock.Anything, mock.MatchedBy(func(key string) bool {
		return len(key) > 6 && key[:6] == "login:"
	}), 5, time.Minute).Return(true, nil)

	ts := newTestServer(t, limiter)

	var errBody errorBody
	status := ts.do(t, http.MethodPost, "/api/auth/login-by-id", LoginByIDRequest{ID: "x", Password: "y"}, &errBody)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMITED", errBody.Error.Code)

	var list []domain.Employee
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/employees", nil, &list))
}
