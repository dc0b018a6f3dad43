package service

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/internal/pkg/password"
	"RewardCardPlatform/internal/repository"
	"RewardCardPlatform/internal/store/memory"
	"RewardCardPlatform/pkg/logger"
	"RewardCardPlatform/pkg/metrics"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// payloadEncoder возвращает пейлоад с префиксом вместо изображения
type payloadEncoder struct{}

func (payloadEncoder) Encode(payload string) (string, error) {
	return "qr:" + payload, nil
}

type fixture struct {
	store     *memory.Store
	clock     clockwork.FakeClock
	metrics   *metrics.Metrics
	employees *EmployeeService
	cards     *CardService
	managers  *ManagerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s := memory.NewStore()
	log := logger.NewNop()
	clock := clockwork.NewFakeClockAt(t0)
	reg := prometheus.NewRegistry()
	m := metrics.NewMetricsWithRegistry("reward-test", reg, reg)

	employeeRepo := repository.NewEmployeeRepository(s, log)
	cardRepo := repository.NewCardRepository(s, log)
	managerRepo := repository.NewManagerRepository(s, log)

	return &fixture{
		store:     s,
		clock:     clock,
		metrics:   m,
		employees: NewEmployeeService(employeeRepo, cardRepo, clock, log),
		cards:     NewCardService(cardRepo, employeeRepo, managerRepo, payloadEncoder{}, clock, m, log),
		managers:  NewManagerService(managerRepo, password.NewBcryptHasher(4), payloadEncoder{}, clock, m, log),
	}
}

func (f *fixture) employee(t *testing.T, employment domain.EmploymentType) *domain.Employee {
	t.Helper()
	e, err := f.employees.Create(context.Background(), EmployeeInput{
		Name: "Kiss Anna", Position: "Pultos", EmploymentType: employment,
	})
	require.NoError(t, err)
	return e
}

func (f *fixture) manager(t *testing.T, role domain.Role) *domain.ManagerCard {
	t.Helper()
	m, err := f.managers.Create(context.Background(), ManagerInput{
		Name: "Nagy Péter " + string(role), Position: "Vezető", Role: role, Password: "Titok123",
	})
	require.NoError(t, err)
	return m
}

func approverOf(m *domain.ManagerCard) domain.Approver {
	return domain.Approver{ID: m.ID, Name: m.Name, Role: string(m.Role)}
}
