package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// Статусы проверки
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthChecker интерфейс для проверки здоровья сервиса
type HealthChecker interface {
	Check(ctx context.Context) *HealthStatus
}

// HealthStatus представляет статус здоровья сервиса
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]Status `json:"services,omitempty"`
	Version   string            `json:"version,omitempty"`
}

// Status представляет статус зависимости
type Status struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

// Probe проверяет одну зависимость, например хранилище записей
type Probe func(ctx context.Context) error

// ProbeHealthChecker проверяет набор зависимостей
type ProbeHealthChecker struct {
	version string
	timeout time.Duration
	probes  map[string]Probe
}

// NewProbeHealthChecker создает новый ProbeHealthChecker
func NewProbeHealthChecker(version string, timeout time.Duration) *ProbeHealthChecker {
	return &ProbeHealthChecker{
		version: version,
		timeout: timeout,
		probes:  make(map[string]Probe),
	}
}

// AddProbe регистрирует проверку зависимости
func (p *ProbeHealthChecker) AddProbe(name string, probe Probe) *ProbeHealthChecker {
	p.probes[name] = probe
	return p
}

// Check проверяет здоровье сервиса и всех зависимостей
func (p *ProbeHealthChecker) Check(ctx context.Context) *HealthStatus {
	result := &HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Version:   p.version,
	}
	if len(p.probes) == 0 {
		return result
	}

	names := make([]string, 0, len(p.probes))
	for name := range p.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	result.Services = make(map[string]Status, len(names))
	for _, name := range names {
		probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err := p.probes[name](probeCtx)
		cancel()

		if err != nil {
			result.Status = StatusUnhealthy
			result.Services[name] = Status{Status: StatusUnhealthy, Details: err.Error()}
			continue
		}
		result.Services[name] = Status{Status: StatusHealthy}
	}

	return result
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// Handler создает HTTP обработчик для health check эндпоинта
func Handler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := checker.Check(r.Context())

		code := http.StatusOK
		if status.Status != StatusHealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, status)
	}
}

// ReadyHandler создает HTTP обработчик для ready check эндпоинта
// Возвращает 200 если все зависимости доступны
func ReadyHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker.Check(r.Context()).Status != StatusHealthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// LiveHandler создает HTTP обработчик для live check эндпоинта
// Возвращает 200 если процесс жив
func LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	}
}
