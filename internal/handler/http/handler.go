// Package http HTTP API платформы карт поощрения поверх chi.
package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"RewardCardPlatform/internal/domain"
	"RewardCardPlatform/internal/middleware"
	"RewardCardPlatform/internal/service"
	"RewardCardPlatform/pkg/errors"
	"RewardCardPlatform/pkg/health"
	"RewardCardPlatform/pkg/logger"
	"RewardCardPlatform/pkg/metrics"
	"RewardCardPlatform/pkg/ratelimit"
)

// maxBodyBytes ограничение размера тела запроса
const maxBodyBytes = 1 << 20

// EmployeeService операции над сотрудниками
type EmployeeService interface {
	Create(ctx context.Context, in service.EmployeeInput) (*domain.Employee, error)
	Get(ctx context.Context, id string) (*domain.Employee, error)
	List(ctx context.Context) ([]*domain.Employee, error)
	Update(ctx context.Context, id string, upd service.EmployeeUpdate) (*domain.Employee, error)
	Delete(ctx context.Context, id string) error
}

// CardService операции над картами поощрения
type CardService interface {
	Issue(ctx context.Context, req service.IssueRequest) (*domain.RewardCard, error)
	Redeem(ctx context.Context, cardID string, approver domain.Approver) (*domain.RewardCard, error)
	RedeemAsAdmin(ctx context.Context, cardID string) (*domain.RewardCard, error)
	Delete(ctx context.Context, cardID string) error
	Get(ctx context.Context, cardID string) (*domain.RewardCard, error)
	List(ctx context.Context) ([]*domain.RewardCard, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*domain.RewardCard, error)
	ListRedeemed(ctx context.Context) ([]*domain.RewardCard, error)
	Summary(ctx context.Context) (*service.Summary, error)
}

// ManagerService операции над картами руководителей
type ManagerService interface {
	Create(ctx context.Context, in service.ManagerInput) (*domain.ManagerCard, error)
	Update(ctx context.Context, id string, in service.ManagerInput) (*domain.ManagerCard, error)
	UpdatePassword(ctx context.Context, id, newPassword string) error
	Get(ctx context.Context, id string) (*domain.ManagerCard, error)
	List(ctx context.Context) ([]*domain.ManagerCard, error)
	Delete(ctx context.Context, id string) error
	VerifyCredentials(ctx context.Context, id, plain string) (domain.ManagerInfo, error)
	Authenticate(ctx context.Context, username, plain string) (domain.ManagerInfo, error)
}

// Options настройки роутера
type Options struct {
	Health         health.HealthChecker
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	// RateLimiter nil отключает ограничение частоты
	RateLimiter       ratelimit.RateLimiter
	LoginPerMinute    int
	RequestsPerMinute int
}

// Handler HTTP обработчики API
type Handler struct {
	employees EmployeeService
	cards     CardService
	managers  ManagerService
	opts      Options
	logger    logger.Logger
}

// NewHandler создает новый экземпляр Handler
func NewHandler(employees EmployeeService, cards CardService, managers ManagerService, opts Options, log logger.Logger) *Handler {
	return &Handler{
		employees: employees,
		cards:     cards,
		managers:  managers,
		opts:      opts,
		logger:    log.With(logger.String("component", "http_handler")),
	}
}

// Router собирает маршруты API
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RecoveryMiddleware(h.logger))
	r.Use(middleware.LoggingMiddleware(h.logger))
	r.Use(middleware.CORSMiddleware(h.opts.AllowedOrigins, h.logger))
	if h.opts.Metrics != nil {
		r.Use(h.opts.Metrics.Middleware)
		r.Handle("/metrics", h.opts.Metrics.GetHandler())
	}

	if h.opts.Health != nil {
		r.Get("/health", health.Handler(h.opts.Health))
		r.Get("/ready", health.ReadyHandler(h.opts.Health))
	}
	r.Get("/live", health.LiveHandler())

	r.Route("/api", func(r chi.Router) {
		r.Use(h.rateLimit("api", h.opts.RequestsPerMinute))

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.listEmployees)
			r.Post("/", h.createEmployee)
			r.Get("/{id}", h.getEmployee)
			r.Put("/{id}", h.updateEmployee)
			r.Delete("/{id}", h.deleteEmployee)
		})

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/", h.listRewards)
			r.Get("/redeemed", h.listRedeemed)
			r.Get("/summary", h.summary)
			r.Post("/issue", h.issueReward)
			r.Post("/redeem", h.redeemReward)
			r.Get("/{id}", h.getReward)
			r.Delete("/{id}", h.deleteReward)
		})

		r.Route("/managers", func(r chi.Router) {
			r.Get("/", h.listManagers)
			r.Post("/", h.createManager)
			r.Get("/{id}", h.getManager)
			r.Put("/{id}", h.updateManager)
			r.Delete("/{id}", h.deleteManager)
			r.With(h.rateLimit("password", h.opts.LoginPerMinute)).Post("/{id}/password", h.updateManagerPassword)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Use(h.rateLimit("login", h.opts.LoginPerMinute))
			r.Post("/login-by-id", h.loginByID)
			r.Post("/login", h.login)
		})

		r.Post("/scan", h.scan)
	})

	return r
}

func (h *Handler) rateLimit(scope string, perMinute int) func(http.Handler) http.Handler {
	if h.opts.RateLimiter == nil || perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimitMiddleware(h.opts.RateLimiter, scope, perMinute, time.Minute, h.logger)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return domain.Validation("request body is required")
		}
		return domain.Validation("malformed request body").WithCause(err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError логирует ошибку сервера и отдает ее клиенту
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if e := errors.FromError(err); e.HTTPStatus() >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			logger.CtxField(r.Context()),
			logger.Error(err),
			logger.String("path", r.URL.Path),
		)
	}
	errors.WriteHTTP(w, err)
}
