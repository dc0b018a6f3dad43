package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	handler "RewardCardPlatform/internal/handler/http"
	"RewardCardPlatform/internal/pkg/password"
	"RewardCardPlatform/internal/qr"
	"RewardCardPlatform/internal/repository"
	"RewardCardPlatform/internal/service"
	"RewardCardPlatform/internal/store"
	"RewardCardPlatform/internal/store/memory"
	redisstore "RewardCardPlatform/internal/store/redis"
	"RewardCardPlatform/pkg/config"
	"RewardCardPlatform/pkg/health"
	"RewardCardPlatform/pkg/logger"
	pkg_metrics "RewardCardPlatform/pkg/metrics"
	"RewardCardPlatform/pkg/ratelimit"
	pkg_redis "RewardCardPlatform/pkg/redis"
)

const (
	serviceName    = "reward-server"
	serviceVersion = "v1.0.0"
)

func main() {
	cfg, err := config.LoadConfig(findConfig())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg.Environment, cfg.Logger.Level, cfg.Logger.Format, serviceName)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = appLogger.Sync()
	}()

	appLogger.Info("Starting reward card server",
		logger.String("version", serviceVersion),
		logger.String("store_driver", cfg.Store.Driver),
	)

	tp := pkg_metrics.InitializeOpenTelemetry(serviceName, serviceVersion)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}()

	ctx := context.Background()

	// Хранилище записей и ограничитель частоты. Для memory ограничение выключено.
	var (
		records store.RecordStore
		limiter ratelimit.RateLimiter
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		records = memory.NewStore()
		appLogger.Warn("Using in-memory record store, data is lost on restart")
	default:
		redisClient, err := pkg_redis.Connect(ctx, pkg_redis.ConfigFrom(cfg.Redis), appLogger)
		if err != nil {
			appLogger.Error("Failed to connect to Redis", logger.Error(err))
			os.Exit(1)
		}
		defer redisClient.Close()

		records = redisstore.NewStore(redisClient.Client, appLogger)
		if cfg.RateLimiting.Enabled {
			limiter = ratelimit.NewRedisRateLimiter(redisClient.Client)
		}
	}

	metricsInstance := pkg_metrics.NewMetrics(serviceName)
	healthChecker := health.NewProbeHealthChecker(serviceVersion, 2*time.Second).
		AddProbe("record_store", records.Ping)

	clock := clockwork.NewRealClock()
	encoder := qr.NewPNGEncoder(qr.DefaultSize)

	employeeRepo := repository.NewEmployeeRepository(records, appLogger)
	cardRepo := repository.NewCardRepository(records, appLogger)
	managerRepo := repository.NewManagerRepository(records, appLogger)

	employees := service.NewEmployeeService(employeeRepo, cardRepo, clock, appLogger)
	cards := service.NewCardService(cardRepo, employeeRepo, managerRepo, encoder, clock, metricsInstance, appLogger)
	managers := service.NewManagerService(managerRepo, password.NewBcryptHasher(bcrypt.DefaultCost), encoder, clock, metricsInstance, appLogger)

	h := handler.NewHandler(employees, cards, managers, handler.Options{
		Health:            healthChecker,
		Metrics:           metricsInstance,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		RateLimiter:       limiter,
		LoginPerMinute:    cfg.RateLimiting.LoginPerMinute,
		RequestsPerMinute: cfg.RateLimiting.RequestsPerMinute,
	}, appLogger)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      h.Router(),
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	go func() {
		appLogger.Info("HTTP server started", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed", logger.Error(err))
			os.Exit(1)
		}
	}()

	awaitGracefulShutdown(appLogger, server, config.Duration(cfg.Server.ShutdownTimeout, 10*time.Second))
}

// awaitGracefulShutdown ожидает сигналы для graceful shutdown
func awaitGracefulShutdown(log logger.Logger, server *http.Server, timeout time.Duration) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
		return
	}
	log.Info("Server stopped gracefully")
}

// findConfig путь из CONFIG_PATH либо config/config.yaml в рабочей
// директории или ее родителях. Пустая строка означает значения по умолчанию.
func findConfig() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	dir := wd
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "config", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		dir = filepath.Dir(dir)
	}
	return ""
}
