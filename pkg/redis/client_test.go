package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RewardCardPlatform/pkg/config"
	"RewardCardPlatform/pkg/logger"
)

// retryRecorder считает предупреждения о повторных попытках
type retryRecorder struct {
	logger.Logger
	mu    sync.Mutex
	warns int
}

func newRetryRecorder() *retryRecorder {
	return &retryRecorder{Logger: logger.NewNop()}
}

func (r *retryRecorder) Warn(msg string, fields ...logger.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns++
}

func (r *retryRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warns
}

// TestConnect_Success проверяет успешное подключение к Redis
func TestConnect_Success(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := NewConfig()
	cfg.Addr = mr.Addr()

	log := newRetryRecorder()
	client, err := Connect(context.Background(), cfg, log)
	require.NoError(t, err)
	assert.Zero(t, log.count())
	defer client.Close()

	assert.NoError(t, client.HealthCheck(context.Background()))
}

// TestConnect_Failure проверяет ошибку после исчерпания попыток
func TestConnect_Failure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := NewConfig()
	cfg.Addr = "127.0.0.1:1"
	cfg.MaxRetries = 2
	cfg.RetryInterval = 10 * time.Millisecond

	log := newRetryRecorder()
	_, err := Connect(ctx, cfg, log)
	assert.Error(t, err)
	assert.Equal(t, 2, log.count())
}

// TestConnect_WrongPasswordNotRetried проверяет, что отказ в аутентификации не повторяется
func TestConnect_WrongPasswordNotRetried(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")

	cfg := NewConfig()
	cfg.Addr = mr.Addr()
	cfg.Password = "wrong"
	cfg.MaxRetries = 3
	cfg.RetryInterval = time.Second

	log := newRetryRecorder()
	start := time.Now()
	_, err := Connect(context.Background(), cfg, log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis rejected credentials")
	assert.Zero(t, log.count())
	assert.Less(t, time.Since(start), cfg.RetryInterval)
}

// TestHealthCheck проверяет health check без инициализированного клиента
func TestHealthCheck(t *testing.T) {
	client := &Client{}

	assert.Error(t, client.HealthCheck(context.Background()))
	assert.NoError(t, client.Close())
}

// TestConfigFrom проверяет перенос настроек из конфигурации приложения
func TestConfigFrom(t *testing.T) {
	app := config.Default().Redis
	app.Addr = "redis:6379"
	app.MaxRetries = 2
	app.MaxRetryBackoff = "1s"
	app.RetryInterval = "bad"

	cfg := ConfigFrom(app)
	assert.Equal(t, "redis:6379", cfg.Addr)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.MaxRetryBackoff)
	// Некорректная длительность заменяется значением по умолчанию
	assert.Equal(t, time.Second, cfg.RetryInterval)

	opts := cfg.Options()
	assert.Equal(t, 2, opts.MaxRetries)
	assert.Equal(t, 8*time.Millisecond, opts.MinRetryBackoff)
}
