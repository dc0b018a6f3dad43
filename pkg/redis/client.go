package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"RewardCardPlatform/pkg/config"
	"RewardCardPlatform/pkg/connection"
	"RewardCardPlatform/pkg/logger"
)

// Client представляет подключение к Redis
type Client struct {
	Client *redis.Client
}

// Config представляет конфигурацию Redis
type Config struct {
	Addr     string
	Password string
	DB       int
	// Connection pool settings
	PoolSize    int
	MinIdleConn int
	// Retry settings: число попыток подключения и повторов команд клиентом
	MaxRetries    int
	RetryInterval time.Duration
	// Экспоненциальная задержка между повторами команд
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	// Health check
	HealthCheck time.Duration
}

// NewConfig создает конфигурацию по умолчанию
func NewConfig() *Config {
	return &Config{
		Addr:            "localhost:6379",
		Password:        "",
		DB:              0,
		PoolSize:        10,
		MinIdleConn:     2,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		HealthCheck:     30 * time.Second,
	}
}

// ConfigFrom строит конфигурацию клиента из секции redis конфигурации приложения
func ConfigFrom(cfg config.RedisConfig) *Config {
	def := NewConfig()
	return &Config{
		Addr:            cfg.Addr,
		Password:        cfg.Password,
		DB:              cfg.DB,
		PoolSize:        cfg.PoolSize,
		MinIdleConn:     cfg.MinIdleConn,
		MaxRetries:      cfg.MaxRetries,
		RetryInterval:   config.Duration(cfg.RetryInterval, def.RetryInterval),
		MinRetryBackoff: config.Duration(cfg.MinRetryBackoff, def.MinRetryBackoff),
		MaxRetryBackoff: config.Duration(cfg.MaxRetryBackoff, def.MaxRetryBackoff),
		HealthCheck:     config.Duration(cfg.HealthCheck, def.HealthCheck),
	}
}

// Options возвращает параметры go-redis клиента
func (c *Config) Options() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConn,
		// Повторы команд с экспоненциальной задержкой выполняет сам клиент
		MaxRetries:      c.MaxRetries,
		MinRetryBackoff: c.MinRetryBackoff,
		MaxRetryBackoff: c.MaxRetryBackoff,
		// Таймауты
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		// Таймаут для получения соединения из пула
		PoolTimeout:     4 * time.Second,
		ConnMaxIdleTime: c.HealthCheck,
	}
}

// Connect устанавливает подключение к Redis с retry логикой.
// Ошибки аутентификации не повторяются.
func Connect(ctx context.Context, cfg *Config, log logger.Logger) (*Client, error) {
	var client *redis.Client

	retry := connection.RetryConfig{
		MaxAttempts:  cfg.MaxRetries + 1,
		InitialDelay: cfg.RetryInterval,
		MaxDelay:     cfg.RetryInterval * 8,
		Multiplier:   2,
		Jitter:       true,
	}

	connect := func(ctx context.Context) error {
		candidate := redis.NewClient(cfg.Options())
		if err := candidate.Ping(ctx).Err(); err != nil {
			candidate.Close()
			if isAuthError(err) {
				return connection.Permanent(fmt.Errorf("redis rejected credentials: %w", err))
			}
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		client = candidate
		return nil
	}
	onRetry := func(attempt int, delay time.Duration, err error) {
		log.Warn("Redis connection attempt failed, retrying",
			logger.String("addr", cfg.Addr),
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Error(err),
		)
	}

	if err := connection.WithRetryNotify(ctx, retry, connect, onRetry); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	log.Info("Connected to Redis", logger.String("addr", cfg.Addr), logger.Int("db", cfg.DB))
	return &Client{Client: client}, nil
}

func isAuthError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "WRONGPASS") || strings.Contains(msg, "NOAUTH")
}

// Close закрывает подключение к Redis
func (r *Client) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// HealthCheck проверяет состояние подключения к Redis
func (r *Client) HealthCheck(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}

	return r.Client.Ping(ctx).Err()
}
