package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

// Драйверы хранилища записей
const (
	StoreDriverRedis  = "redis"
	StoreDriverMemory = "memory"
)

// Config представляет конфигурацию приложения. Структура содержит вложенные структуры для различных компонентов приложения.
type Config struct {
	Server       ServerConfig    `json:"server" yaml:"server"`
	Logger       LoggerConfig    `json:"logger" yaml:"logger"`
	Environment  string          `json:"environment" yaml:"environment"`
	Redis        RedisConfig     `json:"redis" yaml:"redis"`
	Store        StoreConfig     `json:"store" yaml:"store"`
	RateLimiting RateLimitConfig `json:"rate_limiting" yaml:"rate_limiting"`
}

// ServerConfig представляет конфигурацию HTTP-сервера API.
type ServerConfig struct {
	Host            string   `json:"host" yaml:"host"`
	Port            int      `json:"port" yaml:"port"`
	ReadTimeout     string   `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    string   `json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout string   `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	AllowedOrigins  []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// LoggerConfig представляет конфигурацию логгера. Определяет уровень логирования и формат вывода логов.
type LoggerConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Addr            string `json:"addr" yaml:"addr"`
	Password        string `json:"password" yaml:"password"`
	DB              int    `json:"db" yaml:"db"`
	PoolSize        int    `json:"pool_size" yaml:"pool_size"`
	MinIdleConn     int    `json:"min_idle_conn" yaml:"min_idle_conn"`
	MaxRetries      int    `json:"max_retries" yaml:"max_retries"`
	RetryInterval   string `json:"retry_interval" yaml:"retry_interval"`
	HealthCheck     string `json:"health_check" yaml:"health_check"`
	MinRetryBackoff string `json:"min_retry_backoff" yaml:"min_retry_backoff"`
	MaxRetryBackoff string `json:"max_retry_backoff" yaml:"max_retry_backoff"`
}

// StoreConfig выбирает реализацию хранилища записей
type StoreConfig struct {
	Driver string `json:"driver" yaml:"driver"`
}

// RateLimitConfig представляет конфигурацию Rate Limiting
type RateLimitConfig struct {
	Enabled           bool `json:"enabled" yaml:"enabled"`
	LoginPerMinute    int  `json:"login_per_minute" yaml:"login_per_minute"`
	RequestsPerMinute int  `json:"requests_per_minute" yaml:"requests_per_minute"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "15s",
			WriteTimeout:    "15s",
			ShutdownTimeout: "10s",
			AllowedOrigins:  []string{"*"},
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		Environment: "dev",
		Redis: RedisConfig{
			Addr:            "localhost:6379",
			Password:        "",
			DB:              0,
			PoolSize:        10,
			MinIdleConn:     2,
			MaxRetries:      3,
			RetryInterval:   "1s",
			HealthCheck:     "30s",
			MinRetryBackoff: "8ms",
			MaxRetryBackoff: "512ms",
		},
		Store: StoreConfig{
			Driver: StoreDriverRedis,
		},
		RateLimiting: RateLimitConfig{
			Enabled:           true,
			LoginPerMinute:    10,
			RequestsPerMinute: 300,
		},
	}
}

// LoadConfig загружает конфигурацию в следующем порядке приоритета:
// 1. Загрузка значений по умолчанию
// 2. Загрузка из файла (если указан)
// 3. Переопределение значениями из переменных окружения
// 4. Валидация конфигурации
// Возвращает готовую конфигурацию или ошибку.
func LoadConfig(configFile string) (*Config, error) {
	config := Default()

	if configFile != "" {
		if err := loadConfigFromFile(config, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := loadConfigFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func loadConfigFromFile(config *Config, filename string) error {
	filename = os.ExpandEnv(filename)

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	// Try to unmarshal as YAML first, then JSON
	if err := yaml.Unmarshal(content, config); err != nil {
		if jsonErr := json.Unmarshal(content, config); jsonErr != nil {
			return fmt.Errorf("failed to unmarshal config file as YAML or JSON: %w", err)
		}
	}

	return nil
}

func loadConfigFromEnv(config *Config) error {
	// Server config
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if _, err := fmt.Sscanf(port, "%d", &config.Server.Port); err != nil {
			return fmt.Errorf("invalid SERVER_PORT: %s", port)
		}
	}

	// Redis config
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Redis.Password = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if _, err := fmt.Sscanf(db, "%d", &config.Redis.DB); err != nil {
			return fmt.Errorf("invalid REDIS_DB: %s", db)
		}
	}

	if driver := os.Getenv("STORE_DRIVER"); driver != "" {
		config.Store.Driver = driver
	}

	// Logger config
	if level := os.Getenv("LOGGER_LEVEL"); level != "" {
		config.Logger.Level = level
	}
	if format := os.Getenv("LOGGER_FORMAT"); format != "" {
		config.Logger.Format = format
	}

	if env := os.Getenv("ENVIRONMENT"); env != "" {
		config.Environment = env
	}

	if limit := os.Getenv("RATE_LIMIT_LOGIN_PER_MINUTE"); limit != "" {
		if _, err := fmt.Sscanf(limit, "%d", &config.RateLimiting.LoginPerMinute); err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_LOGIN_PER_MINUTE: %s", limit)
		}
	}

	return nil
}

func validateConfig(config *Config) error {
	// Поддерживаются только: dev, staging, prod
	switch config.Environment {
	case "dev", "staging", "prod":
	default:
		return fmt.Errorf("invalid environment: %s, must be one of: dev, staging, prod", config.Environment)
	}

	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	for name, value := range map[string]string{
		"server.read_timeout":     config.Server.ReadTimeout,
		"server.write_timeout":    config.Server.WriteTimeout,
		"server.shutdown_timeout": config.Server.ShutdownTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s: invalid duration %q", name, value)
		}
	}

	if config.Logger.Level == "" {
		return fmt.Errorf("logger.level is required")
	}
	if config.Logger.Format == "" {
		return fmt.Errorf("logger.format is required")
	}

	switch config.Store.Driver {
	case StoreDriverRedis:
		if config.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for store driver %q", StoreDriverRedis)
		}
		for name, value := range map[string]string{
			"redis.retry_interval":    config.Redis.RetryInterval,
			"redis.health_check":      config.Redis.HealthCheck,
			"redis.min_retry_backoff": config.Redis.MinRetryBackoff,
			"redis.max_retry_backoff": config.Redis.MaxRetryBackoff,
		} {
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("%s: invalid duration %q", name, value)
			}
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("invalid store.driver: %s, must be one of: redis, memory", config.Store.Driver)
	}

	if config.RateLimiting.Enabled && config.RateLimiting.LoginPerMinute <= 0 {
		return fmt.Errorf("rate_limiting.login_per_minute must be positive")
	}

	return nil
}

// Duration разбирает строковую длительность, возвращая fallback при ошибке
func Duration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// Save сохраняет конфигурацию в файл в формате YAML.
// Автоматически создает директорию, если она не существует.
func (c *Config) Save(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	content, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(filename, content, 0644)
}
