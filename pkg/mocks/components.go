package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"RewardCardPlatform/internal/domain"
)

// RateLimiter мок для ratelimit.RateLimiter
type RateLimiter struct {
	mock.Mock
}

func (m *RateLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

// Directory мок справочника руководителей для менеджера сессий
type Directory struct {
	mock.Mock
}

func (m *Directory) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *Directory) VerifyCredentials(ctx context.Context, id, password string) (domain.ManagerInfo, error) {
	args := m.Called(ctx, id, password)
	return args.Get(0).(domain.ManagerInfo), args.Error(1)
}

func (m *Directory) UpdatePassword(ctx context.Context, id, password string) error {
	args := m.Called(ctx, id, password)
	return args.Error(0)
}
