package mocks

import (
	"github.com/stretchr/testify/mock"
)

// Storage мок хранилища сессии
type Storage struct {
	mock.Mock
}

func (m *Storage) Get(key string) (string, bool, error) {
	args := m.Called(key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *Storage) Set(key, value string) error {
	args := m.Called(key, value)
	return args.Error(0)
}

func (m *Storage) Remove(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

// Encoder мок кодировщика QR
type Encoder struct {
	mock.Mock
}

func (m *Encoder) Encode(payload string) (string, error) {
	args := m.Called(payload)
	return args.String(0), args.Error(1)
}
